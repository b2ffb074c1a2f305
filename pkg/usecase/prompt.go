package usecase

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

//go:embed prompts/rules.toml
var defaultRulesTOML []byte

// LangRule is the per-language rule block and section labels
type LangRule struct {
	Rules       string `toml:"rules"`
	SearchLabel string `toml:"search_label"`
	MemoryLabel string `toml:"memory_label"`
	TopicLabel  string `toml:"topic_label"`
	SkillLabel  string `toml:"skill_label"`
	HintLabel   string `toml:"hint_label"`
	KidsSafe    string `toml:"kids_safe"`
	SimpleMode  string `toml:"simple_mode"`
}

// DomainRule is one analysis-domain vocabulary block
type DomainRule struct {
	Title      string `toml:"title"`
	Vocab      string `toml:"vocab"`
	Disclaimer string `toml:"disclaimer"`
}

// PromptRules is the data-driven rule set behind the composer
type PromptRules struct {
	DefaultPersona string                `toml:"default_persona"`
	Personas       map[string]string     `toml:"personas"`
	Langs          map[string]LangRule   `toml:"langs"`
	Domains        map[string]DomainRule `toml:"domains"`
}

// ParsePromptRules decodes a TOML rule set
func ParsePromptRules(data []byte) (*PromptRules, error) {
	var rules PromptRules
	if err := toml.Unmarshal(data, &rules); err != nil {
		return nil, goerr.Wrap(err, "failed to parse prompt rules")
	}
	return &rules, nil
}

// DefaultPromptRules returns the embedded rule set
func DefaultPromptRules() *PromptRules {
	rules, err := ParsePromptRules(defaultRulesTOML)
	if err != nil {
		// the embedded file is validated by tests; reaching here means a
		// broken build artifact
		panic(err)
	}
	return rules
}

// PromptComposer builds the system prompt for one turn. Compose is a
// total function: every missing input degrades to an omitted section.
type PromptComposer struct {
	rules *PromptRules
}

// NewPromptComposer creates a composer over the given rule set
func NewPromptComposer(rules *PromptRules) *PromptComposer {
	return &PromptComposer{rules: rules}
}

func (c *PromptComposer) langRule(lang types.Lang) LangRule {
	if rule, ok := c.rules.Langs[lang.String()]; ok {
		return rule
	}
	if rule, ok := c.rules.Langs[types.LangEnglish.String()]; ok {
		return rule
	}
	return LangRule{}
}

func (c *PromptComposer) personaLine(agent *model.Agent) string {
	if agent.Settings.CustomPersona != "" {
		return agent.Settings.CustomPersona
	}
	if line, ok := c.rules.Personas[agent.Settings.Persona.String()]; ok {
		return line
	}
	return c.rules.DefaultPersona
}

// Compose builds the full system prompt from the agent state, the loaded
// knowledge, and the optional search context.
func (c *PromptComposer) Compose(agent *model.Agent, lang types.Lang, knowledge *model.Knowledge, searchCtx string, now time.Time) string {
	if knowledge == nil {
		knowledge = &model.Knowledge{}
	}
	rule := c.langRule(lang)

	var b strings.Builder

	b.WriteString(c.personaLine(agent))
	b.WriteString("\n\n")

	p := agent.Personality
	fmt.Fprintf(&b, "현재 시각: %s\n", now.Format("2006-01-02 15:04 (Mon)"))
	fmt.Fprintf(&b, "성격: 따뜻함 %d, 논리 %d, 창의성 %d, 에너지 %d, 유머 %d (가장 강한 특성: %s)\n",
		p.Warmth, p.Logic, p.Creativity, p.Energy, p.Humor, p.Dominant())

	if len(knowledge.Memories) > 0 {
		b.WriteString("\n" + rule.MemoryLabel + "\n")
		for _, m := range knowledge.Memories {
			fmt.Fprintf(&b, "- %s: %s\n", m.Key, m.Value)
		}
	}

	if len(knowledge.Skills) > 0 {
		b.WriteString("\n" + rule.SkillLabel + "\n")
		for _, s := range knowledge.Skills {
			fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Description)
		}
	}

	if len(knowledge.Topics) > 0 {
		b.WriteString("\n" + rule.TopicLabel + "\n")
		for _, t := range knowledge.Topics {
			fmt.Fprintf(&b, "- %s: %s\n", t.Topic, t.Summary)
		}
	}

	if knowledge.Insight != nil && knowledge.Insight.NextHint != "" {
		b.WriteString("\n" + rule.HintLabel + "\n" + knowledge.Insight.NextHint + "\n")
	}

	if searchCtx != "" {
		b.WriteString("\n" + rule.SearchLabel + "\n" + searchCtx + "\n")
	}

	for _, d := range agent.Settings.Domains {
		domain, ok := c.rules.Domains[d.String()]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n[%s] %s %s\n", domain.Title, domain.Vocab, domain.Disclaimer)
	}

	b.WriteString("\n" + rule.Rules + "\n")

	if agent.Settings.KidsSafe && rule.KidsSafe != "" {
		b.WriteString("\n" + rule.KidsSafe + "\n")
	}
	if agent.Settings.SimpleMode && rule.SimpleMode != "" {
		b.WriteString("\n" + rule.SimpleMode + "\n")
	}

	return b.String()
}
