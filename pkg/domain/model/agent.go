package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kindred-lab/kindred/pkg/domain/types"
)

// Personality is the agent's five trait scalars, each in [0, 100]
type Personality struct {
	Warmth     int
	Logic      int
	Creativity int
	Energy     int
	Humor      int
}

// traitPriority breaks dominant-trait ties in a fixed order
var traitPriority = []string{"warmth", "logic", "creativity", "energy", "humor"}

// Dominant returns the name of the highest trait, ties broken by the
// fixed priority order.
func (p Personality) Dominant() string {
	values := map[string]int{
		"warmth":     p.Warmth,
		"logic":      p.Logic,
		"creativity": p.Creativity,
		"energy":     p.Energy,
		"humor":      p.Humor,
	}
	best := traitPriority[0]
	for _, name := range traitPriority[1:] {
		if values[name] > values[best] {
			best = name
		}
	}
	return best
}

// Average returns the mean of the five trait scalars
func (p Personality) Average() int {
	return (p.Warmth + p.Logic + p.Creativity + p.Energy + p.Humor) / 5
}

// Clamp forces every trait into [0, 100]
func (p *Personality) Clamp() {
	for _, v := range []*int{&p.Warmth, &p.Logic, &p.Creativity, &p.Energy, &p.Humor} {
		if *v < 0 {
			*v = 0
		}
		if *v > 100 {
			*v = 100
		}
	}
}

// AgentSettings is the mutable settings bag attached to an agent
type AgentSettings struct {
	SimpleMode    bool
	Persona       types.Persona
	CustomPersona string // free-form override; wins over Persona when set
	Domains       []types.AnalysisDomain
	KidsSafe      bool
	SkillIDs      []string
}

// Agent is the persistent companion entity a user owns
type Agent struct {
	ID          types.AgentID
	OwnerID     types.UserID
	Name        string
	Personality Personality

	Generation         int
	EvolutionProgress  int // 0-100
	TotalConversations int

	Settings   AgentSettings
	LastActive time.Time
	CreatedAt  time.Time
}

// Validate checks structural invariants of the agent record
func (a *Agent) Validate() error {
	if err := a.ID.Validate(); err != nil {
		return err
	}
	if err := a.OwnerID.Validate(); err != nil {
		return err
	}
	if a.Generation < 1 {
		return goerr.New("agent generation must be >= 1", goerr.V("generation", a.Generation))
	}
	if a.EvolutionProgress < 0 || a.EvolutionProgress > 100 {
		return goerr.New("evolution progress out of range", goerr.V("progress", a.EvolutionProgress))
	}
	return nil
}
