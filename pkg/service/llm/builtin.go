package llm

import (
	"context"
	"math/rand"
	"strings"

	"github.com/kindred-lab/kindred/pkg/domain/interfaces"
	"github.com/kindred-lab/kindred/pkg/domain/model"
	"github.com/kindred-lab/kindred/pkg/domain/types"
)

// Builtin is the deterministic last-resort responder. It never fails, so
// the generation chain always terminates with content.
type Builtin struct{}

var _ interfaces.GenerationProvider = &Builtin{}

// NewBuiltin creates the built-in responder
func NewBuiltin() *Builtin {
	return &Builtin{}
}

func (b *Builtin) ID() types.ProviderID {
	return types.ProviderBuiltin
}

var greetingReplies = map[types.Lang][]string{
	types.LangKorean: {
		"안녕! 오늘 하루 어땠어?",
		"안녕~ 보고 싶었어!",
		"어서 와! 무슨 얘기 하고 싶어?",
	},
	types.LangEnglish: {
		"Hey! How was your day?",
		"Hi there! I was hoping you'd stop by.",
		"Hello! What's on your mind?",
	},
	types.LangJapanese: {
		"こんにちは！今日はどうだった？",
		"やあ、会いたかったよ！",
	},
}

var thanksReplies = map[types.Lang][]string{
	types.LangKorean: {
		"천만에! 언제든지 말해~",
		"별말씀을! 도움이 됐다니 기뻐.",
	},
	types.LangEnglish: {
		"Anytime! Happy to help.",
		"You're welcome! That's what I'm here for.",
	},
	types.LangJapanese: {
		"どういたしまして！いつでもどうぞ。",
	},
}

var genericReplies = map[types.Lang][]string{
	types.LangKorean: {
		"응, 그렇구나. 조금 더 얘기해 줄래?",
		"흥미로운데? 계속 말해 봐.",
		"그랬구나~ 나도 궁금해졌어.",
	},
	types.LangEnglish: {
		"I see. Tell me more about that.",
		"That's interesting. What happened next?",
		"Got it. I'd love to hear more.",
	},
	types.LangJapanese: {
		"なるほどね。もう少し聞かせて？",
		"面白いね！続けて。",
	},
}

var greetingPatterns = []string{"안녕", "하이", "hello", "hi", "hey", "こんにちは", "やあ"}
var thanksPatterns = []string{"고마워", "감사", "thank", "thx", "ありがとう"}

// Candidates returns the fixed reply set the built-in responder draws
// from for the given message.
func Candidates(text string) []string {
	lang := types.DetectLang(text)
	table := func(m map[types.Lang][]string) []string {
		if replies, ok := m[lang]; ok {
			return replies
		}
		return m[types.LangEnglish]
	}

	lower := strings.ToLower(text)
	for _, p := range greetingPatterns {
		if strings.Contains(lower, p) {
			return table(greetingReplies)
		}
	}
	for _, p := range thanksPatterns {
		if strings.Contains(lower, p) {
			return table(thanksReplies)
		}
	}
	return table(genericReplies)
}

func (b *Builtin) reply(req *model.GenerateRequest) string {
	text := ""
	for i := len(req.Turns) - 1; i >= 0; i-- {
		if req.Turns[i].Role == types.RoleUser {
			text = req.Turns[i].Content
			break
		}
	}

	candidates := Candidates(text)
	return candidates[rand.Intn(len(candidates))]
}

func (b *Builtin) Generate(ctx context.Context, req *model.GenerateRequest) (string, error) {
	return b.reply(req), nil
}

func (b *Builtin) GenerateStream(ctx context.Context, req *model.GenerateRequest, fn interfaces.StreamFunc) (string, error) {
	reply := b.reply(req)
	if fn != nil {
		if err := fn(reply); err != nil {
			return "", err
		}
	}
	return reply, nil
}
