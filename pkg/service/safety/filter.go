package safety

import (
	"regexp"
	"strings"

	"github.com/kindred-lab/kindred/pkg/domain/model"
)

// Flag names attached to filtered input
const (
	FlagProfanity = "profanity"
	FlagDanger    = "danger"
	FlagPIIPhone  = "pii_phone"
	FlagPIIEmail  = "pii_email"
	FlagPIIRRN    = "pii_rrn"
)

var (
	piiPhone = regexp.MustCompile(`01[0-9]-?[0-9]{3,4}-?[0-9]{4}`)
	piiEmail = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	piiRRN   = regexp.MustCompile(`\d{6}-?[1-4]\d{6}`)

	profanityPattern = regexp.MustCompile(`(?i)(씨발|시발|병신|개새끼|지랄|좆|꺼져|fuck|shit|bitch|asshole)`)

	dangerPattern = regexp.MustCompile(`(?i)(자살|자해|죽고\s*싶|죽는\s*법|폭탄\s*제조|마약\s*구매|해킹\s*방법|suicide|kill\s*myself|self\s*harm|how\s*to\s*make\s*a\s*bomb|buy\s*drugs)`)
)

// FilterResult is the outcome of input filtering. Filtered carries the
// redacted text; only that text may flow downstream. A danger flag is
// fatal to the turn.
type FilterResult struct {
	Safe     bool
	Filtered string
	Flags    []string
}

// HasFlag reports whether the result carries the named flag
func (r *FilterResult) HasFlag(name string) bool {
	for _, f := range r.Flags {
		if f == name {
			return true
		}
	}
	return false
}

// FilterInput truncates, redacts PII, and classifies the remaining risk
// of one inbound message.
func FilterInput(text string) *FilterResult {
	runes := []rune(text)
	if len(runes) > model.MaxMessageLength {
		text = string(runes[:model.MaxMessageLength])
	}

	result := &FilterResult{Safe: true}

	if piiPhone.MatchString(text) {
		text = piiPhone.ReplaceAllString(text, "[전화번호 삭제]")
		result.Flags = append(result.Flags, FlagPIIPhone)
	}
	if piiEmail.MatchString(text) {
		text = piiEmail.ReplaceAllString(text, "[이메일 삭제]")
		result.Flags = append(result.Flags, FlagPIIEmail)
	}
	if piiRRN.MatchString(text) {
		text = piiRRN.ReplaceAllString(text, "[주민번호 삭제]")
		result.Flags = append(result.Flags, FlagPIIRRN)
	}

	if profanityPattern.MatchString(text) {
		result.Flags = append(result.Flags, FlagProfanity)
		result.Safe = false
	}
	if dangerPattern.MatchString(text) {
		result.Flags = append(result.Flags, FlagDanger)
		result.Safe = false
	}

	result.Filtered = strings.TrimSpace(text)
	return result
}

// FilterOutput redacts PII from a generated reply. Runs unconditionally
// before persistence and before the reply reaches the caller.
func FilterOutput(text string) string {
	text = piiPhone.ReplaceAllString(text, "[전화번호 삭제]")
	text = piiEmail.ReplaceAllString(text, "[이메일 삭제]")
	text = piiRRN.ReplaceAllString(text, "[주민번호 삭제]")
	return text
}

// RefusalMessage is the fixed reply for danger-flagged input, keyed by
// reply language.
var refusalMessages = map[string]string{
	"ko": "미안, 그런 이야기는 도와줄 수 없어. 힘든 일이 있다면 주변에 꼭 도움을 요청해 줘.",
	"en": "I'm sorry, I can't help with that. If you're going through something hard, please reach out to someone you trust.",
	"ja": "ごめんね、その話は手伝えないよ。つらいことがあるなら、身近な人に相談してみて。",
}

// Refusal returns the fixed refusal reply for the language code,
// falling back to English.
func Refusal(lang string) string {
	if msg, ok := refusalMessages[lang]; ok {
		return msg
	}
	return refusalMessages["en"]
}
