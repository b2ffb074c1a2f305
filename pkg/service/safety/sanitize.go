package safety

import (
	"regexp"
	"strings"
)

var (
	codeFence    = regexp.MustCompile("(?s)```[a-zA-Z]*\n?(.*?)```")
	inlineCode   = regexp.MustCompile("`([^`]*)`")
	boldMarker   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicMarker = regexp.MustCompile(`\*([^*]+)\*`)
	underMarker  = regexp.MustCompile(`__([^_]+)__`)
	headingMark  = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	listMarker   = regexp.MustCompile(`(?m)^\s*[-*•]\s+`)
	numberedList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	mdLink       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)

	controlToken = regexp.MustCompile(`<\|[^|]*\|>|\[/?INST\]|<</?SYS>>|</?s>`)
	arrowTail    = regexp.MustCompile(`(?s)^.*(?:->|→)\s*`)
	excessBlank  = regexp.MustCompile(`\n{3,}`)
)

// Sanitize strips residual markup and control-token artifacts from a
// generated reply and keeps only the answer side of an explicit
// reasoning arrow. Idempotent: sanitizing clean text is a no-op.
func Sanitize(text string) string {
	text = codeFence.ReplaceAllString(text, "$1")
	text = inlineCode.ReplaceAllString(text, "$1")
	text = boldMarker.ReplaceAllString(text, "$1")
	text = italicMarker.ReplaceAllString(text, "$1")
	text = underMarker.ReplaceAllString(text, "$1")
	text = headingMark.ReplaceAllString(text, "")
	text = listMarker.ReplaceAllString(text, "")
	text = numberedList.ReplaceAllString(text, "")
	text = mdLink.ReplaceAllString(text, "$1")

	text = controlToken.ReplaceAllString(text, "")

	if arrowTail.MatchString(text) {
		text = arrowTail.ReplaceAllString(text, "")
	}

	text = excessBlank.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	return FilterOutput(text)
}
