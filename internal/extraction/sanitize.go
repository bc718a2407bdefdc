package extraction

import (
	"regexp"
	"strings"
)

var (
	reFenceOpen  = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	reFenceClose = regexp.MustCompile("```\\s*$")
)

// StripCodeFence removes markdown code-fence markers from a provider
// response. Models wrap JSON in fences regardless of instructions; the
// payload in between is returned unchanged.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = reFenceOpen.ReplaceAllString(s, "")
	s = reFenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
