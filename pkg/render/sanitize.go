package render

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	labelPolicyOnce sync.Once
	labelPolicy     *bluemonday.Policy
)

// SoftEscape sanitizes text for use inside a label, keeping simple inline
// markup (emphasis, links, line breaks) and escaping everything else.
func SoftEscape(text string) string {
	if text == "" {
		return ""
	}
	return labelSanitizer().Sanitize(text)
}

func labelSanitizer() *bluemonday.Policy {
	labelPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("em", "strong", "b", "i", "small", "br", "span", "abbr")
		policy.AllowAttrs("title").OnElements("abbr", "span")
		policy.AllowAttrs("class").OnElements("span")
		policy.AllowAttrs("href", "title").OnElements("a")
		policy.AllowStandardURLs()
		policy.RequireNoFollowOnLinks(true)
		labelPolicy = policy
	})
	return labelPolicy
}
