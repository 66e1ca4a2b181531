package reasoning

import (
	"regexp"
	"strings"
)

// MinTagScanLen is the minimum assembled answer length before tag
// extraction is attempted. Short fragments produce too many false
// positives to be worth scanning.
const MinTagScanLen = 24

// Matches paired thinking tags in models that embed deliberation in the
// visible output instead of a dedicated protocol field. Matching runs on
// the fully assembled text only: pattern matching across incomplete tag
// boundaries mid-stream is unreliable.
var thinkTagPattern = regexp.MustCompile(`(?is)<(thinking|think)>(.*?)</\s*(?:thinking|think)\s*>`)

// ExtractTagged splits tag-delimited reasoning out of assembled answer
// text. The returned answer has the tagged spans removed; reasoning holds
// their inner text. found is false when the text is too short or carries
// no complete tag pair, in which case answer is returned unchanged.
//
// Every character ends up in exactly one of the two outputs, never both.
func ExtractTagged(text string) (answer, reasoning string, found bool) {
	if len(text) < MinTagScanLen {
		return text, "", false
	}

	matches := thinkTagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text, "", false
	}

	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if inner := strings.TrimSpace(m[2]); inner != "" {
			parts = append(parts, inner)
		}
	}

	answer = strings.TrimSpace(thinkTagPattern.ReplaceAllString(text, ""))
	return answer, strings.Join(parts, "\n\n"), true
}
