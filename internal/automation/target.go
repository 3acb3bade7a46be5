package automation

import (
	"encoding/base64"
	"regexp"
)

var targetURLPattern = regexp.MustCompile(`(?i)^https?://(www\.)?(facebook|fb)\.com/.+`)

// IsTargetURL reports whether the URL points at the host domain the worker
// automates. Anything else is rejected before dispatch.
func IsTargetURL(url string) bool {
	return targetURLPattern.MatchString(url)
}

// Post URL shapes observed in the wild, most specific first.
var targetIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/posts/(\d+)`),
	regexp.MustCompile(`/photos/.*/(\d+)`),
	regexp.MustCompile(`story_fbid=(\d+)`),
	regexp.MustCompile(`/(\d+)/posts/(\d+)`),
	regexp.MustCompile(`profile\.php\?id=(\d+)`),
}

// ExtractTargetID derives a stable identifier for the action target from its
// URL. When no known pattern matches, a base64 prefix of the URL stands in so
// history rows always carry a non-empty target id.
func ExtractTargetID(url string) string {
	for _, pattern := range targetIDPatterns {
		match := pattern.FindStringSubmatch(url)
		if match == nil {
			continue
		}
		if len(match) > 2 && match[2] != "" {
			return match[2]
		}
		return match[1]
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(url))
	if len(encoded) > 16 {
		encoded = encoded[:16]
	}
	return encoded
}
