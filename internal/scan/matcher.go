// Package scan walks the configured boards, matches registered targets
// against thread content, and hands hits to the notification router.
package scan

import (
	"regexp"
	"strings"
)

// MatchPlayerID reports whether the exact numeric ID occurs in the text.
// The ID must not be preceded or followed by another digit, so "12345"
// never matches inside "112345" or "123456".
func MatchPlayerID(text, id string) bool {
	if id == "" || text == "" {
		return false
	}
	re, err := regexp.Compile(`(^|[^0-9])` + regexp.QuoteMeta(id) + `([^0-9]|$)`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// MatchAdminName reports whether a field value names the admin exactly,
// ignoring case and surrounding whitespace.
func MatchAdminName(fieldValue, name string) bool {
	return name != "" && strings.EqualFold(strings.TrimSpace(fieldValue), strings.TrimSpace(name))
}
