// Package nameparse splits free-form recipient strings such as
// `"Jane Doe" <jane@example.com>` into a display name and an email address.
package nameparse

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}`)

var nameCleaner = strings.NewReplacer(`"`, "", "<", "")

// ParsePartnerName returns the first email address found in text and the text
// preceding it, stripped of quotes and angle brackets. Without an email the
// whole text is the name.
func ParsePartnerName(text string) (name, email string) {
	loc := emailRegex.FindStringIndex(text)
	if loc == nil {
		return strings.TrimSpace(text), ""
	}
	email = text[loc[0]:loc[1]]
	name = strings.TrimSpace(nameCleaner.Replace(text[:loc[0]]))
	return name, email
}

// NameEmail is ParsePartnerName with mirroring: when only one of the two
// parts can be recovered it is used for both.
func NameEmail(text string) (name, email string) {
	name, email = ParsePartnerName(text)
	if name != "" && email == "" {
		email = name
	}
	if email != "" && name == "" {
		name = email
	}
	return name, email
}
