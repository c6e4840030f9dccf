// Package password enforces password strength rules and hashes passwords
// with argon2id.
package password

import (
	"fmt"
	"strings"
	"unicode"
)

// MinLength is the shortest password accepted.
const MinLength = 8

// SpecialCharacters is the set that satisfies the "special" class.
const SpecialCharacters = "@$!%*?&"

type characterClass struct {
	name  string
	match func(r rune) bool
}

var requiredClasses = []characterClass{
	{name: "uppercase", match: func(r rune) bool { return r >= 'A' && r <= 'Z' }},
	{name: "lowercase", match: func(r rune) bool { return r >= 'a' && r <= 'z' }},
	{name: "digit", match: unicode.IsDigit},
	{name: "special", match: func(r rune) bool { return strings.ContainsRune(SpecialCharacters, r) }},
}

// Validate checks password against the strength rules and returns the
// reason of the first rule that fails. Empty input fails.
func Validate(password string) (bool, string) {
	if password == "" {
		return false, "Password is required"
	}
	if len([]rune(password)) < MinLength {
		return false, fmt.Sprintf("Password must be at least %d characters", MinLength)
	}
	for _, class := range requiredClasses {
		if !strings.ContainsFunc(password, class.match) {
			return false, fmt.Sprintf("Password must contain at least one %s character", class.name)
		}
	}
	return true, ""
}
