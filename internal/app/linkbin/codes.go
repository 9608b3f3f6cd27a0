package linkbin

import (
	"crypto/rand"
	"regexp"
	"strings"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GeneratedCodeLength is the length of auto-generated codes. 62^6 keys is
// plenty for a check-and-retry allocator; collisions only cost a retry.
const GeneratedCodeLength = 6

// GenerateCode returns a random 6-character code over [A-Za-z0-9].
// Uniqueness is the caller's job.
func GenerateCode() string {
	// Reject bytes >= 248 (= 4*62) so every alphabet index is equally likely.
	const limit = 248
	buf := make([]byte, 0, GeneratedCodeLength)
	raw := make([]byte, GeneratedCodeLength*2)
	for len(buf) < GeneratedCodeLength {
		if _, err := rand.Read(raw); err != nil {
			panic("linkbin: crypto/rand unavailable: " + err.Error())
		}
		for _, b := range raw {
			if b < limit && len(buf) < GeneratedCodeLength {
				buf = append(buf, codeAlphabet[int(b)%len(codeAlphabet)])
			}
		}
	}
	return string(buf)
}

var customCodeRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,10}$`)

// Route words a code must not shadow.
var reservedCodes = map[string]struct{}{
	"api":     {},
	"healthz": {},
	"metrics": {},
	"static":  {},
	"favicon": {},
	"d":       {},
	"qr":      {},
}

// ValidateCustomCode checks a user-chosen code: 3-10 chars, letters, digits,
// underscore, hyphen, and not a reserved route word.
func ValidateCustomCode(code string) error {
	if !customCodeRe.MatchString(code) {
		return ErrInvalidCode
	}
	if _, ok := reservedCodes[strings.ToLower(code)]; ok {
		return ErrInvalidCode
	}
	return nil
}
