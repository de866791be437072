package game

import (
	"crypto/rand"
	"strings"

	"github.com/google/uuid"
)

// CodeAlphabet is the join-code alphabet. Look-alike characters (0/O, 1/I)
// are left out so codes survive being read aloud or retyped.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the number of characters in a join code.
const CodeLength = 5

// NewCode returns a random join code. Bytes above the largest multiple of
// the alphabet size are rejected so every character is equally likely.
func NewCode() string {
	const max = byte(255 - (256 % len(CodeAlphabet)))

	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)

	for len(out) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		for _, b := range buf {
			if b > max {
				continue
			}
			out = append(out, CodeAlphabet[int(b)%len(CodeAlphabet)])
			if len(out) == CodeLength {
				break
			}
		}
	}
	return string(out)
}

// NormalizeCode is the canonical form of user-typed codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code (already normalized) has the join-code shape.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(CodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

// NewID returns a random identifier for games and players.
func NewID() string { return uuid.NewString() }
