package crypto

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor applied to stored credentials.
const HashCost = 12

// HashPassword hashes plaintext using bcrypt.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), HashCost)
}

// ComparePassword compares plaintext to hashed secret. A mismatch returns
// bcrypt.ErrMismatchedHashAndPassword; it is not a fault.
func ComparePassword(hash []byte, plain string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain))
}

// PasswordStrength scores plaintext from 0 to 100 in four additive steps:
// minimum length, mixed case, a digit, and a symbol. The score is advisory
// and never gates submission.
func PasswordStrength(plain string) int {
	if plain == "" {
		return 0
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range plain {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	score := 0
	if len(plain) >= 6 {
		score += 25
	}
	if hasLower && hasUpper {
		score += 25
	}
	if hasDigit {
		score += 25
	}
	if hasSymbol {
		score += 25
	}
	return score
}
