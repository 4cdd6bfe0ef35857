package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	saltBytes        = 32
	keyBytes         = 32
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	return emailRegex.MatchString(s)
}

// PasswordPolicy is the configurable strength policy.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// weakPasswords are rejected regardless of the character-class rules.
var weakPasswords = map[string]bool{
	"password": true,
	"12345678": true,
	"qwerty":   true,
	"admin":    true,
	"letmein":  true,
}

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// Validate returns every policy rule the password breaks, empty when it passes.
func (p PasswordPolicy) Validate(password string) []string {
	var errs []string
	if len(password) < p.MinLength {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters long", p.MinLength))
	}
	if p.RequireUppercase && !upperRe.MatchString(password) {
		errs = append(errs, "password must contain at least one uppercase letter")
	}
	if p.RequireLowercase && !lowerRe.MatchString(password) {
		errs = append(errs, "password must contain at least one lowercase letter")
	}
	if p.RequireNumber && !digitRe.MatchString(password) {
		errs = append(errs, "password must contain at least one number")
	}
	if p.RequireSpecial && !specialRe.MatchString(password) {
		errs = append(errs, "password must contain at least one special character")
	}
	if weakPasswords[strings.ToLower(password)] {
		errs = append(errs, "password is too common")
	}
	return errs
}

// HashPassword derives a PBKDF2-SHA256 key with a fresh random salt.
// Both values are hex encoded for storage; the plaintext is never stored.
func HashPassword(password string) (hash, salt string, err error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	key := pbkdf2.Key([]byte(password), raw, pbkdf2Iterations, keyBytes, sha256.New)
	return hex.EncodeToString(key), hex.EncodeToString(raw), nil
}

// VerifyPassword re-derives the key from the stored salt and compares in
// constant time.
func VerifyPassword(password, hash, salt string) bool {
	raw, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), raw, pbkdf2Iterations, keyBytes, sha256.New)
	return hmac.Equal(got, want)
}

// NewSessionToken returns an opaque unguessable bearer token.
func NewSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
