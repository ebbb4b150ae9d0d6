// Package auth provides credential hashing, bearer token handling and
// identity resolution.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Changing any of them invalidates every stored credential.
const (
	pbkdf2Iterations = 10000
	pbkdf2SaltLen    = 16
	pbkdf2KeyLen     = 32

	credentialLen = pbkdf2SaltLen + pbkdf2KeyLen
)

// MinPasswordLength is the shortest accepted plaintext password.
const MinPasswordLength = 6

// ErrPasswordTooShort indicates a password below MinPasswordLength.
var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

// HashPassword derives a PBKDF2-HMAC-SHA256 credential for the password.
// The result is the standard base64 encoding of salt || key. A fresh salt is
// drawn for every call.
func HashPassword(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	buf := make([]byte, 0, credentialLen)
	buf = append(buf, salt...)
	buf = append(buf, deriveKey(password, salt)...)

	return base64.StdEncoding.EncodeToString(buf), nil
}

// VerifyPassword reports whether password matches the stored credential.
// Malformed credentials verify as false.
func VerifyPassword(password, credential string) bool {
	raw, err := base64.StdEncoding.DecodeString(credential)
	if err != nil || len(raw) != credentialLen {
		return false
	}

	salt, expected := raw[:pbkdf2SaltLen], raw[pbkdf2SaltLen:]
	computed := deriveKey(password, salt)

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
}
