package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// shortIDAlphabet is the character set for printable display codes
const shortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateShortID produces a display code like QR-7GK2ZX or BX-0F3QAB:
// the given prefix, a dash and 6 characters from the uppercase
// alphanumeric alphabet.
func GenerateShortID(prefix string) (string, error) {
	chars := make([]byte, 6)
	alphabetLen := big.NewInt(int64(len(shortIDAlphabet)))

	for i := range chars {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		chars[i] = shortIDAlphabet[n.Int64()]
	}

	return fmt.Sprintf("%s-%s", prefix, string(chars)), nil
}

// GenerateRandomToken returns length random bytes hex-encoded
func GenerateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateSessionID returns a unique session identifier
func GenerateSessionID() (string, error) {
	return GenerateRandomToken(32)
}
