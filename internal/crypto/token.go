package crypto

import (
	"crypto/rand"
	"math/big"
)

const (
	tokenChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// SessionTokenLength gives roughly 285 bits of entropy.
	SessionTokenLength = 48
)

// NewSessionToken returns a cryptographically random alphanumeric token.
func NewSessionToken() (string, error) {
	result := make([]byte, SessionTokenLength)
	for i := range result {
		ch, err := randChar(tokenChars)
		if err != nil {
			return "", err
		}
		result[i] = ch
	}
	return string(result), nil
}

// randChar picks a random character from charset using crypto/rand.
func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}
