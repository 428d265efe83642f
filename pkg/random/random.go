package random

import (
	"crypto/rand"
	"encoding/hex"
)

const digitCharset = "0123456789"

// GenerateOTP returns a fixed-length numeric code from crypto/rand.
func GenerateOTP(length int) (string, error) {
	code := make([]byte, length)
	if _, err := rand.Read(code); err != nil {
		return "", err
	}

	for i := 0; i < length; i++ {
		code[i] = digitCharset[int(code[i])%len(digitCharset)]
	}

	return string(code), nil
}

// GenerateToken returns 2n lowercase hex characters of entropy. Used
// for scan tokens, which must be unguessable.
func GenerateToken(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return hex.EncodeToString(byt), nil
}
