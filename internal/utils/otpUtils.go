package utils

import (
	"crypto/rand"
)

// GenerateSecureOTP returns a numeric one-time code of the given length,
// drawn from crypto/rand.
func GenerateSecureOTP(length int) (string, error) {
	const digits = "0123456789"
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	for i := 0; i < length; i++ {
		buffer[i] = digits[int(buffer[i])%len(digits)]
	}
	return string(buffer), nil
}
