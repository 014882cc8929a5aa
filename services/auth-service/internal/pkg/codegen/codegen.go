// Package codegen produces one-time numeric codes from crypto/rand.
package codegen

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generator returns a fresh code of the given length.
type Generator func(length int) (string, error)

var ten = big.NewInt(10)

// Numeric returns length uniformly random decimal digits.
func Numeric(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
