package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// CodeLength is the number of decimal digits in a verification code
	CodeLength = 6

	codeMin = 100000
	codeMax = 999999
)

// GenerateCode draws a 6-digit numeric code uniformly from [100000, 999999].
// Codes never start with a zero, which shrinks the space to 900,000 values;
// that trade-off is accepted in exchange for codes that survive copy/paste
// into free-text form fields without losing digits.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}
