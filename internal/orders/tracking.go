package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const trackingDigits = 10

var trackingModulus = new(big.Int).Exp(big.NewInt(10), big.NewInt(trackingDigits), nil)

// NewTrackingNumber returns "TRK" followed by ten random digits.
func NewTrackingNumber() (string, error) {
	n, err := rand.Int(rand.Reader, trackingModulus)
	if err != nil {
		return "", fmt.Errorf("generate tracking number: %w", err)
	}
	return fmt.Sprintf("TRK%0*d", trackingDigits, n), nil
}
