package twofactor

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// generateCode returns a zero-padded numeric code of exactly length digits,
// drawn uniformly from [10^(length-1), 10^length - 1] with crypto/rand.
func generateCode(length int) (string, error) {
	min := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	span := new(big.Int).Sub(max, min) // [min, max) — max-1 is the largest code

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	n.Add(n, min)
	return fmt.Sprintf("%0*d", length, n), nil
}
