package pets

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	ShortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ShortIDLength   = 6
)

var alphabetSize = big.NewInt(int64(len(ShortIDAlphabet)))

// NewShortID genera un identificador público aleatorio.
func NewShortID() (string, error) {
	var b strings.Builder
	b.Grow(ShortIDLength)
	for i := 0; i < ShortIDLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b.WriteByte(ShortIDAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeShortID pasa a mayúsculas y valida alfabeto y largo. "" si no es válido.
func NormalizeShortID(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != ShortIDLength {
		return ""
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(ShortIDAlphabet, s[i]) < 0 {
			return ""
		}
	}
	return s
}
