package exam

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	AccessCodeLen      = 6
	accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O, 1/I
)

// NewAccessCode returns a random upper-case code students type to find an exam.
func NewAccessCode() (string, error) {
	var sb strings.Builder
	sb.Grow(AccessCodeLen)
	max := big.NewInt(int64(len(accessCodeAlphabet)))
	for i := 0; i < AccessCodeLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(accessCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeAccessCode makes lookups tolerant of case and stray whitespace.
func NormalizeAccessCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
