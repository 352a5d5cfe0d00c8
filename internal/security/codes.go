package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// GenerateVerificationCode returns a uniform random 6-digit numeric code.
func GenerateVerificationCode() (string, error) {
	// [100000, 999999]
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// GenerateInviteCode returns a 6-character uppercase hex invite code.
// 24 bits of entropy makes collisions unlikely, not impossible; the unique
// index on families.invite_code is the backstop.
func GenerateInviteCode() (string, error) {
	bytes := make([]byte, 3)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(bytes)), nil
}
