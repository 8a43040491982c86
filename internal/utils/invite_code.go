package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// inviteAlphabet leaves out 0/O and 1/I so codes survive being read aloud
const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const inviteGroupLen = 4

// GenerateInviteCode returns a random code of the form XXXX-XXXX-XXXX
func GenerateInviteCode() (string, error) {
	buf := make([]byte, 3*inviteGroupLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	var b strings.Builder
	for i, v := range buf {
		if i > 0 && i%inviteGroupLen == 0 {
			b.WriteByte('-')
		}
		// 256 is a multiple of len(inviteAlphabet), so the modulo is unbiased
		b.WriteByte(inviteAlphabet[int(v)%len(inviteAlphabet)])
	}
	return b.String(), nil
}

// NormalizeInviteCode upper-cases a user supplied code and strips spaces
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}
