package helpers

import (
	"encoding/hex"
	"errors"
	"strings"
)

const suiAddressHexLen = 64

var ErrInvalidAddress = errors.New("invalid sui address")

// ParseSuiAddress validates a hex account address and returns it in the
// canonical form: lower-case, 0x-prefixed, left-padded to 32 bytes.
func ParseSuiAddress(s string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(s))
	a = strings.TrimPrefix(a, "0x")
	if a == "" || len(a) > suiAddressHexLen {
		return "", ErrInvalidAddress
	}
	a = strings.Repeat("0", suiAddressHexLen-len(a)) + a
	if _, err := hex.DecodeString(a); err != nil {
		return "", ErrInvalidAddress
	}
	return "0x" + a, nil
}

// ShortAddress renders an address as 0x1234...abcd for display.
func ShortAddress(address string) string {
	if len(address) <= 14 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
