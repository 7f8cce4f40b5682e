package types

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
)

// AddressHRP is the human readable part of bech32 encoded account addresses.
const AddressHRP = "doma"

// ParseAddress accepts either a 0x-prefixed hex address or a bech32 address
// with the doma prefix.
func ParseAddress(value string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return out, fmt.Errorf("address required")
	}
	if common.IsHexAddress(trimmed) {
		return common.HexToAddress(trimmed), nil
	}
	hrp, data, err := bech32.Decode(strings.ToLower(trimmed))
	if err != nil {
		return out, fmt.Errorf("invalid address %q", value)
	}
	if hrp != AddressHRP {
		return out, fmt.Errorf("decode bech32 address: unsupported hrp %q", hrp)
	}
	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return out, fmt.Errorf("decode bech32 address: %w", err)
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("decode bech32 address: invalid address length %d", len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

// HexAddress renders addr in EIP-55 checksummed hex.
func HexAddress(addr [20]byte) string {
	return common.Address(addr).Hex()
}

// Bech32Address renders addr with the doma prefix.
func Bech32Address(addr [20]byte) (string, error) {
	conv, err := bech32.ConvertBits(addr[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(AddressHRP, conv)
}
