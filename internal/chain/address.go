// Package chain talks to EVM JSON-RPC nodes and encodes the few contract
// calls the dApp needs.
package chain

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

var ErrInvalidAddress = errors.New("invalid address")

// Address is a 20 byte EVM account address.
type Address [20]byte

// Keccak256 hashes the concatenation of data with the legacy Keccak padding
// used by Ethereum.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// ParseAddress accepts a 0x-prefixed hex address. Mixed-case input must carry
// a valid EIP-55 checksum; all-lower and all-upper input is accepted as is.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if len(s) != 42 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return a, ErrInvalidAddress
	}
	body := s[2:]
	b, err := hex.DecodeString(body)
	if err != nil {
		return a, ErrInvalidAddress
	}
	copy(a[:], b)
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if a.Hex() != "0x"+body {
			return Address{}, ErrInvalidAddress
		}
	}
	return a, nil
}

// MustAddress is ParseAddress for package-level literals.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic("chain: bad address literal " + s)
	}
	return a
}

// AddressFromPublicKey derives the address of an uncompressed secp256k1 key
// (65 bytes, 0x04 prefix).
func AddressFromPublicKey(uncompressed []byte) Address {
	var a Address
	if len(uncompressed) == 65 {
		uncompressed = uncompressed[1:]
	}
	copy(a[:], Keccak256(uncompressed)[12:])
	return a
}

func (a Address) IsZero() bool { return a == Address{} }

// Hex returns the EIP-55 checksummed form.
func (a Address) Hex() string {
	lower := hex.EncodeToString(a[:])
	hash := Keccak256([]byte(lower))
	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 32
		}
	}
	return "0x" + string(out)
}

func (a Address) String() string { return a.Hex() }

// Short renders 0x1234…abcd for compact display.
func (a Address) Short() string {
	h := a.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}
