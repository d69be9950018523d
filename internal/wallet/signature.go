package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"frodoestate/internal/chain"
)

var ErrBadSignature = errors.New("bad signature")

// HashPersonalMessage applies the EIP-191 personal_sign prefix and hashes.
func HashPersonalMessage(msg []byte) []byte {
	prefix := "\x19Ethereum Signed Message:\n" + strconv.Itoa(len(msg))
	return chain.Keccak256([]byte(prefix), msg)
}

// DecodeSignature parses a 65 byte r||s||v signature in hex.
func DecodeSignature(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil || len(b) != 65 {
		return nil, ErrBadSignature
	}
	return b, nil
}

// RecoverAddress returns the address that produced a personal_sign signature
// over msg.
func RecoverAddress(msg, sig []byte) (chain.Address, error) {
	if len(sig) != 65 {
		return chain.Address{}, ErrBadSignature
	}
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return chain.Address{}, ErrBadSignature
	}
	compact := make([]byte, 65)
	compact[0] = 27 + v
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, HashPersonalMessage(msg))
	if err != nil {
		return chain.Address{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return chain.AddressFromPublicKey(pub.SerializeUncompressed()), nil
}
