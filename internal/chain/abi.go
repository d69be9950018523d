package chain

import (
	"math/big"
)

const wordSize = 32

// Selector returns the 4 byte function selector of a canonical signature such
// as "balanceOf(address)".
func Selector(signature string) []byte {
	return Keccak256([]byte(signature))[:4]
}

func encodeUint(v *big.Int) []byte {
	w := make([]byte, wordSize)
	if v == nil {
		return w
	}
	v.FillBytes(w)
	return w
}

func encodeAddress(a Address) []byte {
	w := make([]byte, wordSize)
	copy(w[wordSize-len(a):], a[:])
	return w
}

func encodeBytesTail(b []byte) []byte {
	out := encodeUint(big.NewInt(int64(len(b))))
	padded := make([]byte, (len(b)+wordSize-1)/wordSize*wordSize)
	copy(padded, b)
	return append(out, padded...)
}

func decodeWord(b []byte) *big.Int {
	if len(b) > wordSize {
		b = b[:wordSize]
	}
	return new(big.Int).SetBytes(b)
}
