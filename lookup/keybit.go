package lookup

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// KeyBit is the bit-decomposition relation (key, index, bit): bit equals bit
// number index of key's canonical integer representation, least significant
// bit first.
type KeyBit struct{}

// Name implements constraint.Oracle.
func (KeyBit) Name() string { return "key_bit" }

// Contains reports whether the tuple is in the relation. Indices at or beyond
// the field's bit length are rejected.
func (KeyBit) Contains(values []fr.Element) bool {
	if len(values) != 3 {
		return false
	}
	key, index, bit := values[0], values[1], values[2]
	idx := index.BigInt(new(big.Int))
	if !idx.IsUint64() || idx.Uint64() >= uint64(fr.Bits) {
		return false
	}
	b := bit.BigInt(new(big.Int))
	if !b.IsUint64() || b.Uint64() > 1 {
		return false
	}
	canonical := key.BigInt(new(big.Int))
	return canonical.Bit(int(idx.Uint64())) == uint(b.Uint64())
}

// Bit returns bit number index of key's canonical representation. The row
// assigner uses it to derive direction values consistent with the relation.
func Bit(key fr.Element, index int) bool {
	return key.BigInt(new(big.Int)).Bit(index) == 1
}
