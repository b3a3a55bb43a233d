package lookup

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// ByteRange is the range relation (value, n): value's canonical
// representation fits in n+1 bytes.
type ByteRange struct{}

// Name implements constraint.Oracle.
func (ByteRange) Name() string { return "byte_range" }

// Contains reports whether the tuple is in the relation. n must be below 32,
// the field element width.
func (ByteRange) Contains(values []fr.Element) bool {
	if len(values) != 2 {
		return false
	}
	value, n := values[0], values[1]
	width := n.BigInt(new(big.Int))
	if !width.IsUint64() || width.Uint64() >= 32 {
		return false
	}
	canonical := value.BigInt(new(big.Int))
	return (canonical.BitLen()+7)/8 <= int(width.Uint64())+1
}
