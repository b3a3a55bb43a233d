package witness

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"

	"github.com/zkmpt/mpt-circuit/hash/poseidon"
)

// EmptyNodeHash is the canonical hash of an empty subtree, the field's zero
// value. It never changes after initialization.
var EmptyNodeHash fr.Element

// AddressHigh returns the upper 16 bytes of the address as a field element.
func AddressHigh(addr common.Address) fr.Element {
	var e fr.Element
	e.SetBytes(addr[:16])
	return e
}

// AddressLow returns the lower 4 bytes of the address shifted to the top of
// a 128-bit limb, matching the split hashed into the account key.
func AddressLow(addr common.Address) fr.Element {
	var e fr.Element
	e.SetBytes(addr[16:])
	var shift fr.Element
	shift.SetUint64(1)
	for i := 0; i < 3; i++ {
		var c fr.Element
		c.SetUint64(1 << 32)
		shift.Mul(&shift, &c)
	}
	e.Mul(&e, &shift)
	return e
}

// AddressToField packs the 20 address bytes into one field element,
// big-endian.
func AddressToField(addr common.Address) fr.Element {
	var e fr.Element
	e.SetBytes(addr[:])
	return e
}

// AccountKey derives the canonical trie key for an address:
// H(address_high, address_low).
func AccountKey(addr common.Address) fr.Element {
	return poseidon.Hash(AddressHigh(addr), AddressLow(addr))
}
