// Package poseidon wraps the native (witness-side) poseidon hash over the
// bn254 scalar field. The trie, the hash oracle and the account leaf encoding
// all hash through here so that every component agrees on the same relation.
package poseidon

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/iden3/go-iden3-crypto/poseidon"
)

// Hash returns poseidon(inputs...) as a field element. It panics on a hashing
// error, which can only happen when the input count exceeds the permutation
// width; callers in this module always hash two or three elements.
func Hash(inputs ...fr.Element) fr.Element {
	elems := make([]*big.Int, len(inputs))
	for i := range inputs {
		elems[i] = inputs[i].BigInt(new(big.Int))
	}
	sum, err := poseidon.Hash(elems)
	if err != nil {
		panic(err)
	}
	var out fr.Element
	out.SetBigInt(sum)
	return out
}

// Node returns the hash of an interior trie node with children l and r.
func Node(l, r fr.Element) fr.Element {
	return Hash(l, r)
}

// KeyMarker returns H(1, key), the leaf-presence marker stored as the sibling
// of a leaf's data hash.
func KeyMarker(key fr.Element) fr.Element {
	var one fr.Element
	one.SetOne()
	return Hash(one, key)
}

// Leaf returns the hash of a leaf node holding dataHash under key:
// H(H(1, key), dataHash).
func Leaf(key, dataHash fr.Element) fr.Element {
	return Hash(KeyMarker(key), dataHash)
}
