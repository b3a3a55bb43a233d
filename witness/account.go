package witness

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zkmpt/mpt-circuit/hash/poseidon"
)

// Account is the decoded leaf record of an account. Its fields hash into a
// fixed chain that the leaf rows of the update circuit walk slot by slot:
//
//	h3   = H(code_size*2^64 + nonce, balance)
//	h2   = H(h3, storage_root)
//	h1   = H(h2, H(keccak_hi, keccak_lo))
//	leaf = H(H(1, key), h1)
type Account struct {
	Nonce       uint64
	CodeSize    uint64
	Balance     fr.Element
	StorageRoot fr.Element
	KeccakHigh  fr.Element
	KeccakLow   fr.Element
}

// twoTo64 is the packing shift between nonce and code size.
func twoTo64() fr.Element {
	var e, c fr.Element
	e.SetUint64(1 << 32)
	c.SetUint64(1 << 32)
	e.Mul(&e, &c)
	return e
}

// PackedNonce returns code_size*2^64 + nonce as one field element.
func (a *Account) PackedNonce() fr.Element {
	var cs, n fr.Element
	cs.SetUint64(a.CodeSize)
	n.SetUint64(a.Nonce)
	shift := twoTo64()
	cs.Mul(&cs, &shift)
	cs.Add(&cs, &n)
	return cs
}

// CodeHash returns H(keccak_hi, keccak_lo).
func (a *Account) CodeHash() fr.Element {
	return poseidon.Hash(a.KeccakHigh, a.KeccakLow)
}

func (a *Account) chain() (h1, h2, h3 fr.Element) {
	h3 = poseidon.Hash(a.PackedNonce(), a.Balance)
	h2 = poseidon.Hash(h3, a.StorageRoot)
	h1 = poseidon.Hash(h2, a.CodeHash())
	return h1, h2, h3
}

// DataHash returns the root of the account's field hash chain, the value
// stored under the leaf's key marker.
func (a *Account) DataHash() fr.Element {
	h1, _, _ := a.chain()
	return h1
}

// LeafRowHashes returns the hash-column values of the four account leaf rows
// for the given claim kind.
func (a *Account) LeafRowHashes(kind ProofKind) ([4]fr.Element, error) {
	h1, h2, h3 := a.chain()
	switch kind {
	case NonceChanged:
		return [4]fr.Element{h1, h2, h3, a.PackedNonce()}, nil
	case BalanceChanged:
		return [4]fr.Element{h1, h2, h3, a.Balance}, nil
	}
	return [4]fr.Element{}, fmt.Errorf("no account leaf layout for proof kind %s", kind)
}

// LeafRowSiblings returns the sibling-column values of the four account leaf
// rows for the given claim kind. keyHash is H(1, key) for the canonical key.
func (a *Account) LeafRowSiblings(kind ProofKind, keyHash fr.Element) ([4]fr.Element, error) {
	switch kind {
	case NonceChanged:
		return [4]fr.Element{keyHash, a.CodeHash(), a.StorageRoot, a.Balance}, nil
	case BalanceChanged:
		return [4]fr.Element{keyHash, a.CodeHash(), a.StorageRoot, a.PackedNonce()}, nil
	}
	return [4]fr.Element{}, fmt.Errorf("no account leaf layout for proof kind %s", kind)
}

// LeafRowDirections returns the direction-column values of the four account
// leaf rows for the given claim kind.
func LeafRowDirections(kind ProofKind) ([4]bool, error) {
	switch kind {
	case NonceChanged:
		return [4]bool{true, false, false, false}, nil
	case BalanceChanged:
		return [4]bool{true, false, false, true}, nil
	}
	return [4]bool{}, fmt.Errorf("no account leaf layout for proof kind %s", kind)
}
