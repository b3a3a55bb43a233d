// Package mpt provides in-circuit verifiers for the sparse account trie: a
// leaf is H(H(1, key), dataHash), an interior node is H(left, right), and the
// key's bits pick the child per level, least significant bit at the root.
package mpt

import (
	"github.com/consensys/gnark/frontend"

	"github.com/zkmpt/mpt-circuit/utils"
)

// KeyMarker returns H(1, key), the presence marker hashed next to a leaf's
// data hash.
func KeyMarker(api frontend.API, hFn utils.Hasher, key frontend.Variable) (frontend.Variable, error) {
	return hFn(api, 1, key)
}

// LeafHash returns H(H(1, key), dataHash).
func LeafHash(api frontend.API, hFn utils.Hasher, key, dataHash frontend.Variable) (frontend.Variable, error) {
	marker, err := KeyMarker(api, hFn, key)
	if err != nil {
		return 0, err
	}
	return hFn(api, marker, dataHash)
}

// rebuildRoot hashes a leaf back up to the root. siblings[i] is the sibling
// of the path node at depth i+1, root first, and enabled[i] is 1 while the
// path occupies that level. Zero is a legal sibling value (the hash of an
// empty subtree), so occupancy cannot be inferred from the siblings
// themselves; callers constrain enabled via checkEnabled.
func rebuildRoot(api frontend.API, hFn utils.Hasher, key, leaf frontend.Variable,
	siblings, enabled []frontend.Variable,
) (frontend.Variable, error) {
	path := api.ToBinary(key, api.Compiler().FieldBitLen())
	current := leaf
	for i := len(siblings) - 1; i >= 0; i-- {
		// path bit 1 sends the path node right
		l := api.Select(path[i], siblings[i], current)
		r := api.Select(path[i], current, siblings[i])
		up, err := hFn(api, l, r)
		if err != nil {
			return 0, err
		}
		current = api.Select(enabled[i], up, current)
	}
	return current, nil
}

// checkEnabled constrains the level mask: every entry is boolean and the mask
// is monotone, so the occupied levels form a prefix and the disabled tail is
// skipped by the walk.
func checkEnabled(api frontend.API, enabled []frontend.Variable) {
	for i, e := range enabled {
		api.AssertIsBoolean(e)
		if i > 0 {
			// enabled[i] implies enabled[i-1]
			api.AssertIsEqual(api.Mul(e, api.Sub(1, enabled[i-1])), 0)
		}
	}
}

// CheckInclusionProof asserts that a leaf holding dataHash under key sits in
// the trie with the given root.
func CheckInclusionProof(api frontend.API, hFn utils.Hasher, key, dataHash, root frontend.Variable,
	siblings, enabled []frontend.Variable,
) error {
	checkEnabled(api, enabled)
	leaf, err := LeafHash(api, hFn, key, dataHash)
	if err != nil {
		return err
	}
	computed, err := rebuildRoot(api, hFn, key, leaf, siblings, enabled)
	if err != nil {
		return err
	}
	api.AssertIsEqual(computed, root)
	return nil
}

// CheckUpdateProof asserts that replacing the data hash under key turns
// oldRoot into newRoot. Both walks share the siblings and the level mask,
// which is exactly the claim of an update along a common path.
func CheckUpdateProof(api frontend.API, hFn utils.Hasher, key, oldData, newData, oldRoot, newRoot frontend.Variable,
	siblings, enabled []frontend.Variable,
) error {
	checkEnabled(api, enabled)
	oldLeaf, err := LeafHash(api, hFn, key, oldData)
	if err != nil {
		return err
	}
	newLeaf, err := LeafHash(api, hFn, key, newData)
	if err != nil {
		return err
	}
	computedOld, err := rebuildRoot(api, hFn, key, oldLeaf, siblings, enabled)
	if err != nil {
		return err
	}
	computedNew, err := rebuildRoot(api, hFn, key, newLeaf, siblings, enabled)
	if err != nil {
		return err
	}
	api.AssertIsEqual(computedOld, oldRoot)
	api.AssertIsEqual(computedNew, newRoot)
	return nil
}
