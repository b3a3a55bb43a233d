package mptupdate

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zkmpt/mpt-circuit/constraint"
	"github.com/zkmpt/mpt-circuit/hash/poseidon"
	"github.com/zkmpt/mpt-circuit/lookup"
	"github.com/zkmpt/mpt-circuit/witness"
)

// Assign writes the rows for the given proofs into t, starting at row 0.
// Rows not covered by a proof are left as all-zero padding. Claims are
// validated and capacity-checked before anything is written; a witness that
// fails native re-verification aborts the assignment with a descriptive
// error, leaving the table unusable.
func (c *Config) Assign(t *constraint.Table, proofs []*witness.Proof) error {
	total := 0
	for i, p := range proofs {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("proof %d: %w", i, err)
		}
		total += p.NRows()
	}
	if total > t.NumRows() {
		return fmt.Errorf("%d rows of claims exceed the %d-row table", total, t.NumRows())
	}

	offset := 0
	for i, p := range proofs {
		if err := c.assignProof(t, offset, p); err != nil {
			return fmt.Errorf("proof %d: %w", i, err)
		}
		offset += p.NRows()
	}

	// The indicator gadgets read whatever the proof rows left in their value
	// columns, padding included.
	for row := 0; row < t.NumRows(); row++ {
		c.oldHashIsZero.Assign(t, row, t.Get(c.oldHash, row))
		c.newHashIsZero.Assign(t, row, t.Get(c.newHash, row))
		c.keyEqualsOtherKey.Assign(t, row, t.Get(c.key, row), t.Get(c.otherKey, row))
	}
	return nil
}

// otherLeaf resolves the type 1 witness columns for a proof: the key of the
// leaf occupying the claimed slot on whichever side diverges from the
// canonical key, or the canonical key itself when neither side does.
func otherLeaf(p *witness.Proof, key fr.Element) (otherKey, otherKeyHash, otherDataHash fr.Element, err error) {
	side := func(n witness.LeafNode, name string) (fr.Element, fr.Element, fr.Element, error) {
		if n.DataHash == nil {
			return fr.Element{}, fr.Element{}, fr.Element{}, fmt.Errorf("%s leaf diverges from the claimed key but has no data hash", name)
		}
		return n.Key, n.KeyHash, *n.DataHash, nil
	}
	switch {
	case !p.Old.Key.Equal(&key):
		if !p.New.Key.Equal(&key) && !p.New.Key.Equal(&p.Old.Key) {
			return fr.Element{}, fr.Element{}, fr.Element{}, fmt.Errorf("old and new leaves disagree on the key occupying the slot")
		}
		return side(p.Old, "old")
	case !p.New.Key.Equal(&key):
		return side(p.New, "new")
	}
	var data fr.Element
	if p.Old.DataHash != nil {
		data = *p.Old.DataHash
	}
	return key, poseidon.KeyMarker(key), data, nil
}

// pathKindOf classifies one authentication step.
func pathKindOf(s witness.Step) (PathKind, error) {
	switch {
	case s.PaddingOpen && s.PaddingClose:
		return PathStart, fmt.Errorf("step padded on both sides")
	case s.PaddingOpen:
		return PathExtensionNew, nil
	case s.PaddingClose:
		return PathExtensionOld, nil
	}
	return PathCommon, nil
}

// leafPathKindOf classifies the leaf block rows from the leaf-most step: a
// common walk whose final hash is empty on one side re-opens as an extension
// at the leaf.
func leafPathKindOf(final witness.Step) (PathKind, error) {
	kind, err := pathKindOf(final)
	if err != nil || kind != PathCommon {
		return kind, err
	}
	switch {
	case final.OldHash.IsZero() && !final.NewHash.IsZero():
		return PathExtensionNew, nil
	case !final.OldHash.IsZero() && final.NewHash.IsZero():
		return PathExtensionOld, nil
	}
	return PathCommon, nil
}

func checkParent(childHash, sibling fr.Element, direction bool, parent fr.Element, side string, depth int) error {
	left, right := childHash, sibling
	if direction {
		left, right = sibling, childHash
	}
	if h := poseidon.Node(left, right); !h.Equal(&parent) {
		return fmt.Errorf("%s step at depth %d does not hash to its parent", side, depth)
	}
	return nil
}

func (c *Config) assignProof(t *constraint.Table, base int, p *witness.Proof) error {
	key := witness.AccountKey(p.Claim.Address)
	otherKey, otherKeyHash, otherDataHash, err := otherLeaf(p, key)
	if err != nil {
		return err
	}

	n := len(p.Steps)
	leafRows := p.LeafRows()
	if leafRows > 0 && n == 0 {
		return fmt.Errorf("claim touches a leaf but carries no authentication path")
	}

	// Claim-wide columns repeat on every row of the proof.
	address := witness.AddressToField(p.Claim.Address)
	for row := base; row < base+p.NRows(); row++ {
		c.proofKind.Assign(t, row, p.Claim.Kind)
		c.address.Assign(t, row, address)
		c.storageKey.Assign(t, row, p.Claim.StorageKey)
		c.oldValue.Assign(t, row, p.Claim.OldValue)
		c.newValue.Assign(t, row, p.Claim.NewValue)
		c.otherKey.Assign(t, row, otherKey)
		c.otherKeyHash.Assign(t, row, otherKeyHash)
		c.otherLeafDataHash.Assign(t, row, otherDataHash)
	}

	c.segment.Assign(t, base, SegmentStart)
	c.path.Assign(t, base, PathStart)
	c.oldHash.Assign(t, base, p.Claim.OldRoot)
	c.newHash.Assign(t, base, p.Claim.NewRoot)

	// Walk the steps root to leaf, re-verifying every hash and direction bit
	// natively so a corrupted witness fails here with a name instead of at
	// the constraint check.
	expOld, expNew := p.Claim.OldRoot, p.Claim.NewRoot
	for j := 0; j < n; j++ {
		s := p.Steps[n-1-j]
		depth := j + 1
		row := base + depth

		kind, err := pathKindOf(s)
		if err != nil {
			return fmt.Errorf("depth %d: %w", depth, err)
		}
		if s.Direction != lookup.Bit(key, j) {
			return fmt.Errorf("step direction at depth %d does not match the claimed key", depth)
		}
		switch kind {
		case PathCommon:
			if s.Direction != lookup.Bit(otherKey, j) {
				return fmt.Errorf("step direction at depth %d does not match the occupying key", depth)
			}
			if err := checkParent(s.OldHash, s.Sibling, s.Direction, expOld, "old", depth); err != nil {
				return err
			}
			if err := checkParent(s.NewHash, s.Sibling, s.Direction, expNew, "new", depth); err != nil {
				return err
			}
		case PathExtensionNew:
			if !s.OldHash.Equal(&expOld) {
				return fmt.Errorf("old hash not frozen across the padded step at depth %d", depth)
			}
			if err := checkParent(s.NewHash, s.Sibling, s.Direction, expNew, "new", depth); err != nil {
				return err
			}
		case PathExtensionOld:
			if !s.NewHash.Equal(&expNew) {
				return fmt.Errorf("new hash not frozen across the padded step at depth %d", depth)
			}
			if err := checkParent(s.OldHash, s.Sibling, s.Direction, expOld, "old", depth); err != nil {
				return err
			}
		}
		expOld, expNew = s.OldHash, s.NewHash

		c.segment.Assign(t, row, SegmentAccountTrie)
		c.path.Assign(t, row, kind)
		c.depth.AssignUint64(t, row, uint64(depth))
		c.key.Assign(t, row, key)
		c.direction.AssignBool(t, row, s.Direction)
		c.sibling.Assign(t, row, s.Sibling)
		c.oldHash.Assign(t, row, s.OldHash)
		c.newHash.Assign(t, row, s.NewHash)
	}

	if leafRows == 0 {
		return nil
	}
	return c.assignLeafBlock(t, base+1+n, p, key, expOld, expNew)
}

func (c *Config) assignLeafBlock(t *constraint.Table, row int, p *witness.Proof, key, oldLeafHash, newLeafHash fr.Element) error {
	final := p.Steps[0]
	leafPath, err := leafPathKindOf(final)
	if err != nil {
		return err
	}

	keyHash := poseidon.KeyMarker(key)
	kind := p.Claim.Kind

	var oldHashes, oldSiblings [4]fr.Element
	var newHashes, newSiblings [4]fr.Element
	if leafPath != PathExtensionNew {
		if p.OldAccount == nil {
			return fmt.Errorf("old account missing for a claim whose old side is present")
		}
		if leaf := poseidon.Leaf(key, p.OldAccount.DataHash()); !leaf.Equal(&oldLeafHash) {
			return fmt.Errorf("decoded old account does not hash to the old leaf")
		}
		if oldHashes, err = p.OldAccount.LeafRowHashes(kind); err != nil {
			return err
		}
		if oldSiblings, err = p.OldAccount.LeafRowSiblings(kind, keyHash); err != nil {
			return err
		}
	}
	if leafPath != PathExtensionOld {
		if p.NewAccount == nil {
			return fmt.Errorf("new account missing for a claim whose new side is present")
		}
		if leaf := poseidon.Leaf(key, p.NewAccount.DataHash()); !leaf.Equal(&newLeafHash) {
			return fmt.Errorf("decoded new account does not hash to the new leaf")
		}
		if newHashes, err = p.NewAccount.LeafRowHashes(kind); err != nil {
			return err
		}
		if newSiblings, err = p.NewAccount.LeafRowSiblings(kind, keyHash); err != nil {
			return err
		}
	}

	directions, err := witness.LeafRowDirections(kind)
	if err != nil {
		return err
	}
	segments := [4]SegmentKind{SegmentAccountLeaf0, SegmentAccountLeaf1, SegmentAccountLeaf2, SegmentAccountLeaf3}

	for i := 0; i < 4; i++ {
		c.segment.Assign(t, row+i, segments[i])
		c.path.Assign(t, row+i, leafPath)
		c.direction.AssignBool(t, row+i, directions[i])

		switch leafPath {
		case PathExtensionNew:
			// Old side is empty or occupied by another leaf; its hash column
			// stays frozen through the block.
			c.oldHash.Assign(t, row+i, oldLeafHash)
			c.newHash.Assign(t, row+i, newHashes[i])
			c.sibling.Assign(t, row+i, newSiblings[i])
		case PathExtensionOld:
			c.newHash.Assign(t, row+i, newLeafHash)
			c.oldHash.Assign(t, row+i, oldHashes[i])
			c.sibling.Assign(t, row+i, oldSiblings[i])
		default:
			if !oldSiblings[i].Equal(&newSiblings[i]) {
				return fmt.Errorf("leaf row %d siblings differ between the old and new account", i)
			}
			c.oldHash.Assign(t, row+i, oldHashes[i])
			c.newHash.Assign(t, row+i, newHashes[i])
			c.sibling.Assign(t, row+i, oldSiblings[i])
		}
	}
	c.upperAddressBits.Assign(t, row, witness.AddressHigh(p.Claim.Address))
	return nil
}
