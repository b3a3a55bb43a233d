package witness

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
)

// Claim is the externally asserted fact being proven: the trie root moved
// from OldRoot to NewRoot because one value belonging to Address changed from
// OldValue to NewValue. It is immutable once constructed.
type Claim struct {
	Kind       ProofKind
	Address    common.Address
	StorageKey fr.Element
	OldRoot    fr.Element
	NewRoot    fr.Element
	OldValue   fr.Element
	NewValue   fr.Element
}

// Step is one depth of the authentication path. Steps are stored leaf to
// root and consumed root to leaf. PaddingOpen marks that the old side already
// terminated above this depth, PaddingClose the same for the new side.
type Step struct {
	Direction    bool
	OldHash      fr.Element
	NewHash      fr.Element
	Sibling      fr.Element
	PaddingOpen  bool
	PaddingClose bool
}

// LeafNode describes the terminal of one side of the walk: the key of the
// leaf occupying the slot (or the canonical key when the slot is empty), its
// key marker hash H(1, key), and the leaf's data hash, nil when the side is
// empty.
type LeafNode struct {
	Key      fr.Element
	KeyHash  fr.Element
	DataHash *fr.Element
}

// Proof bundles a claim with its decoded witness: the authentication steps,
// the terminal leaf records on both sides, and the decoded accounts where a
// side holds the claimed address.
type Proof struct {
	Claim      Claim
	Steps      []Step
	Old        LeafNode
	New        LeafNode
	OldAccount *Account
	NewAccount *Account
}

// LeafRows returns how many account leaf rows the proof occupies: zero when
// both sides resolve to the empty subtree, four otherwise. With no trie steps
// the leaf (if any) sits directly under the root.
func (p *Proof) LeafRows() int {
	oldHash, newHash := p.Claim.OldRoot, p.Claim.NewRoot
	if len(p.Steps) > 0 {
		final := p.Steps[0]
		oldHash, newHash = final.OldHash, final.NewHash
	}
	if oldHash.IsZero() && newHash.IsZero() {
		return 0
	}
	return 4
}

// NRows returns the total number of rows the proof occupies: one start row,
// one row per authentication step, plus the leaf block.
func (p *Proof) NRows() int {
	return 1 + len(p.Steps) + p.LeafRows()
}

// Validate checks the claim's values against the decoded accounts. It does
// not re-walk the authentication path; the row assigner does that.
func (p *Proof) Validate() error {
	if !p.Claim.Kind.Supported() {
		return fmt.Errorf("unimplemented proof kind %s", p.Claim.Kind)
	}
	check := func(side string, acct *Account, value fr.Element) error {
		var want fr.Element
		if acct != nil {
			switch p.Claim.Kind {
			case NonceChanged:
				want.SetUint64(acct.Nonce)
			case BalanceChanged:
				want = acct.Balance
			}
		}
		if !value.Equal(&want) {
			return fmt.Errorf("%s value does not match the decoded %s account", side, side)
		}
		return nil
	}
	if err := check("old", p.OldAccount, p.Claim.OldValue); err != nil {
		return err
	}
	return check("new", p.NewAccount, p.Claim.NewValue)
}
