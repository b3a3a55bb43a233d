package testutil

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	qt "github.com/frankban/quicktest"

	"github.com/zkmpt/mpt-circuit/hash/poseidon"
	"github.com/zkmpt/mpt-circuit/witness"
)

func elem(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func populated() *Trie {
	tr := NewTrie()
	for i := 0; i < 5; i++ {
		tr.PutAccount(TestAddress(i), witness.Account{
			Nonce:   uint64(i),
			Balance: elem(uint64(10 * (i + 1))),
		})
	}
	return tr
}

func TestEmptyTrieRoot(t *testing.T) {
	c := qt.New(t)
	tr := NewTrie()
	root := tr.Root()
	c.Assert(root.Equal(&witness.EmptyNodeHash), qt.IsTrue)
}

func TestInsertOrderIndependence(t *testing.T) {
	c := qt.New(t)
	a := NewTrie()
	b := NewTrie()
	accounts := []witness.Account{{Nonce: 1}, {Nonce: 2}, {Nonce: 3}}
	for i, acct := range accounts {
		a.PutAccount(TestAddress(i), acct)
	}
	for i := len(accounts) - 1; i >= 0; i-- {
		b.PutAccount(TestAddress(i), accounts[i])
	}
	rootA, rootB := a.Root(), b.Root()
	c.Assert(rootA.Equal(&rootB), qt.IsTrue)
}

func TestUpdateIsPersistent(t *testing.T) {
	c := qt.New(t)
	tr := populated()
	before := tr.Root()

	proof, err := tr.UpdateNonce(TestAddress(1), 99)
	c.Assert(err, qt.IsNil)
	after := tr.Root()

	c.Assert(proof.Claim.OldRoot.Equal(&before), qt.IsTrue)
	c.Assert(proof.Claim.NewRoot.Equal(&after), qt.IsTrue)
	c.Assert(before.Equal(&after), qt.IsFalse)

	acct, ok := tr.Account(TestAddress(1))
	c.Assert(ok, qt.IsTrue)
	c.Assert(acct.Nonce, qt.Equals, uint64(99))
}

// re-walk the steps root to leaf the way the row assigner does
func verifySteps(c *qt.C, p *witness.Proof) {
	expOld, expNew := p.Claim.OldRoot, p.Claim.NewRoot
	for i := len(p.Steps) - 1; i >= 0; i-- {
		s := p.Steps[i]
		c.Assert(s.PaddingOpen && s.PaddingClose, qt.IsFalse)
		hashUp := func(child, sibling fr.Element) fr.Element {
			if s.Direction {
				return poseidon.Node(sibling, child)
			}
			return poseidon.Node(child, sibling)
		}
		if s.PaddingOpen {
			c.Assert(s.OldHash.Equal(&expOld), qt.IsTrue)
		} else {
			h := hashUp(s.OldHash, s.Sibling)
			c.Assert(h.Equal(&expOld), qt.IsTrue)
		}
		if s.PaddingClose {
			c.Assert(s.NewHash.Equal(&expNew), qt.IsTrue)
		} else {
			h := hashUp(s.NewHash, s.Sibling)
			c.Assert(h.Equal(&expNew), qt.IsTrue)
		}
		expOld, expNew = s.OldHash, s.NewHash
	}
}

func TestProofStepsHashToRoots(t *testing.T) {
	c := qt.New(t)
	tr := populated()

	proof, err := tr.UpdateBalance(TestAddress(3), elem(555))
	c.Assert(err, qt.IsNil)
	verifySteps(c, proof)

	// leaf-most hashes are the two leaf nodes
	final := proof.Steps[0]
	oldLeaf := poseidon.Leaf(witness.AccountKey(TestAddress(3)), proof.OldAccount.DataHash())
	newLeaf := poseidon.Leaf(witness.AccountKey(TestAddress(3)), proof.NewAccount.DataHash())
	c.Assert(final.OldHash.Equal(&oldLeaf), qt.IsTrue)
	c.Assert(final.NewHash.Equal(&newLeaf), qt.IsTrue)
}

func TestCreateInEmptySlot(t *testing.T) {
	c := qt.New(t)
	tr := populated()
	addr := FindAddress(tr, SlotEmpty, 1000)

	proof, err := tr.UpdateNonce(addr, 7)
	c.Assert(err, qt.IsNil)
	c.Assert(proof.OldAccount, qt.IsNil)
	c.Assert(proof.Old.DataHash, qt.IsNil)
	key := witness.AccountKey(addr)
	c.Assert(proof.Old.Key.Equal(&key), qt.IsTrue)
	verifySteps(c, proof)
	c.Assert(tr.SlotOf(addr), qt.Equals, SlotOwn)
}

func TestCreateInOccupiedSlot(t *testing.T) {
	c := qt.New(t)
	tr := populated()
	addr := FindAddress(tr, SlotForeign, 1000)

	proof, err := tr.UpdateNonce(addr, 7)
	c.Assert(err, qt.IsNil)
	c.Assert(proof.OldAccount, qt.IsNil)
	c.Assert(proof.Old.DataHash, qt.IsNotNil)
	key := witness.AccountKey(addr)
	c.Assert(proof.Old.Key.Equal(&key), qt.IsFalse)
	verifySteps(c, proof)

	// the displaced leaf keeps its slot under the pushed-down subtree
	padded := 0
	for _, s := range proof.Steps {
		if s.PaddingOpen {
			padded++
		}
	}
	c.Assert(padded > 0, qt.IsTrue)
}

func TestSlotClassification(t *testing.T) {
	c := qt.New(t)
	tr := populated()
	c.Assert(tr.SlotOf(TestAddress(0)), qt.Equals, SlotOwn)

	empty := NewTrie()
	c.Assert(empty.SlotOf(TestAddress(0)), qt.Equals, SlotEmpty)
}
