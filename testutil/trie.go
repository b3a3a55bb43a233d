// Package testutil provides an in-memory account trie for exercising the
// update circuit: a persistent poseidon-hashed binary trie with leaf pushdown
// that produces the claim, step and leaf witnesses for every update applied
// to it.
package testutil

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"

	"github.com/zkmpt/mpt-circuit/hash/poseidon"
	"github.com/zkmpt/mpt-circuit/lookup"
	"github.com/zkmpt/mpt-circuit/witness"
)

type trieNode struct {
	leaf        bool
	key         fr.Element
	data        fr.Element
	left, right *trieNode
}

func internal(n *trieNode) bool { return n != nil && !n.leaf }

func hashNode(n *trieNode) fr.Element {
	if n == nil {
		return witness.EmptyNodeHash
	}
	if n.leaf {
		return poseidon.Leaf(n.key, n.data)
	}
	return poseidon.Node(hashNode(n.left), hashNode(n.right))
}

// insertNode copies the path from the root to the slot of key, leaving every
// off-path subtree shared with the previous version. A collision with a
// foreign leaf pushes both leaves down to their first diverging bit.
func insertNode(n *trieNode, key, data fr.Element, depth int) *trieNode {
	put := &trieNode{leaf: true, key: key, data: data}
	if n == nil {
		return put
	}
	if n.leaf {
		if n.key.Equal(&key) {
			return put
		}
		return mergeLeaves(n, put, depth)
	}
	cp := &trieNode{left: n.left, right: n.right}
	if lookup.Bit(key, depth) {
		cp.right = insertNode(n.right, key, data, depth+1)
	} else {
		cp.left = insertNode(n.left, key, data, depth+1)
	}
	return cp
}

func mergeLeaves(a, b *trieNode, depth int) *trieNode {
	n := &trieNode{}
	abit, bbit := lookup.Bit(a.key, depth), lookup.Bit(b.key, depth)
	switch {
	case abit == bbit:
		child := mergeLeaves(a, b, depth+1)
		if abit {
			n.right = child
		} else {
			n.left = child
		}
	case abit:
		n.right, n.left = a, b
	default:
		n.left, n.right = a, b
	}
	return n
}

// Trie is an account trie snapshot plus the decoded accounts behind its
// leaves. Updates return the proof of the transition they caused.
type Trie struct {
	root     *trieNode
	accounts map[common.Address]witness.Account
}

func NewTrie() *Trie {
	return &Trie{accounts: make(map[common.Address]witness.Account)}
}

// Root returns the current root hash, zero for the empty trie.
func (tr *Trie) Root() fr.Element {
	return hashNode(tr.root)
}

// PutAccount stores an account without producing a proof. Fixture setup only.
func (tr *Trie) PutAccount(addr common.Address, acct witness.Account) {
	tr.accounts[addr] = acct
	tr.root = insertNode(tr.root, witness.AccountKey(addr), acct.DataHash(), 0)
}

// Account returns the decoded account at addr and whether it exists.
func (tr *Trie) Account(addr common.Address) (witness.Account, bool) {
	acct, ok := tr.accounts[addr]
	return acct, ok
}

// UpdateNonce sets the account's nonce, creating the account when absent, and
// returns the proof of the root transition.
func (tr *Trie) UpdateNonce(addr common.Address, nonce uint64) (*witness.Proof, error) {
	return tr.update(addr, witness.NonceChanged, func(a *witness.Account) {
		a.Nonce = nonce
	})
}

// UpdateBalance sets the account's balance, creating the account when absent,
// and returns the proof of the root transition.
func (tr *Trie) UpdateBalance(addr common.Address, balance fr.Element) (*witness.Proof, error) {
	return tr.update(addr, witness.BalanceChanged, func(a *witness.Account) {
		a.Balance = balance
	})
}

func claimValue(kind witness.ProofKind, acct *witness.Account) (fr.Element, error) {
	var v fr.Element
	if acct == nil {
		return v, nil
	}
	switch kind {
	case witness.NonceChanged:
		v.SetUint64(acct.Nonce)
	case witness.BalanceChanged:
		v = acct.Balance
	default:
		return v, fmt.Errorf("no claim value for proof kind %s", kind)
	}
	return v, nil
}

func (tr *Trie) update(addr common.Address, kind witness.ProofKind, mutate func(*witness.Account)) (*witness.Proof, error) {
	key := witness.AccountKey(addr)
	oldRootNode := tr.root
	oldRoot := hashNode(oldRootNode)

	var oldAcct *witness.Account
	newAcct := witness.Account{}
	if a, ok := tr.accounts[addr]; ok {
		cp := a
		oldAcct = &cp
		newAcct = a
	}
	mutate(&newAcct)

	tr.accounts[addr] = newAcct
	tr.root = insertNode(tr.root, key, newAcct.DataHash(), 0)
	newRoot := hashNode(tr.root)

	oldValue, err := claimValue(kind, oldAcct)
	if err != nil {
		return nil, err
	}
	newValue, err := claimValue(kind, &newAcct)
	if err != nil {
		return nil, err
	}

	steps, oldLeaf, newLeaf := buildSteps(oldRootNode, tr.root, key)
	return &witness.Proof{
		Claim: witness.Claim{
			Kind:     kind,
			Address:  addr,
			OldRoot:  oldRoot,
			NewRoot:  newRoot,
			OldValue: oldValue,
			NewValue: newValue,
		},
		Steps:      steps,
		Old:        oldLeaf,
		New:        newLeaf,
		OldAccount: oldAcct,
		NewAccount: &newAcct,
	}, nil
}

// buildSteps walks both snapshots along the key's bits until neither side has
// an interior node left, recording per depth the child hash, the sibling hash
// and which side (if any) already terminated. Steps come back leaf to root.
func buildSteps(oldN, newN *trieNode, key fr.Element) ([]witness.Step, witness.LeafNode, witness.LeafNode) {
	var down []witness.Step
	for depth := 0; internal(oldN) || internal(newN); depth++ {
		dir := lookup.Bit(key, depth)
		s := witness.Step{Direction: dir}
		if internal(oldN) {
			child, sib := oldN.left, oldN.right
			if dir {
				child, sib = oldN.right, oldN.left
			}
			s.OldHash = hashNode(child)
			s.Sibling = hashNode(sib)
			oldN = child
		} else {
			s.OldHash = hashNode(oldN)
			s.PaddingOpen = true
		}
		if internal(newN) {
			child, sib := newN.left, newN.right
			if dir {
				child, sib = newN.right, newN.left
			}
			s.NewHash = hashNode(child)
			s.Sibling = hashNode(sib)
			newN = child
		} else {
			s.NewHash = hashNode(newN)
			s.PaddingClose = true
		}
		down = append(down, s)
	}
	steps := make([]witness.Step, len(down))
	for i := range down {
		steps[i] = down[len(down)-1-i]
	}
	return steps, leafRecord(oldN, key), leafRecord(newN, key)
}

func leafRecord(n *trieNode, key fr.Element) witness.LeafNode {
	if n == nil {
		return witness.LeafNode{Key: key, KeyHash: poseidon.KeyMarker(key)}
	}
	data := n.data
	return witness.LeafNode{Key: n.key, KeyHash: poseidon.KeyMarker(n.key), DataHash: &data}
}

// SlotKind classifies where an address's key lands in the current trie.
type SlotKind int

const (
	// SlotOwn means the walk ends at the address's own leaf.
	SlotOwn SlotKind = iota
	// SlotEmpty means the walk ends at an empty subtree.
	SlotEmpty
	// SlotForeign means the walk ends at another account's leaf.
	SlotForeign
)

// SlotOf walks the trie along addr's key and classifies the terminal.
func (tr *Trie) SlotOf(addr common.Address) SlotKind {
	key := witness.AccountKey(addr)
	n := tr.root
	for depth := 0; internal(n); depth++ {
		if lookup.Bit(key, depth) {
			n = n.right
		} else {
			n = n.left
		}
	}
	if n == nil {
		return SlotEmpty
	}
	if n.key.Equal(&key) {
		return SlotOwn
	}
	return SlotForeign
}

// TestAddress returns a deterministic address for fixture account i.
func TestAddress(i int) common.Address {
	return common.BigToAddress(big.NewInt(int64(i) + 1))
}

// FindAddress scans deterministic test addresses starting at from for one
// whose slot in tr has the wanted kind. Keys are pseudorandom hashes, so a
// match is always nearby; the scan bound only guards against a broken trie.
func FindAddress(tr *Trie, want SlotKind, from int) common.Address {
	for i := from; i < from+1_000_000; i++ {
		addr := TestAddress(i)
		if tr.SlotOf(addr) == want {
			return addr
		}
	}
	panic("no test address lands on the wanted slot kind")
}
