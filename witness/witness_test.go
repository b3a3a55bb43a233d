package witness

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/zkmpt/mpt-circuit/hash/poseidon"
)

func elem(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func testAccount() Account {
	return Account{
		Nonce:       7,
		CodeSize:    1234,
		Balance:     elem(1_000_000),
		StorageRoot: elem(55),
		KeccakHigh:  elem(0xdead),
		KeccakLow:   elem(0xbeef),
	}
}

func TestPackedNonce(t *testing.T) {
	c := qt.New(t)

	a := testAccount()
	var want, shift fr.Element
	want.SetUint64(a.CodeSize)
	shift.SetUint64(1 << 32)
	want.Mul(&want, &shift)
	want.Mul(&want, &shift)
	nonce := elem(a.Nonce)
	want.Add(&want, &nonce)
	packed := a.PackedNonce()
	c.Assert(packed.Equal(&want), qt.IsTrue)
}

func TestAccountHashChain(t *testing.T) {
	c := qt.New(t)

	a := testAccount()
	codeHash := poseidon.Hash(a.KeccakHigh, a.KeccakLow)
	h3 := poseidon.Hash(a.PackedNonce(), a.Balance)
	h2 := poseidon.Hash(h3, a.StorageRoot)
	h1 := poseidon.Hash(h2, codeHash)
	data := a.DataHash()
	c.Assert(data.Equal(&h1), qt.IsTrue)

	// the leaf rows walk the chain top down: each row's hash is the parent of
	// the next row's hash and that row's sibling
	key := elem(99)
	keyHash := poseidon.KeyMarker(key)
	hashes, err := a.LeafRowHashes(NonceChanged)
	c.Assert(err, qt.IsNil)
	siblings, err := a.LeafRowSiblings(NonceChanged, keyHash)
	c.Assert(err, qt.IsNil)
	directions, err := LeafRowDirections(NonceChanged)
	c.Assert(err, qt.IsNil)

	parent := poseidon.Leaf(key, a.DataHash())
	for i := 0; i < 4; i++ {
		l, r := hashes[i], siblings[i]
		if directions[i] {
			l, r = siblings[i], hashes[i]
		}
		h := poseidon.Node(l, r)
		c.Assert(h.Equal(&parent), qt.IsTrue, qt.Commentf("leaf row %d", i))
		parent = hashes[i]
	}
}

func TestLeafRowLayoutPerKind(t *testing.T) {
	c := qt.New(t)

	a := testAccount()
	keyHash := poseidon.KeyMarker(elem(1))

	nonceHashes, err := a.LeafRowHashes(NonceChanged)
	c.Assert(err, qt.IsNil)
	packed := a.PackedNonce()
	c.Assert(nonceHashes[3].Equal(&packed), qt.IsTrue)
	nonceSiblings, err := a.LeafRowSiblings(NonceChanged, keyHash)
	c.Assert(err, qt.IsNil)
	c.Assert(nonceSiblings[3].Equal(&a.Balance), qt.IsTrue)

	balanceHashes, err := a.LeafRowHashes(BalanceChanged)
	c.Assert(err, qt.IsNil)
	c.Assert(balanceHashes[3].Equal(&a.Balance), qt.IsTrue)
	balanceSiblings, err := a.LeafRowSiblings(BalanceChanged, keyHash)
	c.Assert(err, qt.IsNil)
	c.Assert(balanceSiblings[3].Equal(&packed), qt.IsTrue)

	_, err = a.LeafRowHashes(StorageChanged)
	c.Assert(err, qt.ErrorMatches, "no account leaf layout for proof kind storage_changed")
}

func TestAccountKeySplit(t *testing.T) {
	c := qt.New(t)

	addr := common.HexToAddress("0x00112233445566778899aabbccddeeff01234567")
	high := AddressHigh(addr)
	low := AddressLow(addr)
	key := AccountKey(addr)
	want := poseidon.Hash(high, low)
	c.Assert(key.Equal(&want), qt.IsTrue)

	// the packed address recombines as high*2^32 + low/2^96
	var shift32 fr.Element
	shift32.SetUint64(1 << 32)
	var recombined fr.Element
	recombined.Mul(&high, &shift32)
	var lowBytes fr.Element
	lowBytes.SetBytes(addr[16:])
	recombined.Add(&recombined, &lowBytes)
	packed := AddressToField(addr)
	c.Assert(packed.Equal(&recombined), qt.IsTrue)
}

func TestProofValidate(t *testing.T) {
	c := qt.New(t)

	a := testAccount()
	p := &Proof{
		Claim: Claim{
			Kind:     NonceChanged,
			OldValue: elem(a.Nonce),
			NewValue: elem(a.Nonce + 1),
		},
		OldAccount: &a,
	}
	updated := a
	updated.Nonce++
	p.NewAccount = &updated
	c.Assert(p.Validate(), qt.IsNil)

	p.Claim.NewValue = elem(a.Nonce + 2)
	c.Assert(p.Validate(), qt.ErrorMatches, "new value does not match the decoded new account")

	p.Claim.NewValue = elem(a.Nonce + 1)
	p.Claim.Kind = StorageChanged
	c.Assert(p.Validate(), qt.ErrorMatches, "unimplemented proof kind storage_changed")
}

func TestProofRowCounts(t *testing.T) {
	c := qt.New(t)

	empty := &Proof{}
	c.Assert(empty.LeafRows(), qt.Equals, 0)
	c.Assert(empty.NRows(), qt.Equals, 1)

	p := &Proof{Steps: []Step{{OldHash: elem(1), NewHash: elem(2)}, {OldHash: elem(3), NewHash: elem(4)}}}
	c.Assert(p.LeafRows(), qt.Equals, 4)
	c.Assert(p.NRows(), qt.Equals, 7)
}
