package lookup

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	qt "github.com/frankban/quicktest"

	"github.com/zkmpt/mpt-circuit/hash/poseidon"
)

func elem(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func TestPoseidonOracle(t *testing.T) {
	c := qt.New(t)
	o := Poseidon{}

	l, r := elem(3), elem(4)
	h := poseidon.Hash(l, r)
	c.Assert(o.Contains([]fr.Element{l, r, h}), qt.IsTrue)
	c.Assert(o.Contains([]fr.Element{l, r, elem(5)}), qt.IsFalse)
	c.Assert(o.Contains([]fr.Element{r, l, h}), qt.IsFalse)

	// the gated all-zero tuple is always in the relation
	c.Assert(o.Contains([]fr.Element{{}, {}, {}}), qt.IsTrue)
	c.Assert(o.Contains([]fr.Element{l, r}), qt.IsFalse)
}

func TestKeyBitOracle(t *testing.T) {
	c := qt.New(t)
	o := KeyBit{}

	key := elem(0b1010)
	c.Assert(o.Contains([]fr.Element{key, elem(0), elem(0)}), qt.IsTrue)
	c.Assert(o.Contains([]fr.Element{key, elem(1), elem(1)}), qt.IsTrue)
	c.Assert(o.Contains([]fr.Element{key, elem(3), elem(1)}), qt.IsTrue)
	c.Assert(o.Contains([]fr.Element{key, elem(4), elem(0)}), qt.IsTrue)
	c.Assert(o.Contains([]fr.Element{key, elem(1), elem(0)}), qt.IsFalse)

	// indices past the field's bit length are out of the relation
	c.Assert(o.Contains([]fr.Element{key, elem(uint64(fr.Bits)), elem(0)}), qt.IsFalse)
	// a non-boolean bit value never matches
	c.Assert(o.Contains([]fr.Element{key, elem(1), elem(2)}), qt.IsFalse)

	c.Assert(Bit(key, 1), qt.IsTrue)
	c.Assert(Bit(key, 2), qt.IsFalse)
}

func TestByteRangeOracle(t *testing.T) {
	c := qt.New(t)
	o := ByteRange{}

	// n+1 bytes: n = 0 admits values up to 255
	c.Assert(o.Contains([]fr.Element{elem(255), elem(0)}), qt.IsTrue)
	c.Assert(o.Contains([]fr.Element{elem(256), elem(0)}), qt.IsFalse)
	c.Assert(o.Contains([]fr.Element{elem(256), elem(1)}), qt.IsTrue)
	c.Assert(o.Contains([]fr.Element{elem(0), elem(0)}), qt.IsTrue)

	// the 8-byte boundary used for nonce and code size checks
	c.Assert(o.Contains([]fr.Element{elem(1<<63 + 5), elem(7)}), qt.IsTrue)
	var tooBig fr.Element
	tooBig.SetUint64(1)
	shift := elem(1 << 32)
	tooBig.Mul(&tooBig, &shift)
	tooBig.Mul(&tooBig, &shift)
	c.Assert(o.Contains([]fr.Element{tooBig, elem(7)}), qt.IsFalse)

	// n is capped below the field size in bytes
	c.Assert(o.Contains([]fr.Element{elem(1), elem(32)}), qt.IsFalse)
	c.Assert(o.Contains([]fr.Element{elem(1), elem(31)}), qt.IsTrue)
}
