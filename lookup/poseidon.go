// Package lookup implements the read-only oracle relations consumed by the
// update circuit: the poseidon hash relation, the key-bit relation and the
// byte-range relation. Oracles are predicates over tuples of field elements;
// gated lookups zero their queries on disabled rows, so each relation also
// contains the all-zeros tuple.
package lookup

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zkmpt/mpt-circuit/hash/poseidon"
)

// Poseidon is the hash-consistency relation (left, right, H(left, right)).
type Poseidon struct{}

// Name implements constraint.Oracle.
func (Poseidon) Name() string { return "poseidon" }

// Contains reports whether h == poseidon(l, r). The all-zeros tuple is in the
// relation by convention: it is produced by disabled rows, and zero is also
// the canonical hash of an empty subtree.
func (Poseidon) Contains(values []fr.Element) bool {
	if len(values) != 3 {
		return false
	}
	l, r, h := values[0], values[1], values[2]
	if l.IsZero() && r.IsZero() && h.IsZero() {
		return true
	}
	sum := poseidon.Hash(l, r)
	return sum.Equal(&h)
}
