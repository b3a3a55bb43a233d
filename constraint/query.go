package constraint

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Query is an algebraic expression over table cells. It is built at
// configuration time and evaluated at a concrete row offset once the table
// has been assigned. Rotations wrap around the table edge, matching the
// cyclic row layout of the downstream proving backend.
type Query struct {
	eval func(t *Table, row int) fr.Element
}

// Eval evaluates the expression at the given row of t.
func (q Query) Eval(t *Table, row int) fr.Element {
	return q.eval(t, row)
}

// Constant returns a query that always evaluates to v.
func Constant(v fr.Element) Query {
	return Query{eval: func(*Table, int) fr.Element { return v }}
}

// Value returns a constant query for a small unsigned integer.
func Value(v uint64) Query {
	var e fr.Element
	e.SetUint64(v)
	return Constant(e)
}

// Zero returns the constant 0 query.
func Zero() Query { return Value(0) }

// One returns the constant 1 query.
func One() Query { return Value(1) }

// Add returns q + r.
func (q Query) Add(r Query) Query {
	return Query{eval: func(t *Table, row int) fr.Element {
		a, b := q.eval(t, row), r.eval(t, row)
		var out fr.Element
		out.Add(&a, &b)
		return out
	}}
}

// Sub returns q - r.
func (q Query) Sub(r Query) Query {
	return Query{eval: func(t *Table, row int) fr.Element {
		a, b := q.eval(t, row), r.eval(t, row)
		var out fr.Element
		out.Sub(&a, &b)
		return out
	}}
}

// Mul returns q * r.
func (q Query) Mul(r Query) Query {
	return Query{eval: func(t *Table, row int) fr.Element {
		a, b := q.eval(t, row), r.eval(t, row)
		var out fr.Element
		out.Mul(&a, &b)
		return out
	}}
}

// MulConst returns q scaled by the constant c.
func (q Query) MulConst(c fr.Element) Query {
	return q.Mul(Constant(c))
}

// Not returns 1 - q. The argument must be boolean-valued for the result to
// be its logical negation.
func (q Query) Not() Query {
	return One().Sub(q)
}
