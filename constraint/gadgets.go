package constraint

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// IsZeroGadget exposes a boolean query that is 1 exactly when a column's
// current value is zero. It stores the value's inverse (or zero) in an extra
// advice column; the registered constraint pins the indicator without
// constraining the inverse on zero rows.
type IsZeroGadget struct {
	value   Column
	inverse Column
}

// NewIsZero allocates the inverse column and registers the indicator
// constraint for value.
func NewIsZero(b *Builder, value Column) *IsZeroGadget {
	g := &IsZeroGadget{value: value, inverse: b.AdviceColumn()}
	b.AssertZero("is_zero indicator is consistent", value.Current().Mul(g.Current()))
	return g
}

// Current returns 1 - value*inverse, the zero indicator for the current row.
func (g *IsZeroGadget) Current() Query {
	return g.value.Current().Mul(g.inverse.Current()).Not()
}

// Assign writes the inverse witness for v at the given offset. The value
// column itself is assigned by the caller.
func (g *IsZeroGadget) Assign(t *Table, offset int, v fr.Element) {
	var inv fr.Element
	if !v.IsZero() {
		inv.Inverse(&v)
	}
	g.inverse.Assign(t, offset, inv)
}

// IsEqualGadget exposes a boolean query that is 1 exactly when two queries
// evaluate to the same value, via an inverse column for their difference.
type IsEqualGadget struct {
	left, right Query
	inverse     Column
}

// NewIsEqual allocates the inverse column and registers the indicator
// constraint for left == right.
func NewIsEqual(b *Builder, left, right Query) *IsEqualGadget {
	g := &IsEqualGadget{left: left, right: right, inverse: b.AdviceColumn()}
	b.AssertZero("is_equal indicator is consistent", left.Sub(right).Mul(g.Current()))
	return g
}

// Current returns 1 - (left-right)*inverse, the equality indicator for the
// current row.
func (g *IsEqualGadget) Current() Query {
	return g.left.Sub(g.right).Mul(g.inverse.Current()).Not()
}

// Assign writes the inverse witness for the difference of the two values at
// the given offset.
func (g *IsEqualGadget) Assign(t *Table, offset int, left, right fr.Element) {
	var diff, inv fr.Element
	diff.Sub(&left, &right)
	if !diff.IsZero() {
		inv.Inverse(&diff)
	}
	g.inverse.Assign(t, offset, inv)
}

// OneHot is an indicator-column set over a closed enumeration: at most one
// member's column is 1 on any row, all others are 0. All-zero rows are legal
// and mark padding, where no conditional constraint fires.
type OneHot[T ~uint8] struct {
	variants []T
	columns  map[T]Column
}

// NewOneHot allocates one indicator column per variant and registers the
// booleanity and exclusivity constraints.
func NewOneHot[T ~uint8](b *Builder, variants []T) *OneHot[T] {
	o := &OneHot[T]{variants: variants, columns: make(map[T]Column, len(variants))}
	sum := Zero()
	for _, v := range variants {
		c := b.AdviceColumn()
		o.columns[v] = c
		b.AssertZero(
			fmt.Sprintf("indicator for %v is boolean", v),
			c.Current().Mul(c.Current().Not()),
		)
		sum = sum.Add(c.Current())
	}
	b.AssertZero("at most one indicator is set", sum.Mul(sum.Not()))
	return o
}

func (o *OneHot[T]) matches(rotation int, variants []T) Query {
	q := Zero()
	for _, v := range variants {
		q = q.Add(o.columns[v].Rotation(rotation))
	}
	return q
}

// CurrentMatches returns the boolean query "the current row's variant is one
// of vs".
func (o *OneHot[T]) CurrentMatches(vs ...T) Query { return o.matches(0, vs) }

// PreviousMatches returns the boolean query "the previous row's variant is
// one of vs".
func (o *OneHot[T]) PreviousMatches(vs ...T) Query { return o.matches(-1, vs) }

// NextMatches returns the boolean query "the next row's variant is one of
// vs".
func (o *OneHot[T]) NextMatches(vs ...T) Query { return o.matches(1, vs) }

// Current returns the numeric value of the current row's variant, or 0 on
// padding rows.
func (o *OneHot[T]) Current() Query {
	q := Zero()
	for _, v := range o.variants {
		q = q.Add(o.columns[v].Current().Mul(Value(uint64(v))))
	}
	return q
}

// Assign sets the indicator for v at the given offset.
func (o *OneHot[T]) Assign(t *Table, offset int, v T) {
	c, ok := o.columns[v]
	if !ok {
		panic(fmt.Sprintf("one-hot assignment for unknown variant %v", v))
	}
	c.AssignUint64(t, offset, 1)
}
