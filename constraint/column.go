package constraint

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Column is a handle to one advice column of the row table. Columns are
// allocated by a Builder at configuration time and addressed by rotation
// queries; concrete values are written during witness assignment.
type Column struct {
	index int
}

// Rotation returns a query for this column at the given row offset relative
// to the current row.
func (c Column) Rotation(i int) Query {
	return Query{eval: func(t *Table, row int) fr.Element {
		return t.get(c.index, row+i)
	}}
}

// Current returns a query for this column at the current row.
func (c Column) Current() Query { return c.Rotation(0) }

// Previous returns a query for this column at the preceding row.
func (c Column) Previous() Query { return c.Rotation(-1) }

// Next returns a query for this column at the following row.
func (c Column) Next() Query { return c.Rotation(1) }

// Assign writes v into this column at the given offset.
func (c Column) Assign(t *Table, offset int, v fr.Element) {
	t.set(c.index, offset, v)
}

// AssignUint64 writes a small unsigned integer into this column.
func (c Column) AssignUint64(t *Table, offset int, v uint64) {
	var e fr.Element
	e.SetUint64(v)
	c.Assign(t, offset, e)
}

// AssignBool writes a 0/1 value into this column.
func (c Column) AssignBool(t *Table, offset int, v bool) {
	if v {
		c.AssignUint64(t, offset, 1)
	} else {
		c.AssignUint64(t, offset, 0)
	}
}
