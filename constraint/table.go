package constraint

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Table holds the concrete row-by-row assignment of every column. Unassigned
// cells are zero, which is also the value of every cell on padding rows.
type Table struct {
	rows int
	cols [][]fr.Element
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int { return t.rows }

// Get returns the value of column c at the given row.
func (t *Table) Get(c Column, row int) fr.Element {
	return t.get(c.index, row)
}

func (t *Table) wrap(row int) int {
	row %= t.rows
	if row < 0 {
		row += t.rows
	}
	return row
}

func (t *Table) get(col, row int) fr.Element {
	return t.cols[col][t.wrap(row)]
}

func (t *Table) set(col, row int, v fr.Element) {
	t.cols[col][t.wrap(row)] = v
}
