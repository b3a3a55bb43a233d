package constraint

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/logger"
)

// Oracle is a read-only lookup relation. A gated lookup multiplies its
// queries by the enclosing condition, so every oracle must accept the
// all-zeros tuple produced on rows where the condition is off.
type Oracle interface {
	Name() string
	Contains(values []fr.Element) bool
}

type gate struct {
	name string
	q    Query
}

type lookupGate struct {
	name    string
	queries []Query
	oracle  Oracle
}

// Builder accumulates columns, algebraic constraints and lookup relations at
// configuration time, and checks an assigned table against them. It is the
// row-table analog of a circuit builder: registration is pure and
// deterministic, evaluation happens once per assigned table.
type Builder struct {
	nCols      int
	conditions []Query
	gates      []gate
	lookups    []lookupGate
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// AdviceColumn allocates a fresh column.
func (b *Builder) AdviceColumn() Column {
	c := Column{index: b.nCols}
	b.nCols++
	return c
}

// AdviceColumns allocates n fresh columns.
func (b *Builder) AdviceColumns(n int) []Column {
	cols := make([]Column, n)
	for i := range cols {
		cols[i] = b.AdviceColumn()
	}
	return cols
}

// NewTable returns a zeroed table with rows rows, one slice per column
// allocated so far.
func (b *Builder) NewTable(rows int) *Table {
	cols := make([][]fr.Element, b.nCols)
	for i := range cols {
		cols[i] = make([]fr.Element, rows)
	}
	return &Table{rows: rows, cols: cols}
}

func (b *Builder) condition() (Query, bool) {
	if len(b.conditions) == 0 {
		return Query{}, false
	}
	return b.conditions[len(b.conditions)-1], true
}

// Condition registers every constraint and lookup added inside f multiplied
// by cond. Conditions nest multiplicatively.
func (b *Builder) Condition(cond Query, f func(*Builder)) {
	if outer, ok := b.condition(); ok {
		cond = outer.Mul(cond)
	}
	b.conditions = append(b.conditions, cond)
	f(b)
	b.conditions = b.conditions[:len(b.conditions)-1]
}

// AssertZero registers the constraint q == 0 under the current condition.
func (b *Builder) AssertZero(name string, q Query) {
	if cond, ok := b.condition(); ok {
		q = cond.Mul(q)
	}
	b.gates = append(b.gates, gate{name: name, q: q})
}

// AssertEqual registers the constraint left == right under the current
// condition.
func (b *Builder) AssertEqual(name string, left, right Query) {
	b.AssertZero(name, left.Sub(right))
}

// Assert registers the constraint q == 1 under the current condition; q must
// be boolean-valued.
func (b *Builder) Assert(name string, q Query) {
	b.AssertZero(name, q.Not())
}

// AssertUnreachable registers a constraint that fails on any row where the
// current condition holds.
func (b *Builder) AssertUnreachable(name string) {
	b.AssertZero(name, One())
}

// AddLookup registers a lookup of the given queries into the oracle, gated by
// the current condition.
func (b *Builder) AddLookup(name string, queries []Query, o Oracle) {
	gated := make([]Query, len(queries))
	copy(gated, queries)
	if cond, ok := b.condition(); ok {
		for i := range gated {
			gated[i] = cond.Mul(gated[i])
		}
	}
	b.lookups = append(b.lookups, lookupGate{name: name, queries: gated, oracle: o})
}

// Check evaluates every registered constraint and lookup on every row of t.
// It returns an error naming the first violated relation; a nil return means
// the assignment satisfies the whole system.
func (b *Builder) Check(t *Table) error {
	for row := 0; row < t.rows; row++ {
		for _, g := range b.gates {
			if v := g.q.Eval(t, row); !v.IsZero() {
				return fmt.Errorf("constraint %q not satisfied at row %d", g.name, row)
			}
		}
		for _, l := range b.lookups {
			values := make([]fr.Element, len(l.queries))
			for i, q := range l.queries {
				values[i] = q.Eval(t, row)
			}
			if !l.oracle.Contains(values) {
				return fmt.Errorf("lookup %q into %s not satisfied at row %d", l.name, l.oracle.Name(), row)
			}
		}
	}
	log := logger.Logger()
	log.Debug().Int("rows", t.rows).Int("constraints", len(b.gates)).Int("lookups", len(b.lookups)).Msg("row table checked")
	return nil
}
