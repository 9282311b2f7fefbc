package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/formulagrid/internal/dag"
)

// Analyze validates m, infers the types of formula cells and counts cell
// references. All problems found are returned together.
func (m *Model) Analyze() error {
	m.analyzed = false

	errs := m.checkStructure()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	cells := m.Cells()
	byPath := make(map[string]*Cell, len(cells))
	g := dag.New()
	for _, c := range cells {
		byPath[c.Path()] = c
		g.AddNode(c.Path())
	}
	for _, c := range formulas(cells) {
		Walk(c.Expr, func(e Expr) bool {
			if ref, ok := e.(*CellRef); ok && ref.Cell != nil && ref.Cell.Section != nil {
				if err := g.AddEdge(ref.Cell.Path(), c.Path()); err != nil {
					errs = append(errs, fmt.Errorf("cell %s: %w", c.Path(), err))
				}
			}
			return true
		})
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, path := range order {
		if c := byPath[path]; c.Kind == FormulaCell && !c.declared {
			c.Type = TypeOf(c.Expr)
		}
	}

	for _, c := range formulas(cells) {
		ck := &checker{cell: c}
		ck.check(c.Expr, c.Section, false, nil)
		errs = append(errs, ck.errs...)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, c := range cells {
		c.refs = 0
	}
	for _, c := range formulas(cells) {
		Walk(c.Expr, func(e Expr) bool {
			if ref, ok := e.(*CellRef); ok {
				ref.Cell.refs++
			}
			return true
		})
	}
	m.analyzed = true
	return nil
}

func formulas(cells []*Cell) []*Cell {
	var out []*Cell
	for _, c := range cells {
		if c.Kind == FormulaCell {
			out = append(out, c)
		}
	}
	return out
}

func (m *Model) checkStructure() []error {
	var errs []error
	for _, s := range m.Sections() {
		where := "root section"
		if s.Parent != nil {
			where = "section " + s.Path()
			if s.Name == "" {
				errs = append(errs, fmt.Errorf("a section of %q has no name", s.Parent.Path()))
			}
			if s.Source.Name == "" {
				errs = append(errs, fmt.Errorf("%s: a repeating section needs a source collection", where))
			}
		}
		seen := make(map[string]bool)
		for _, c := range s.Cells {
			key := strings.ToLower(c.Name)
			switch {
			case c.Name == "":
				errs = append(errs, fmt.Errorf("%s: a cell has no name", where))
			case seen[key]:
				errs = append(errs, fmt.Errorf("%s: duplicate name %q", where, c.Name))
			}
			seen[key] = true
			if c.Section != s {
				errs = append(errs, fmt.Errorf("%s: cell %q belongs to another section", where, c.Name))
			}
			switch c.Kind {
			case ConstantCell:
				if _, ok := c.Expr.(*Const); !ok {
					errs = append(errs, fmt.Errorf("cell %s: a constant cell needs a literal value", c.Path()))
				}
			case InputCell:
				if c.Input.Name == "" {
					errs = append(errs, fmt.Errorf("cell %s: an input cell needs an accessor", c.Path()))
				}
			case FormulaCell:
				if c.Expr == nil {
					errs = append(errs, fmt.Errorf("cell %s: a formula cell needs an expression", c.Path()))
				}
			}
		}
		for _, child := range s.Sections {
			key := strings.ToLower(child.Name)
			if seen[key] {
				errs = append(errs, fmt.Errorf("%s: duplicate name %q", where, child.Name))
			}
			seen[key] = true
			if child.Parent != s {
				errs = append(errs, fmt.Errorf("%s: section %q has a different parent", where, child.Name))
			}
		}
	}
	return errs
}

// names is a scope of bound let and fold names.
type names struct {
	name string
	next *names
}

func (n *names) with(more ...string) *names {
	for _, m := range more {
		if m != "" {
			n = &names{name: m, next: n}
		}
	}
	return n
}

func (n *names) has(name string) bool {
	for ; n != nil; n = n.next {
		if n.name == name {
			return true
		}
	}
	return false
}

type checker struct {
	cell *Cell
	errs []error
}

func (ck *checker) fail(format string, args ...any) {
	ck.errs = append(ck.errs, fmt.Errorf("cell %s: %s", ck.cell.Path(), fmt.Sprintf(format, args...)))
}

// check validates e evaluated in section ctx. vector is set where a list of
// values may stand.
func (ck *checker) check(e Expr, ctx *Section, vector bool, vars *names) {
	switch n := e.(type) {
	case nil:
		ck.fail("missing expression")
	case *Const:
		switch n.Value.(type) {
		case Number, string, bool:
		default:
			ck.fail("unsupported literal %T", n.Value)
		}
	case *CellRef:
		switch {
		case n.Cell == nil || n.Cell.Section == nil:
			ck.fail("reference to a cell outside the model")
		case !n.Cell.Section.Encloses(ctx):
			ck.fail("%s is in a section that is not an ancestor; read it through an aggregation", n.Cell.Path())
		}
	case *Op:
		want := 2
		if n.Op.Unary() {
			want = 1
		}
		if len(n.Args) != want {
			ck.fail("operator %s takes %d operands, got %d", n.Op, want, len(n.Args))
		}
		ck.all(n.Args, ctx, false, vars)
	case *Call:
		s, ok := Lookup(n.Fn)
		if !ok {
			ck.fail("unknown function %s", n.Fn)
			return
		}
		if !s.Accepts(len(n.Args)) {
			ck.fail("wrong number of arguments to %s: %d", n.Fn, len(n.Args))
			return
		}
		for i, a := range n.Args {
			p := s.Param(i)
			ck.check(a, ctx, p == PVector || p == PArray, vars)
		}
	case *Aggregate:
		if !IsAggregate(n.Fn) {
			ck.fail("unknown aggregation %s", n.Fn)
		}
		ck.all(n.Args, ctx, true, vars)
	case *Array:
		if !vector {
			ck.fail("an array is not allowed where a single value is expected")
		}
		if n.Rows*n.Cols != len(n.Elems) {
			ck.fail("a %dx%d array has %d elements", n.Rows, n.Cols, len(n.Elems))
		}
		ck.all(n.Elems, ctx, true, vars)
	case *SubSection:
		switch {
		case n.Section == nil:
			ck.fail("missing section")
			return
		case n.Section.Parent != ctx:
			ck.fail("section %s is not nested directly in %s", n.Section.Path(), describeSection(ctx))
			return
		case !vector:
			ck.fail("section %s must be aggregated", n.Section.Path())
		}
		ck.all(n.Args, n.Section, true, vars)
	case *Let:
		ck.check(n.Value, ctx, false, vars)
		ck.check(n.Body, ctx, vector, vars.with(n.Name))
	case *LetVar:
		if !vars.has(n.Name) {
			ck.fail("unbound name %s", n.Name)
		}
	case *Fold:
		if len(n.Def.Elements) != 1 {
			ck.fail("fold %s needs exactly one element name", n.Def.Name)
		}
		ck.def(n.Def, ctx, vars, vars.with(n.Def.Elements...))
		ck.all(n.Elements, ctx, true, vars)
	case *FoldVectors:
		if len(n.Def.Elements) != len(n.Vectors) {
			ck.fail("fold %s names %d elements for %d vectors", n.Def.Name, len(n.Def.Elements), len(n.Vectors))
		}
		ck.def(n.Def, ctx, vars, vars.with(n.Def.Elements...))
		ck.all(n.Vectors, ctx, true, vars)
	case *FoldDatabase:
		ck.database(n, ctx, vars)
	default:
		ck.fail("unsupported expression %T", e)
	}
}

func (ck *checker) all(es []Expr, ctx *Section, vector bool, vars *names) {
	for _, e := range es {
		ck.check(e, ctx, vector, vars)
	}
}

func (ck *checker) def(d *FoldDef, ctx *Section, outer, elts *names) {
	if len(d.Accumulators) == 0 || len(d.Accumulators) != len(d.Steps) {
		ck.fail("fold %s needs one step per accumulator", d.Name)
		return
	}
	accs := make([]string, len(d.Accumulators))
	for i, a := range d.Accumulators {
		accs[i] = a.Name
		ck.check(a.Init, ctx, false, outer)
	}
	ck.all(d.Steps, ctx, false, elts.with(accs...))
	if d.Merge != nil {
		ck.check(d.Merge, ctx, false, outer.with(accs...).with(d.Count))
	}
	if d.WhenEmpty != nil {
		ck.check(d.WhenEmpty, ctx, false, outer)
	}
}

func (ck *checker) database(n *FoldDatabase, ctx *Section, vars *names) {
	if len(n.Def.Elements) != 1 {
		ck.fail("fold %s needs exactly one element name", n.Def.Name)
	}
	if len(n.Types) != len(n.Labels) {
		ck.fail("database %s has %d labels but %d column types", n.Def.Name, len(n.Labels), len(n.Types))
	}
	ck.def(n.Def, ctx, vars, vars.with(n.Def.Elements...))
	for i, r := range n.Rows {
		switch r.(type) {
		case *Array, *SubSection:
		default:
			ck.fail("database row %d must be an array or a section", i+1)
			continue
		}
		if rowWidth(r) != len(n.Labels) {
			ck.fail("database row %d has %d columns, want %d", i+1, rowWidth(r), len(n.Labels))
		}
		ck.check(r, ctx, true, vars)
	}
	cols := vars
	for i := range n.Labels {
		cols = cols.with(ColumnVar(i))
	}
	ck.check(n.Filter, ctx, false, cols)
	switch {
	case n.ColumnExpr != nil:
		ck.check(n.ColumnExpr, ctx, false, vars)
	case n.Column < 0 || n.Column >= len(n.Labels):
		ck.fail("database column %d is out of range", n.Column+1)
	}
}

func describeSection(s *Section) string {
	if s.Parent == nil {
		return "the root section"
	}
	return s.Path()
}
