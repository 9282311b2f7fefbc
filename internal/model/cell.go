package model

import (
	"fmt"
	"strings"
)

// CellKind tells where the value of a cell comes from.
type CellKind int

const (
	ConstantCell CellKind = iota
	InputCell
	FormulaCell
)

func (k CellKind) String() string {
	switch k {
	case ConstantCell:
		return "constant"
	case InputCell:
		return "input"
	case FormulaCell:
		return "formula"
	default:
		return fmt.Sprintf("CellKind(%d)", int(k))
	}
}

// Binding names a host accessor: a key of an InputSource, a method or a
// struct field of the host input, or an output accessor of a computation.
// Args distinguish accessors that share a name.
type Binding struct {
	Name string
	Args []any
	// Scale, when Scaled is set, is the number of implied fractional digits
	// of an int64 host value.
	Scale  int
	Scaled bool
}

// Accessor returns a binding to name with the given distinguishing
// arguments.
func Accessor(name string, args ...any) Binding {
	return Binding{Name: name, Args: args}
}

// WithScale returns b for int64 host values carrying scale fractional
// digits.
func (b Binding) WithScale(scale int) Binding {
	b.Scale, b.Scaled = scale, true
	return b
}

func (b Binding) String() string {
	if len(b.Args) == 0 {
		return b.Name
	}
	args := make([]string, len(b.Args))
	for i, a := range b.Args {
		args[i] = fmt.Sprintf("%#v", a)
	}
	return b.Name + "(" + strings.Join(args, ", ") + ")"
}

// Cell is one value of a section.
type Cell struct {
	Name    string
	Section *Section
	Kind    CellKind
	Type    DataType
	// Expr is the formula of a formula cell and the *Const of a constant.
	Expr Expr
	// Input is the host accessor of an input cell.
	Input Binding
	// Outputs are the accessors under which the cell is published.
	Outputs []Binding

	declared bool
	refs     int
}

// Ref returns an expression reading c.
func (c *Cell) Ref() *CellRef { return &CellRef{Cell: c} }

// Path is the dotted name of c below the root section.
func (c *Cell) Path() string {
	if p := c.Section.Path(); p != "" {
		return p + "." + c.Name
	}
	return c.Name
}

func (c *Cell) String() string { return c.Path() }

// Output publishes c under the given accessors, or under its own name when
// none is given. It returns c.
func (c *Cell) Output(bindings ...Binding) *Cell {
	if len(bindings) == 0 {
		bindings = []Binding{{Name: c.Name}}
	}
	c.Outputs = append(c.Outputs, bindings...)
	return c
}

// Typed declares the type of a formula cell instead of inferring it. The
// formula result is converted. It returns c.
func (c *Cell) Typed(t DataType) *Cell {
	c.Type, c.declared = t, true
	return c
}

func (c *Cell) IsOutput() bool { return len(c.Outputs) > 0 }
func (c *Cell) IsInput() bool  { return c.Kind == InputCell }

// References is the number of times formulas read c, as counted by
// Analyze.
func (c *Cell) References() int { return c.refs }

// Materialized reports whether c is compiled into its own accessor instead
// of being inlined where it is used.
func (c *Cell) Materialized() bool {
	return c.IsOutput() || (c.IsInput() && c.refs >= 1) || c.refs >= 2
}

// CachingCandidate reports whether the value of c is kept until reset.
// Constants are rebuilt on every read.
func (c *Cell) CachingCandidate() bool {
	return c.Materialized() && c.Kind != ConstantCell
}
