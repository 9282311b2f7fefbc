package model

import (
	"fmt"
	"strconv"
)

// Expr is a node of a formula. The concrete types are the pointer types
// declared in this file; nodes are immutable once built.
type Expr interface {
	exprNode()
}

// Number is a numeric literal in plain decimal notation. Literals stay text
// until compilation so decimal engines see the exact digits.
type Number string

// Const is a literal. Value is a Number, string or bool.
type Const struct {
	Value any
}

// CellRef reads another cell.
type CellRef struct {
	Cell *Cell
}

// Op applies an operator. Unary operators take one argument, all others two.
type Op struct {
	Op   Operator
	Args []Expr
}

// Call invokes a built-in function by its upper case name.
type Call struct {
	Fn   string
	Args []Expr
}

// Aggregate is one of the folding functions SUM, PRODUCT, SUMSQ, COUNT,
// COUNTA, AVERAGE, MIN, MAX, AND and OR applied to scalars, arrays and
// repeating sections.
type Aggregate struct {
	Fn   string
	Args []Expr
}

// Array is a constant shaped range, stored row by row.
type Array struct {
	Rows, Cols int
	Elems      []Expr
}

// SubSection evaluates Args once for every instance of the repeating section
// Section. It may only appear where a vector is expected.
type SubSection struct {
	Section *Section
	Args    []Expr
}

// Let binds Name to Value within Body. Value is evaluated at most once, on
// the first use of the name.
type Let struct {
	Name  string
	Value Expr
	Body  Expr
}

// LetVar reads a name bound by Let or by a fold.
type LetVar struct {
	Name string
}

// Fold applies Def to Elements. Arrays and sections among the elements are
// flattened.
type Fold struct {
	Def      *FoldDef
	Elements []Expr
}

// FoldVectors applies Def element-wise to vectors of equal length. Def has
// one element name per vector.
type FoldVectors struct {
	Def     *FoldDef
	Vectors []Expr
}

// FoldDatabase applies Def to one column of the table rows that pass Filter.
// Rows are static arrays of one row each or repeating sections whose Args
// are the row's columns. Filter reads the columns through ColumnVar names.
type FoldDatabase struct {
	Def *FoldDef
	// Labels names the columns; Types holds their data types.
	Labels []string
	Types  []DataType
	Rows   []Expr
	Filter Expr
	// Column is the 0-based folded column, or -1 when ColumnExpr computes
	// a 1-based index at run time.
	Column     int
	ColumnExpr Expr
}

func (*Const) exprNode()        {}
func (*CellRef) exprNode()      {}
func (*Op) exprNode()           {}
func (*Call) exprNode()         {}
func (*Aggregate) exprNode()    {}
func (*Array) exprNode()        {}
func (*SubSection) exprNode()   {}
func (*Let) exprNode()          {}
func (*LetVar) exprNode()       {}
func (*Fold) exprNode()         {}
func (*FoldVectors) exprNode()  {}
func (*FoldDatabase) exprNode() {}

// Num returns a numeric literal. It panics if literal is not a number.
func Num(literal string) *Const {
	if _, err := strconv.ParseFloat(literal, 64); err != nil {
		panic(fmt.Sprintf("model: invalid numeric literal %q", literal))
	}
	return &Const{Value: Number(literal)}
}

// Int returns an integer literal.
func Int(v int) *Const { return &Const{Value: Number(strconv.Itoa(v))} }

// Str returns a string literal.
func Str(s string) *Const { return &Const{Value: s} }

// Bool returns a boolean literal.
func Bool(b bool) *Const { return &Const{Value: b} }

// Var returns a reference to a let or fold name.
func Var(name string) *LetVar { return &LetVar{Name: name} }

// Binary returns a two operand operator node.
func Binary(op Operator, a, b Expr) *Op { return &Op{Op: op, Args: []Expr{a, b}} }

// Unary returns a one operand operator node.
func Unary(op Operator, a Expr) *Op { return &Op{Op: op, Args: []Expr{a}} }

// Fn returns a function call.
func Fn(name string, args ...Expr) *Call { return &Call{Fn: name, Args: args} }

// Agg returns an aggregation.
func Agg(name string, args ...Expr) *Aggregate { return &Aggregate{Fn: name, Args: args} }

// Row returns a one row array.
func Row(elems ...Expr) *Array { return &Array{Rows: 1, Cols: len(elems), Elems: elems} }

// Column returns a one column array.
func Column(elems ...Expr) *Array { return &Array{Rows: len(elems), Cols: 1, Elems: elems} }

// Grid returns an array from rows of equal length.
func Grid(rows ...[]Expr) *Array {
	a := &Array{Rows: len(rows)}
	for _, r := range rows {
		a.Cols = len(r)
		a.Elems = append(a.Elems, r...)
	}
	return a
}

// At returns the element at the 0-based row and column.
func (a *Array) At(row, col int) Expr { return a.Elems[row*a.Cols+col] }

// ConstValue returns the literal value of e, or nil if e is not a literal.
func ConstValue(e Expr) any {
	if c, ok := e.(*Const); ok {
		return c.Value
	}
	return nil
}

// Children returns the direct sub-expressions of e, including those of
// fold definitions.
func Children(e Expr) []Expr {
	switch n := e.(type) {
	case *Op:
		return n.Args
	case *Call:
		return n.Args
	case *Aggregate:
		return n.Args
	case *Array:
		return n.Elems
	case *SubSection:
		return n.Args
	case *Let:
		return []Expr{n.Value, n.Body}
	case *Fold:
		return append(n.Def.exprs(), n.Elements...)
	case *FoldVectors:
		return append(n.Def.exprs(), n.Vectors...)
	case *FoldDatabase:
		out := append(n.Def.exprs(), n.Rows...)
		out = append(out, n.Filter)
		if n.ColumnExpr != nil {
			out = append(out, n.ColumnExpr)
		}
		return out
	}
	return nil
}

// Walk calls fn for e and, while fn returns true, for its descendants in
// depth-first order.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, fn)
	}
}
