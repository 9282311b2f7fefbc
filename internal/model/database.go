package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnVar names the value of a table column inside a database filter.
func ColumnVar(i int) string { return "#col" + strconv.Itoa(i) }

func criterionVar(i int) string { return "#crit" + strconv.Itoa(i) }

var criterionPrefixes = []struct {
	prefix string
	op     Operator
}{
	{"<>", OpNE},
	{"<=", OpLE},
	{">=", OpGE},
	{"=", OpEQ},
	{"<", OpLT},
	{">", OpGT},
}

// ParseCriterion splits a criterion string such as ">=10" or "apples" into
// a comparison and the value compared to. Against a numeric column the value
// is a number literal when it parses as one.
func ParseCriterion(text string, numeric bool) (Operator, Expr) {
	op, rest := OpEQ, text
	for _, p := range criterionPrefixes {
		if strings.HasPrefix(text, p.prefix) {
			op, rest = p.op, text[len(p.prefix):]
			break
		}
	}
	if numeric {
		if _, err := strconv.ParseFloat(strings.TrimSpace(rest), 64); err == nil {
			return op, Num(strings.TrimSpace(rest))
		}
	}
	return op, Str(rest)
}

func comparisonOperator(s string) (Operator, bool) {
	for _, p := range criterionPrefixes {
		if p.prefix == s {
			return p.op, true
		}
	}
	return OpEQ, false
}

// TableRows splits a database table into its labels and data rows. The table
// is either a grid whose first row holds the labels, or a column whose first
// element is the label row and whose other elements are rows: one row arrays
// or repeating sections.
func TableRows(table Expr) ([]string, []Expr, error) {
	arr, ok := table.(*Array)
	if !ok || len(arr.Elems) == 0 {
		return nil, nil, fmt.Errorf("a database table must be an array with a label row")
	}
	var header *Array
	var rows []Expr
	if arr.Cols == 1 && isRowList(arr.Elems) {
		header = arr.Elems[0].(*Array)
		rows = arr.Elems[1:]
	} else {
		header = Row(arr.Elems[:arr.Cols]...)
		for r := 1; r < arr.Rows; r++ {
			rows = append(rows, Row(arr.Elems[r*arr.Cols:(r+1)*arr.Cols]...))
		}
	}
	labels := make([]string, len(header.Elems))
	for i, e := range header.Elems {
		s, ok := ConstValue(e).(string)
		if !ok {
			return nil, nil, fmt.Errorf("database labels must be constant strings, column %d is not", i+1)
		}
		labels[i] = s
	}
	for i, r := range rows {
		if n := rowWidth(r); n != len(labels) {
			return nil, nil, fmt.Errorf("database row %d has %d columns, want %d", i+1, n, len(labels))
		}
	}
	return labels, rows, nil
}

func isRowList(elems []Expr) bool {
	if _, ok := elems[0].(*Array); !ok {
		return false
	}
	for _, e := range elems {
		switch e.(type) {
		case *Array, *SubSection:
		default:
			return false
		}
	}
	return true
}

func rowWidth(row Expr) int {
	switch r := row.(type) {
	case *Array:
		return len(r.Elems)
	case *SubSection:
		return len(r.Args)
	}
	return 0
}

func firstRow(rows []Expr) []Expr {
	if len(rows) == 0 {
		return nil
	}
	switch r := rows[0].(type) {
	case *Array:
		return r.Elems
	case *SubSection:
		return r.Args
	}
	return nil
}

func labelIndex(labels []string, name string) int {
	for i, l := range labels {
		if strings.EqualFold(l, name) {
			return i
		}
	}
	return -1
}

// NewDatabaseFold builds the expression of a database function such as DSUM
// from its table, field and criteria arguments. Criteria rows are joined by
// OR, the criteria of one row by AND. Criteria that are not constant are
// bound by Let around the fold so they are evaluated once.
//
// Column types are taken from the first data row, so the cells of a model
// must be typed (see Analyze) before this is called.
func NewDatabaseFold(fn string, table, field, criteria Expr) (Expr, error) {
	def := StandardFold(fn)
	if !IsDatabase(fn) {
		return nil, fmt.Errorf("%s is not a database function", fn)
	}
	labels, rows, err := TableRows(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	types := make([]DataType, len(labels))
	first := firstRow(rows)
	for i := range types {
		if first != nil {
			types[i] = TypeOf(first[i])
		}
	}

	fold := &FoldDatabase{Def: def, Labels: labels, Types: types, Rows: rows, Column: -1}
	switch v := ConstValue(field).(type) {
	case string:
		if fold.Column = labelIndex(labels, v); fold.Column < 0 {
			return nil, fmt.Errorf("%s: no column is labeled %q", fn, v)
		}
	case Number:
		i, err := strconv.ParseFloat(string(v), 64)
		if err != nil || int(i) < 1 || int(i) > len(labels) {
			return nil, fmt.Errorf("%s: the column index must be between 1 and %d, it is %s", fn, len(labels), v)
		}
		fold.Column = int(i) - 1
	default:
		if TypeOf(field) != Numeric {
			return nil, fmt.Errorf("%s: the column must be a constant label or a numeric index", fn)
		}
		fold.ColumnExpr = field
	}

	fb := &filterBuilder{labels: labels, types: types, first: first}
	if fold.Filter, err = fb.build(criteria); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	var out Expr = fold
	for i := len(fb.lets) - 1; i >= 0; i-- {
		out = &Let{Name: criterionVar(i), Value: fb.lets[i], Body: out}
	}
	return out, nil
}

type filterBuilder struct {
	labels []string
	types  []DataType
	first  []Expr
	lets   []Expr
}

func (fb *filterBuilder) build(criteria Expr) (Expr, error) {
	arr, ok := criteria.(*Array)
	if !ok || arr.Rows < 1 {
		return nil, fmt.Errorf("criteria must be an array with a label row")
	}
	cols := make([]int, arr.Cols)
	for i := range cols {
		label, ok := ConstValue(arr.Elems[i]).(string)
		if !ok {
			return nil, fmt.Errorf("criteria labels must be constant strings, column %d is not", i+1)
		}
		// An unknown label makes its criteria free-form formulas.
		cols[i] = labelIndex(fb.labels, label)
	}
	var rowFilters []Expr
	for r := 1; r < arr.Rows; r++ {
		var colFilters []Expr
		for c, col := range cols {
			if f := fb.column(col, arr.At(r, c)); f != nil {
				colFilters = append(colFilters, f)
			}
		}
		rowFilters = append(rowFilters, join("AND", colFilters))
	}
	if len(rowFilters) == 0 {
		return Bool(true), nil
	}
	return join("OR", rowFilters), nil
}

func join(fn string, filters []Expr) Expr {
	switch len(filters) {
	case 0:
		return Bool(true)
	case 1:
		return filters[0]
	}
	return Agg(fn, filters...)
}

func (fb *filterBuilder) column(col int, criterion Expr) Expr {
	if s, ok := ConstValue(criterion).(string); ok && s == "" {
		return nil
	}
	if col < 0 {
		return fb.replaceFirstRow(criterion)
	}
	switch v := ConstValue(criterion).(type) {
	case nil:
	case string:
		op, value := ParseCriterion(v, fb.types[col] == Numeric)
		return fb.compare(op, col, value)
	default:
		return fb.compare(OpEQ, col, criterion)
	}
	// ">" & A1 compares with A1 rather than with its text.
	if op, ok := criterion.(*Op); ok && op.Op == OpConcat {
		if s, ok := ConstValue(op.Args[0]).(string); ok {
			if cmp, ok := comparisonOperator(s); ok {
				return fb.compare(cmp, col, op.Args[1])
			}
		}
	}
	return fb.compare(OpEQ, col, criterion)
}

func (fb *filterBuilder) compare(op Operator, col int, value Expr) Expr {
	if _, ok := value.(*Const); !ok {
		fb.lets = append(fb.lets, value)
		value = Var(criterionVar(len(fb.lets) - 1))
	}
	return Binary(op, Var(ColumnVar(col)), value)
}

// replaceFirstRow rewrites references to the cells of the first data row
// into column names.
func (fb *filterBuilder) replaceFirstRow(e Expr) Expr {
	if ref, ok := e.(*CellRef); ok {
		for i, f := range fb.first {
			if r, ok := f.(*CellRef); ok && r.Cell == ref.Cell {
				return Var(ColumnVar(i))
			}
		}
		return e
	}
	return Rewrite(e, fb.replaceFirstRow)
}

// Rewrite returns a copy of e whose direct children are replaced by fn.
// Nodes without children are returned unchanged.
func Rewrite(e Expr, fn func(Expr) Expr) Expr {
	mapAll := func(in []Expr) []Expr {
		out := make([]Expr, len(in))
		for i, x := range in {
			out[i] = fn(x)
		}
		return out
	}
	switch n := e.(type) {
	case *Op:
		return &Op{Op: n.Op, Args: mapAll(n.Args)}
	case *Call:
		return &Call{Fn: n.Fn, Args: mapAll(n.Args)}
	case *Aggregate:
		return &Aggregate{Fn: n.Fn, Args: mapAll(n.Args)}
	case *Array:
		return &Array{Rows: n.Rows, Cols: n.Cols, Elems: mapAll(n.Elems)}
	case *Let:
		return &Let{Name: n.Name, Value: fn(n.Value), Body: fn(n.Body)}
	}
	return e
}
