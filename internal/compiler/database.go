package compiler

import (
	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

// column is the compiled value of one table column in one row.
type column[N any] struct {
	num  eval[N, N]
	text eval[N, string]
}

// tableRow binds the columns of a static row, or of every instance of a
// repeating section.
type tableRow[N any] struct {
	section int
	cols    []column[N]
}

// foldDatabase compiles a database function. The filter is compiled once
// and runs in the enclosing instance after the columns of a row have been
// bound to their slots.
func (x *exprCompiler[N]) foldDatabase(n *model.FoldDatabase, s scope[N]) (eval[N, N], error) {
	if len(n.Def.Elements) != 1 {
		return nil, compileErrorf("fold %s needs exactly one element name", n.Def.Name)
	}
	p, err := x.planFold(n.Def, s)
	if err != nil {
		return nil, err
	}

	slots := make([]int, len(n.Labels))
	filterScope := s
	for i := range n.Labels {
		slots[i] = x.alloc()
		filterScope = filterScope.with(&binding[N]{name: model.ColumnVar(i), slot: slots[i], typ: n.Types[i], depth: s.ctx.Depth()})
	}
	filter, err := x.test(n.Filter, filterScope, false)
	if err != nil {
		return nil, withContext(err, "criteria of %s", n.Def.Name)
	}

	rows := make([]tableRow[N], len(n.Rows))
	for i, r := range n.Rows {
		if rows[i], err = x.tableRow(r, n.Types, s); err != nil {
			return nil, withContext(err, "row %d of %s", i+1, n.Def.Name)
		}
	}

	b := x.b
	fixed := constant[N](n.Column)
	if n.ColumnExpr != nil {
		idx, err := x.numeric(n.ColumnExpr, s)
		if err != nil {
			return nil, err
		}
		width, name := len(n.Labels), n.Def.Name
		fixed = func(f *frame[N]) int {
			c := b.ToInt(idx(f))
			if c < 1 || c > width {
				panic(runtime.Fail(runtime.CodeValue, "because column %d is outside the table in %s", c, name))
			}
			return c - 1
		}
	}
	types, numericOnly, el := n.Types, n.Def.NumericOnly, p.elems[0]

	return func(f *frame[N]) N {
		col := fixed(f)
		p.start(f)
		count := 0
		visit := func() {
			if !filter(f) {
				return
			}
			if types[col] == model.Text {
				if numericOnly {
					return
				}
				f.slots[el].num = b.Zero()
			} else {
				f.slots[el].num = f.slots[slots[col]].num
			}
			p.step(f, count)
			count++
		}
		bind := func(cols []column[N]) {
			for i, c := range cols {
				if c.text != nil {
					f.slots[slots[i]].text = c.text(f)
				} else {
					f.slots[slots[i]].num = c.num(f)
				}
			}
		}
		home := f.inst
		for _, r := range rows {
			if r.section < 0 {
				bind(r.cols)
				visit()
				continue
			}
			for _, child := range home.children(r.section) {
				f.inst = child
				bind(r.cols)
				f.inst = home
				visit()
			}
		}
		return p.finish(f, count)
	}, nil
}

func (x *exprCompiler[N]) tableRow(r model.Expr, types []model.DataType, s scope[N]) (tableRow[N], error) {
	var exprs []model.Expr
	row := tableRow[N]{section: -1}
	switch t := r.(type) {
	case *model.Array:
		exprs = t.Elems
	case *model.SubSection:
		exprs = t.Args
		row.section = x.e.sectionIndex[t.Section]
		s = s.in(t.Section)
	default:
		return row, compileErrorf("a table row must be an array or a section")
	}
	if len(exprs) != len(types) {
		return row, compileErrorf("the row has %d columns, want %d", len(exprs), len(types))
	}
	row.cols = make([]column[N], len(exprs))
	for i, e := range exprs {
		var err error
		if types[i] == model.Text {
			row.cols[i].text, err = x.text(e, s)
		} else {
			row.cols[i].num, err = x.numeric(e, s)
		}
		if err != nil {
			return row, err
		}
	}
	return row, nil
}

// conditional compiles SUMIF and COUNTIF.
func (x *exprCompiler[N]) conditional(name string, n *model.Call, s scope[N]) (result[N], error) {
	keys, err := x.mixedVector(n.Args[0], s)
	if err != nil {
		return result[N]{}, err
	}
	crit, err := x.criterion(n.Args[1], s)
	if err != nil {
		return result[N]{}, err
	}
	b := x.b
	if name == "COUNTIF" {
		return numberResult(func(f *frame[N]) N {
			match := crit(f)
			count := 0
			for _, k := range keys(f) {
				if match(k) {
					count++
				}
			}
			return b.FromInt(int64(count))
		}), nil
	}
	values := keys
	if len(n.Args) > 2 {
		if values, err = x.mixedVector(n.Args[2], s); err != nil {
			return result[N]{}, err
		}
	}
	return numberResult(func(f *frame[N]) N {
		match := crit(f)
		vals := values(f)
		total := b.Zero()
		for i, k := range keys(f) {
			if i >= len(vals) {
				break
			}
			if match(k) && !vals[i].isText {
				total = b.Add(total, vals[i].num)
			}
		}
		return total
	}), nil
}

func (x *exprCompiler[N]) mixedVector(e model.Expr, s scope[N]) (eval[N, []scalar[N]], error) {
	segs, err := elementsOf(x, []model.Expr{e}, s, anyType, x.mixed)
	if err != nil {
		return nil, err
	}
	return collect(segs), nil
}

// criterion compiles the criteria argument of SUMIF and COUNTIF into a
// predicate. Constant criteria are parsed at compile time.
func (x *exprCompiler[N]) criterion(e model.Expr, s scope[N]) (eval[N, func(scalar[N]) bool], error) {
	if text, ok := model.ConstValue(e).(string); ok {
		return constant[N](x.criterionOf(text)), nil
	}
	if s.typeOf(e) == model.Text {
		t, err := x.text(e, s)
		if err != nil {
			return nil, err
		}
		return func(f *frame[N]) func(scalar[N]) bool { return x.criterionOf(t(f)) }, nil
	}
	v, err := x.numeric(e, s)
	if err != nil {
		return nil, err
	}
	return func(f *frame[N]) func(scalar[N]) bool { return x.numberCriterion(model.OpEQ, v(f)) }, nil
}

// criterionOf parses a criterion such as ">=10" or "apples".
func (x *exprCompiler[N]) criterionOf(text string) func(scalar[N]) bool {
	op, value := model.ParseCriterion(text, true)
	if num, ok := model.ConstValue(value).(model.Number); ok {
		if v, err := x.b.Parse(string(num)); err == nil {
			return x.numberCriterion(op, v)
		}
	}
	_, rest := model.ParseCriterion(text, false)
	want, _ := model.ConstValue(rest).(string)
	return x.textCriterion(op, want)
}

// numberCriterion compares numbers. Text only satisfies "<>".
func (x *exprCompiler[N]) numberCriterion(op model.Operator, want N) func(scalar[N]) bool {
	b := x.b
	return func(v scalar[N]) bool {
		if v.isText {
			return op == model.OpNE
		}
		return holds(op, b.Cmp(v.num, want))
	}
}

// textCriterion compares text ignoring case. Numbers only satisfy "<>".
func (x *exprCompiler[N]) textCriterion(op model.Operator, want string) func(scalar[N]) bool {
	env := x.env
	return func(v scalar[N]) bool {
		if !v.isText {
			return op == model.OpNE
		}
		if op == model.OpEQ || op == model.OpNE {
			if runtime.TextEqual(v.text, want) {
				return holds(op, 0)
			}
			return holds(op, 1)
		}
		return holds(op, env.CompareText(v.text, want))
	}
}
