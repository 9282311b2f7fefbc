package compiler

import (
	"strings"

	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/numeric"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

// exprCompiler compiles the formula of one cell. Numbers, text and
// conditions have separate entry points; each converts what it cannot
// compile natively.
type exprCompiler[N any] struct {
	e   *engine[N]
	b   numeric.Backend[N]
	env *runtime.Environment
	// slots counts the let and fold slots of the formula.
	slots int
}

func (x *exprCompiler[N]) alloc() int {
	x.slots++
	return x.slots - 1
}

// numeric compiles e as a number. Booleans are 1 and 0.
func (x *exprCompiler[N]) numeric(e model.Expr, s scope[N]) (eval[N, N], error) {
	switch n := e.(type) {
	case *model.Const:
		return x.constNumber(n)
	case *model.CellRef:
		if n.Cell.Type == model.Text {
			return x.numberFromText(e, s)
		}
		return cellRef(x, n.Cell, s, x.numeric, (*cellShape[N]).number)
	case *model.LetVar:
		return x.varNumber(n, s)
	case *model.Let:
		return compileLet(x, n, s, x.numeric)
	case *model.Op:
		return x.operator(n, s)
	case *model.Call:
		name := strings.ToUpper(n.Fn)
		if isPolymorphic(name) {
			return polymorphic(x, name, n, s, x.numeric, x.b.Zero())
		}
		r, err := x.call(n, s)
		if err != nil {
			return nil, err
		}
		return x.resultNumber(r), nil
	case *model.Aggregate:
		if isLogical(n.Fn) {
			return x.numberFromTest(e, s)
		}
		return x.aggregate(n, s)
	case *model.Fold:
		return x.fold(n.Def, n.Elements, s)
	case *model.FoldVectors:
		return x.foldVectors(n, s)
	case *model.FoldDatabase:
		return x.foldDatabase(n, s)
	case *model.Array, *model.SubSection:
		return nil, compileErrorf("%s is not a single value", model.Describe(e))
	}
	return nil, compileErrorf("unsupported expression %T", e)
}

// text compiles e as text.
func (x *exprCompiler[N]) text(e model.Expr, s scope[N]) (eval[N, string], error) {
	switch n := e.(type) {
	case *model.Const:
		switch v := n.Value.(type) {
		case string:
			return constant[N](v), nil
		case bool:
			return constant[N](boolText(v)), nil
		}
		num, err := x.constNumber(n)
		if err != nil {
			return nil, err
		}
		return constant[N](x.textOf(num(nil))), nil
	case *model.CellRef:
		if n.Cell.Type == model.Text {
			return cellRef(x, n.Cell, s, x.text, (*cellShape[N]).textual)
		}
	case *model.LetVar:
		if b := s.lookup(n.Name); b != nil && b.typ == model.Text {
			return x.varText(n, b, s), nil
		}
	case *model.Let:
		return compileLet(x, n, s, x.text)
	case *model.Op:
		if n.Op == model.OpConcat {
			return x.concat(n, s)
		}
	case *model.Call:
		name := strings.ToUpper(n.Fn)
		if isPolymorphic(name) {
			return polymorphic(x, name, n, s, x.text, "")
		}
		r, err := x.call(n, s)
		if err != nil {
			return nil, err
		}
		return x.resultText(r), nil
	case *model.Array, *model.SubSection:
		return nil, compileErrorf("%s is not a single value", model.Describe(e))
	}
	return x.textFrom(e, s)
}

// tester returns test as a lowering function with a fixed negation.
func (x *exprCompiler[N]) tester(negate bool) func(model.Expr, scope[N]) (eval[N, bool], error) {
	return func(e model.Expr, s scope[N]) (eval[N, bool], error) {
		return x.test(e, s, negate)
	}
}

// test compiles e as a condition, negated if negate is set. Comparisons and
// logical functions are lowered into branches that stop as soon as the
// outcome is known; NOT only flips the negation of its operand.
func (x *exprCompiler[N]) test(e model.Expr, s scope[N], negate bool) (eval[N, bool], error) {
	switch n := e.(type) {
	case *model.Const:
		if v, ok := n.Value.(bool); ok {
			return constant[N](v != negate), nil
		}
	case *model.Op:
		if n.Op.Comparison() {
			return x.compare(n, s, negate)
		}
	case *model.Let:
		return compileLet(x, n, s, x.tester(negate))
	case *model.Aggregate:
		if isLogical(n.Fn) {
			return x.logical(n, s, negate)
		}
	case *model.Call:
		switch name := strings.ToUpper(n.Fn); name {
		case "NOT":
			return x.test(n.Args[0], s, !negate)
		case "TRUE", "FALSE":
			return constant[N]((name == "TRUE") != negate), nil
		case "IF":
			return polymorphic(x, name, n, s, x.tester(negate), false)
		}
	}
	t, err := x.truthOf(e, s)
	if err != nil || !negate {
		return t, err
	}
	return func(f *frame[N]) bool { return !t(f) }, nil
}

func (x *exprCompiler[N]) constNumber(c *model.Const) (eval[N, N], error) {
	switch v := c.Value.(type) {
	case model.Number:
		n, err := x.b.Parse(string(v))
		if err != nil {
			return nil, compileErrorf("invalid number %q: %v", v, err)
		}
		return constant[N](n), nil
	case bool:
		return constant[N](x.fromBool(v)), nil
	case string:
		if _, err := x.env.Value(v); err != nil && v != "" {
			// The conversion fails when the value is used.
			return func(*frame[N]) N { return x.numberOf(v) }, nil
		}
		return constant[N](x.numberOf(v)), nil
	}
	return nil, compileErrorf("unsupported literal %T", c.Value)
}

// cellRef reads a cell. Materialized cells are called through their
// accessor on the owning instance; constants and formulas read once are
// compiled in place.
func cellRef[N, T any](
	x *exprCompiler[N],
	c *model.Cell,
	s scope[N],
	lower func(model.Expr, scope[N]) (eval[N, T], error),
	read func(*cellShape[N], *instance[N]) T,
) (eval[N, T], error) {
	up := s.ctx.Depth() - c.Section.Depth()
	if idx, ok := x.e.cellIndex[c]; ok {
		cells := x.e.cells
		return func(f *frame[N]) T {
			return read(cells[idx], f.inst.ancestor(up))
		}, nil
	}
	if c.Kind == model.InputCell {
		return nil, compileErrorf("input %s is not materialized", c.Path())
	}
	fn, err := lower(c.Expr, scope[N]{ctx: c.Section})
	if err != nil {
		return nil, withContext(err, "cell %s", c.Path())
	}
	return within(up, fn), nil
}

// compileLet binds a slot to the let name. The value is computed by the
// first reference to the name and read from the slot afterwards.
func compileLet[N, T any](
	x *exprCompiler[N],
	n *model.Let,
	s scope[N],
	lower func(model.Expr, scope[N]) (eval[N, T], error),
) (eval[N, T], error) {
	b := &binding[N]{name: n.Name, slot: x.alloc(), typ: s.typeOf(n.Value), depth: s.ctx.Depth()}
	var err error
	if b.typ == model.Text {
		b.text, err = x.text(n.Value, s)
	} else {
		b.num, err = x.numeric(n.Value, s)
	}
	if err != nil {
		return nil, err
	}
	body, err := lower(n.Body, s.with(b))
	if err != nil {
		return nil, err
	}
	i := b.slot
	return func(f *frame[N]) T {
		f.slots[i].set = false
		return body(f)
	}, nil
}

func (x *exprCompiler[N]) varNumber(n *model.LetVar, s scope[N]) (eval[N, N], error) {
	b := s.lookup(n.Name)
	if b == nil {
		return nil, compileErrorf("unbound name %s", n.Name)
	}
	if b.typ == model.Text {
		t := x.varText(n, b, s)
		return func(f *frame[N]) N { return x.numberOf(t(f)) }, nil
	}
	i := b.slot
	if b.num == nil {
		return func(f *frame[N]) N { return f.slots[i].num }, nil
	}
	value := within(s.ctx.Depth()-b.depth, b.num)
	return func(f *frame[N]) N {
		sl := &f.slots[i]
		if !sl.set {
			sl.num = value(f)
			sl.set = true
		}
		return sl.num
	}, nil
}

func (x *exprCompiler[N]) varText(_ *model.LetVar, b *binding[N], s scope[N]) eval[N, string] {
	i := b.slot
	if b.text == nil {
		return func(f *frame[N]) string { return f.slots[i].text }
	}
	value := within(s.ctx.Depth()-b.depth, b.text)
	return func(f *frame[N]) string {
		sl := &f.slots[i]
		if !sl.set {
			sl.text = value(f)
			sl.set = true
		}
		return sl.text
	}
}

func (x *exprCompiler[N]) operator(n *model.Op, s scope[N]) (eval[N, N], error) {
	switch {
	case n.Op == model.OpConcat:
		return x.numberFromText(n, s)
	case n.Op.Comparison():
		return x.numberFromTest(n, s)
	case n.Op.Unary():
		a, err := x.numeric(n.Args[0], s)
		if err != nil {
			return nil, err
		}
		op := x.b.Neg
		if n.Op == model.OpPercent {
			op = x.b.Percent
		}
		return func(f *frame[N]) N { return op(a(f)) }, nil
	}
	a, err := x.numeric(n.Args[0], s)
	if err != nil {
		return nil, err
	}
	c, err := x.numeric(n.Args[1], s)
	if err != nil {
		return nil, err
	}
	var op func(N, N) N
	switch n.Op {
	case model.OpAdd:
		op = x.b.Add
	case model.OpSub:
		op = x.b.Sub
	case model.OpMul:
		op = x.b.Mul
	case model.OpDiv:
		op = x.b.Div
	case model.OpPow:
		op = x.b.Pow
	case model.OpMin:
		op = x.b.Min
	case model.OpMax:
		op = x.b.Max
	default:
		return nil, compileErrorf("unsupported operator %s", n.Op)
	}
	return func(f *frame[N]) N { return op(a(f), c(f)) }, nil
}

func (x *exprCompiler[N]) concat(n *model.Op, s scope[N]) (eval[N, string], error) {
	a, err := x.text(n.Args[0], s)
	if err != nil {
		return nil, err
	}
	c, err := x.text(n.Args[1], s)
	if err != nil {
		return nil, err
	}
	return func(f *frame[N]) string { return a(f) + c(f) }, nil
}

// compare lowers a comparison. Text compares case insensitively under the
// environment's collation and sorts after numbers.
func (x *exprCompiler[N]) compare(n *model.Op, s scope[N], negate bool) (eval[N, bool], error) {
	op := n.Op
	if negate {
		op = op.Negated()
	}
	l, r := n.Args[0], n.Args[1]
	tl, tr := s.typeOf(l), s.typeOf(r)
	var cmp eval[N, int]
	switch {
	case tl == model.Text && tr == model.Text:
		a, err := x.text(l, s)
		if err != nil {
			return nil, err
		}
		c, err := x.text(r, s)
		if err != nil {
			return nil, err
		}
		env := x.env
		cmp = func(f *frame[N]) int { return env.CompareText(a(f), c(f)) }
	case tl != model.Text && tr != model.Text:
		a, err := x.numeric(l, s)
		if err != nil {
			return nil, err
		}
		c, err := x.numeric(r, s)
		if err != nil {
			return nil, err
		}
		b := x.b
		cmp = func(f *frame[N]) int { return b.Cmp(a(f), c(f)) }
	default:
		order := 1
		if tl != model.Text {
			order = -1
		}
		cmp = constant[N](order)
	}
	return func(f *frame[N]) bool { return holds(op, cmp(f)) }, nil
}

// holds reports whether a comparison with outcome c satisfies op.
func holds(op model.Operator, c int) bool {
	switch op {
	case model.OpEQ:
		return c == 0
	case model.OpNE:
		return c != 0
	case model.OpLT:
		return c < 0
	case model.OpLE:
		return c <= 0
	case model.OpGT:
		return c > 0
	case model.OpGE:
		return c >= 0
	}
	return false
}

func isLogical(fn string) bool { return fn == "AND" || fn == "OR" }

// logical lowers AND and OR over all elements of their arguments. Negation
// is pushed into the operands, turning AND into OR and back.
func (x *exprCompiler[N]) logical(n *model.Aggregate, s scope[N], negate bool) (eval[N, bool], error) {
	all := n.Fn == "AND"
	if negate {
		all = !all
	}
	segs, err := elementsOf(x, n.Args, s, anyType, x.tester(negate))
	if err != nil {
		return nil, withContext(err, "%s", model.Describe(n))
	}
	fn := n.Fn
	if tests, ok := staticOnly(segs); ok {
		return func(f *frame[N]) bool {
			if len(tests) == 0 {
				panic(runtime.Fail(runtime.CodeValue, "because %s has no values", fn))
			}
			for _, t := range tests {
				if t(f) != all {
					return !all
				}
			}
			return all
		}, nil
	}
	return func(f *frame[N]) bool {
		outcome, seen := all, false
		each(segs, f, f.inst, func(v bool) bool {
			seen = true
			if v != all {
				outcome = v
				return false
			}
			return true
		})
		if !seen {
			panic(runtime.Fail(runtime.CodeValue, "because %s has no values", fn))
		}
		return outcome
	}, nil
}
