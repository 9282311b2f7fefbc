package compiler

import (
	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

// isPolymorphic reports whether the result type of a function is the type
// of one of its arguments.
func isPolymorphic(name string) bool {
	switch name {
	case "IF", "CHOOSE", "INDEX", "LOOKUP", "VLOOKUP", "HLOOKUP":
		return true
	}
	return false
}

// polymorphic compiles a function whose result has the type produced by
// lower. zero is the result of an INDEX outside its array.
func polymorphic[N, T any](
	x *exprCompiler[N],
	name string,
	n *model.Call,
	s scope[N],
	lower func(model.Expr, scope[N]) (eval[N, T], error),
	zero T,
) (eval[N, T], error) {
	var fn eval[N, T]
	var err error
	switch name {
	case "IF":
		fn, err = compileIf(x, n, s, lower)
	case "CHOOSE":
		fn, err = compileChoose(x, n, s, lower)
	case "INDEX":
		fn, err = compileIndex(x, n, s, lower, zero)
	case "LOOKUP":
		fn, err = compileLookup(x, n, s, lower)
	case "VLOOKUP", "HLOOKUP":
		fn, err = compileTableLookup(x, name == "HLOOKUP", n, s, lower)
	default:
		err = compileErrorf("%s is not polymorphic", name)
	}
	if err != nil {
		return nil, withContext(err, "%s", model.Describe(n))
	}
	return fn, nil
}

// polymorphicResult compiles a polymorphic function in its static type.
func (x *exprCompiler[N]) polymorphicResult(name string, n *model.Call, s scope[N]) (result[N], error) {
	switch s.typeOf(n) {
	case model.Text:
		fn, err := polymorphic(x, name, n, s, x.text, "")
		return textResult(fn), err
	case model.Boolean:
		fn, err := polymorphic(x, name, n, s, x.tester(false), false)
		return testResult(fn), err
	}
	fn, err := polymorphic(x, name, n, s, x.numeric, x.b.Zero())
	return numberResult(fn), err
}

// compileIf selects one of two branches by a condition. A constant
// condition selects at compile time.
func compileIf[N, T any](x *exprCompiler[N], n *model.Call, s scope[N], lower func(model.Expr, scope[N]) (eval[N, T], error)) (eval[N, T], error) {
	yes, err := lower(n.Args[1], s)
	if err != nil {
		return nil, err
	}
	var otherwise model.Expr = model.Bool(false)
	if len(n.Args) > 2 {
		otherwise = n.Args[2]
	}
	no, err := lower(otherwise, s)
	if err != nil {
		return nil, err
	}
	if v, ok := model.ConstValue(n.Args[0]).(bool); ok {
		if v {
			return yes, nil
		}
		return no, nil
	}
	cond, err := x.test(n.Args[0], s, false)
	if err != nil {
		return nil, err
	}
	return func(f *frame[N]) T {
		if cond(f) {
			return yes(f)
		}
		return no(f)
	}, nil
}

// compileChoose dispatches on a 1-based index.
func compileChoose[N, T any](x *exprCompiler[N], n *model.Call, s scope[N], lower func(model.Expr, scope[N]) (eval[N, T], error)) (eval[N, T], error) {
	index, err := x.numeric(n.Args[0], s)
	if err != nil {
		return nil, err
	}
	options := make([]eval[N, T], len(n.Args)-1)
	for i, a := range n.Args[1:] {
		if options[i], err = lower(a, s); err != nil {
			return nil, err
		}
	}
	b := x.b
	return func(f *frame[N]) T {
		i := b.ToInt(index(f))
		if i < 1 || i > len(options) {
			panic(runtime.Fail(runtime.CodeValue, "because index %d is out of range in CHOOSE", i))
		}
		return options[i-1](f)
	}, nil
}

// freeze evaluates constant elements at compile time. It fails if an
// element is not a literal or its conversion fails.
func freeze[N, T any](exprs []model.Expr, fns []eval[N, T]) (vals []T, ok bool) {
	for _, e := range exprs {
		if _, isConst := e.(*model.Const); !isConst {
			return nil, false
		}
	}
	defer func() {
		if recover() != nil {
			vals, ok = nil, false
		}
	}()
	vals = make([]T, len(fns))
	for i, fn := range fns {
		vals[i] = fn(nil)
	}
	return vals, true
}

// offset resolves 1-based INDEX coordinates to a position in an array
// stored row by row. A single coordinate indexes a vector along its length.
func offset(rows, cols, r, c int, hasCol bool) (int, bool) {
	if !hasCol {
		switch {
		case rows == 1:
			r, c = 1, r
		case cols == 1:
			c = 1
		}
	}
	if r == 0 && rows == 1 {
		r = 1
	}
	if c == 0 && cols == 1 {
		c = 1
	}
	if r < 1 || r > rows || c < 1 || c > cols {
		return 0, false
	}
	return (r-1)*cols + c - 1, true
}

// compileIndex picks an element of an array. Constant arrays are built once;
// other arrays dispatch on the offset and evaluate only the picked element.
// Coordinates outside the array yield zero.
func compileIndex[N, T any](
	x *exprCompiler[N],
	n *model.Call,
	s scope[N],
	lower func(model.Expr, scope[N]) (eval[N, T], error),
	zero T,
) (eval[N, T], error) {
	row, err := x.numeric(n.Args[1], s)
	if err != nil {
		return nil, err
	}
	hasCol := len(n.Args) > 2
	col := constant[N](x.b.Zero())
	if hasCol {
		if col, err = x.numeric(n.Args[2], s); err != nil {
			return nil, err
		}
	}
	b := x.b
	coords := func(f *frame[N]) (int, int) { return b.ToInt(row(f)), b.ToInt(col(f)) }

	switch arr := n.Args[0].(type) {
	case *model.Array:
		fns := make([]eval[N, T], len(arr.Elems))
		for i, el := range arr.Elems {
			if fns[i], err = lower(el, s); err != nil {
				return nil, err
			}
		}
		rows, cols := arr.Rows, arr.Cols
		if vals, ok := freeze(arr.Elems, fns); ok {
			return func(f *frame[N]) T {
				r, c := coords(f)
				if i, ok := offset(rows, cols, r, c, hasCol); ok {
					return vals[i]
				}
				return zero
			}, nil
		}
		return func(f *frame[N]) T {
			r, c := coords(f)
			if i, ok := offset(rows, cols, r, c, hasCol); ok {
				return fns[i](f)
			}
			return zero
		}, nil
	case *model.SubSection:
		segs, err := elementsOf(x, []model.Expr{arr}, s, anyType, lower)
		if err != nil {
			return nil, err
		}
		all := collect(segs)
		cols := max(len(arr.Args), 1)
		return func(f *frame[N]) T {
			vals := all(f)
			r, c := coords(f)
			if i, ok := offset(len(vals)/cols, cols, r, c, hasCol); ok {
				return vals[i]
			}
			return zero
		}, nil
	}
	single, err := lower(n.Args[0], s)
	if err != nil {
		return nil, err
	}
	return func(f *frame[N]) T {
		r, c := coords(f)
		if _, ok := offset(1, 1, r, c, hasCol); ok {
			return single(f)
		}
		return zero
	}, nil
}

// matcher compiles MATCH semantics: the 1-based position of value among
// the candidates, compared as text when value is text and as numbers
// otherwise. It raises #N/A when nothing matches.
func (x *exprCompiler[N]) matcher(value model.Expr, candidates []model.Expr, s scope[N]) (func(*frame[N], runtime.MatchType) int, error) {
	if s.typeOf(value) == model.Text {
		v, err := x.text(value, s)
		if err != nil {
			return nil, err
		}
		keys, err := keysOf(x, candidates, s, x.text)
		if err != nil {
			return nil, err
		}
		env := x.env
		return func(f *frame[N], typ runtime.MatchType) int {
			pos, err := env.MatchText(v(f), keys(f), typ)
			if err != nil {
				panic(err)
			}
			return pos
		}, nil
	}
	v, err := x.numeric(value, s)
	if err != nil {
		return nil, err
	}
	keys, err := keysOf(x, candidates, s, x.numeric)
	if err != nil {
		return nil, err
	}
	b := x.b
	return func(f *frame[N], typ runtime.MatchType) int {
		pos, err := runtime.Match(b, v(f), keys(f), typ)
		if err != nil {
			panic(err)
		}
		return pos
	}, nil
}

// keysOf compiles lookup candidates, building constant ones once.
func keysOf[N, T any](x *exprCompiler[N], candidates []model.Expr, s scope[N], lower func(model.Expr, scope[N]) (eval[N, T], error)) (eval[N, []T], error) {
	segs, err := elementsOf(x, candidates, s, anyType, lower)
	if err != nil {
		return nil, err
	}
	if fns, ok := staticOnly(segs); ok {
		if vals, ok := freeze(flatten(candidates), fns); ok {
			return constant[N](vals), nil
		}
	}
	return collect(segs), nil
}

// flatten lists the elements of arrays among exprs.
func flatten(exprs []model.Expr) []model.Expr {
	var out []model.Expr
	for _, e := range exprs {
		if arr, ok := e.(*model.Array); ok {
			out = append(out, flatten(arr.Elems)...)
			continue
		}
		out = append(out, e)
	}
	return out
}

// picker compiles random access to the elements of a vector. Static
// elements are evaluated only when picked.
func picker[N, T any](x *exprCompiler[N], exprs []model.Expr, s scope[N], lower func(model.Expr, scope[N]) (eval[N, T], error)) (func(*frame[N], int) (T, bool), error) {
	segs, err := elementsOf(x, exprs, s, anyType, lower)
	if err != nil {
		return nil, err
	}
	if fns, ok := staticOnly(segs); ok {
		return func(f *frame[N], i int) (T, bool) {
			if i < 0 || i >= len(fns) {
				var zero T
				return zero, false
			}
			return fns[i](f), true
		}, nil
	}
	all := collect(segs)
	return func(f *frame[N], i int) (T, bool) {
		vals := all(f)
		if i < 0 || i >= len(vals) {
			var zero T
			return zero, false
		}
		return vals[i], true
	}, nil
}

func (x *exprCompiler[N]) match(n *model.Call, s scope[N]) (result[N], error) {
	m, err := x.matcher(n.Args[0], n.Args[1:2], s)
	if err != nil {
		return result[N]{}, err
	}
	typ := constant[N](runtime.MatchAscending)
	if len(n.Args) > 2 {
		t, err := x.numeric(n.Args[2], s)
		if err != nil {
			return result[N]{}, err
		}
		b := x.b
		typ = func(f *frame[N]) runtime.MatchType { return runtime.MatchTypeOf(b.Sign(t(f))) }
	}
	b := x.b
	return numberResult(func(f *frame[N]) N {
		return b.FromInt(int64(m(f, typ(f))))
	}), nil
}

// compileLookup is LOOKUP: an ascending match in the first vector picks
// the element at the same position of the second, or of the first when
// there is no second.
func compileLookup[N, T any](x *exprCompiler[N], n *model.Call, s scope[N], lower func(model.Expr, scope[N]) (eval[N, T], error)) (eval[N, T], error) {
	m, err := x.matcher(n.Args[0], n.Args[1:2], s)
	if err != nil {
		return nil, err
	}
	results := n.Args[1]
	if len(n.Args) > 2 {
		results = n.Args[2]
	}
	pick, err := picker(x, []model.Expr{results}, s, lower)
	if err != nil {
		return nil, err
	}
	return func(f *frame[N]) T {
		pos := m(f, runtime.MatchAscending)
		v, ok := pick(f, pos-1)
		if !ok {
			panic(runtime.NotAvailable("because the result vector is shorter than the lookup vector in LOOKUP"))
		}
		return v
	}, nil
}

// tableLines splits a lookup table into the lines searched by VLOOKUP
// (columns) or HLOOKUP (rows). A repeating section is a table whose lines
// are its arguments.
func tableLines(table model.Expr, horizontal bool) ([][]model.Expr, error) {
	switch t := table.(type) {
	case *model.Array:
		count, length := t.Cols, t.Rows
		if horizontal {
			count, length = t.Rows, t.Cols
		}
		lines := make([][]model.Expr, count)
		for i := range lines {
			lines[i] = make([]model.Expr, length)
			for j := range lines[i] {
				if horizontal {
					lines[i][j] = t.At(i, j)
				} else {
					lines[i][j] = t.At(j, i)
				}
			}
		}
		return lines, nil
	case *model.SubSection:
		lines := make([][]model.Expr, len(t.Args))
		for i, a := range t.Args {
			lines[i] = []model.Expr{&model.SubSection{Section: t.Section, Args: []model.Expr{a}}}
		}
		return lines, nil
	}
	return nil, compileErrorf("a lookup table must be an array or a section")
}

// compileTableLookup is VLOOKUP and HLOOKUP: a match in the first line of
// the table picks the element at the same position of the indexed line.
func compileTableLookup[N, T any](
	x *exprCompiler[N],
	horizontal bool,
	n *model.Call,
	s scope[N],
	lower func(model.Expr, scope[N]) (eval[N, T], error),
) (eval[N, T], error) {
	name := "VLOOKUP"
	if horizontal {
		name = "HLOOKUP"
	}
	lines, err := tableLines(n.Args[1], horizontal)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, compileErrorf("%s needs a table with at least one line", name)
	}
	m, err := x.matcher(n.Args[0], lines[0], s)
	if err != nil {
		return nil, err
	}
	picks := make([]func(*frame[N], int) (T, bool), len(lines))
	for i, l := range lines {
		if picks[i], err = picker(x, l, s, lower); err != nil {
			return nil, err
		}
	}
	index, err := x.numeric(n.Args[2], s)
	if err != nil {
		return nil, err
	}
	sorted := constant[N](true)
	if len(n.Args) > 3 {
		if sorted, err = x.test(n.Args[3], s, false); err != nil {
			return nil, err
		}
	}
	b := x.b
	return func(f *frame[N]) T {
		line := b.ToInt(index(f))
		if line < 1 || line > len(picks) {
			panic(runtime.Fail(runtime.CodeRef, "because line %d is outside the table in %s", line, name))
		}
		typ := runtime.MatchExact
		if sorted(f) {
			typ = runtime.MatchAscending
		}
		pos := m(f, typ)
		v, ok := picks[line-1](f, pos-1)
		if !ok {
			panic(runtime.Fail(runtime.CodeRef, "because the table is ragged in %s", name))
		}
		return v
	}, nil
}
