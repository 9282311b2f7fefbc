package compiler

import "github.com/specialistvlad/formulagrid/internal/model"

// segment is a run of vector elements. A static segment lists elements known
// at compile time, unrolled in order. A repeating segment evaluates inner once
// for every instance of a nested section.
type segment[N, T any] struct {
	static  []eval[N, T]
	section int
	inner   []segment[N, T]
}

func (sg segment[N, T]) repeating() bool { return sg.section >= 0 }

// elementsOf compiles the elements of vector arguments. Arrays are flattened
// and sections become repeating segments. Scalars whose type keep rejects
// are left out.
func elementsOf[N, T any](
	x *exprCompiler[N],
	args []model.Expr,
	s scope[N],
	keep func(model.DataType) bool,
	lower func(model.Expr, scope[N]) (eval[N, T], error),
) ([]segment[N, T], error) {
	var out []segment[N, T]
	addStatic := func(fn eval[N, T]) {
		if len(out) == 0 || out[len(out)-1].repeating() {
			out = append(out, segment[N, T]{section: -1})
		}
		last := &out[len(out)-1]
		last.static = append(last.static, fn)
	}
	for _, a := range args {
		switch n := a.(type) {
		case *model.Array:
			inner, err := elementsOf(x, n.Elems, s, keep, lower)
			if err != nil {
				return nil, err
			}
			for _, sg := range inner {
				if sg.repeating() {
					out = append(out, sg)
					continue
				}
				for _, fn := range sg.static {
					addStatic(fn)
				}
			}
		case *model.SubSection:
			inner, err := elementsOf(x, n.Args, s.in(n.Section), keep, lower)
			if err != nil {
				return nil, err
			}
			out = append(out, segment[N, T]{section: x.e.sectionIndex[n.Section], inner: inner})
		default:
			if !keep(s.typeOf(a)) {
				continue
			}
			fn, err := lower(a, s)
			if err != nil {
				return nil, err
			}
			addStatic(fn)
		}
	}
	return out, nil
}

// each evaluates the elements in order and hands them to yield, which runs
// against the home instance. It stops when yield returns false and reports
// whether it ran to the end.
func each[N, T any](segs []segment[N, T], f *frame[N], home *instance[N], yield func(T) bool) bool {
	for _, sg := range segs {
		if !sg.repeating() {
			for _, el := range sg.static {
				v := el(f)
				cur := f.inst
				f.inst = home
				ok := yield(v)
				f.inst = cur
				if !ok {
					return false
				}
			}
			continue
		}
		cur := f.inst
		for _, child := range cur.children(sg.section) {
			f.inst = child
			if !each(sg.inner, f, home, yield) {
				f.inst = cur
				return false
			}
		}
		f.inst = cur
	}
	return true
}

// collect returns code gathering all elements into a slice.
func collect[N, T any](segs []segment[N, T]) eval[N, []T] {
	return func(f *frame[N]) []T {
		var out []T
		each(segs, f, f.inst, func(v T) bool {
			out = append(out, v)
			return true
		})
		return out
	}
}

// staticOnly returns the elements when no segment repeats.
func staticOnly[N, T any](segs []segment[N, T]) ([]eval[N, T], bool) {
	var out []eval[N, T]
	for _, sg := range segs {
		if sg.repeating() {
			return nil, false
		}
		out = append(out, sg.static...)
	}
	return out, true
}

func isNumber(t model.DataType) bool { return t == model.Numeric }
func anyType(model.DataType) bool    { return true }

// vector compiles the numeric elements of vector arguments. Text and
// boolean scalars are skipped.
func (x *exprCompiler[N]) vector(args []model.Expr, s scope[N]) (eval[N, []N], error) {
	segs, err := elementsOf(x, args, s, isNumber, x.numeric)
	if err != nil {
		return nil, err
	}
	return collect(segs), nil
}

// floatVector is vector converted to doubles.
func (x *exprCompiler[N]) floatVector(args []model.Expr, s scope[N]) (eval[N, []float64], error) {
	v, err := x.vector(args, s)
	if err != nil {
		return nil, err
	}
	b := x.b
	return func(f *frame[N]) []float64 {
		vals := v(f)
		out := make([]float64, len(vals))
		for i, n := range vals {
			out[i] = b.ToFloat(n)
		}
		return out
	}, nil
}

// scalar is an element of a vector of mixed types.
type scalar[N any] struct {
	num    N
	text   string
	isText bool
}

// mixed compiles a scalar of any type.
func (x *exprCompiler[N]) mixed(e model.Expr, s scope[N]) (eval[N, scalar[N]], error) {
	if s.typeOf(e) == model.Text {
		t, err := x.text(e, s)
		if err != nil {
			return nil, err
		}
		return func(f *frame[N]) scalar[N] { return scalar[N]{text: t(f), isText: true} }, nil
	}
	n, err := x.numeric(e, s)
	if err != nil {
		return nil, err
	}
	return func(f *frame[N]) scalar[N] { return scalar[N]{num: n(f)} }, nil
}
