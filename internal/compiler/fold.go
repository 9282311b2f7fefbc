package compiler

import (
	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/numeric"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

// foldPlan is a compiled fold definition. Accumulators, elements and the
// element count live in slots of the frame; steps write their results to
// temporaries first so that all steps of one element read the same values.
type foldPlan[N any] struct {
	b      numeric.Backend[N]
	accs   []int
	temps  []int
	elems  []int
	count  int
	inits  []eval[N, N]
	steps  []eval[N, N]
	merge  eval[N, N]
	empty  eval[N, N]
	seeded bool
}

// planFold compiles the parts of def evaluated in scope s.
func (x *exprCompiler[N]) planFold(def *model.FoldDef, s scope[N]) (*foldPlan[N], error) {
	if len(def.Accumulators) == 0 || len(def.Accumulators) != len(def.Steps) {
		return nil, compileErrorf("fold %s needs one step per accumulator", def.Name)
	}
	p := &foldPlan[N]{b: x.b, count: -1, seeded: def.Seeded()}
	depth := s.ctx.Depth()
	var err error

	p.inits = make([]eval[N, N], len(def.Accumulators))
	accScope := s
	for i, a := range def.Accumulators {
		if p.inits[i], err = x.numeric(a.Init, s); err != nil {
			return nil, err
		}
		slot := x.alloc()
		p.accs = append(p.accs, slot)
		p.temps = append(p.temps, x.alloc())
		accScope = accScope.with(&binding[N]{name: a.Name, slot: slot, typ: model.Numeric, depth: depth})
	}

	stepScope := accScope
	for _, name := range def.Elements {
		slot := x.alloc()
		p.elems = append(p.elems, slot)
		stepScope = stepScope.with(&binding[N]{name: name, slot: slot, typ: model.Numeric, depth: depth})
	}
	p.steps = make([]eval[N, N], len(def.Steps))
	for i, st := range def.Steps {
		if p.steps[i], err = x.numeric(st, stepScope); err != nil {
			return nil, withContext(err, "step of %s", def.Name)
		}
	}

	if def.Merge != nil {
		mergeScope := accScope
		if def.Count != "" {
			p.count = x.alloc()
			mergeScope = mergeScope.with(&binding[N]{name: def.Count, slot: p.count, typ: model.Numeric, depth: depth})
		}
		if p.merge, err = x.numeric(def.Merge, mergeScope); err != nil {
			return nil, withContext(err, "result of %s", def.Name)
		}
	}
	if def.WhenEmpty != nil {
		if p.empty, err = x.numeric(def.WhenEmpty, s); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *foldPlan[N]) start(f *frame[N]) {
	for i, init := range p.inits {
		f.slots[p.accs[i]].num = init(f)
	}
}

// step folds the element held in the element slots. n is the number of
// elements folded before it.
func (p *foldPlan[N]) step(f *frame[N], n int) {
	first := 0
	if n == 0 && p.seeded {
		f.slots[p.temps[0]].num = f.slots[p.elems[0]].num
		first = 1
	}
	for i := first; i < len(p.steps); i++ {
		f.slots[p.temps[i]].num = p.steps[i](f)
	}
	for i, acc := range p.accs {
		f.slots[acc].num = f.slots[p.temps[i]].num
	}
}

func (p *foldPlan[N]) finish(f *frame[N], n int) N {
	if n == 0 && p.empty != nil {
		return p.empty(f)
	}
	if p.merge != nil {
		if p.count >= 0 {
			f.slots[p.count].num = p.b.FromInt(int64(n))
		}
		return p.merge(f)
	}
	return f.slots[p.accs[0]].num
}

// aggregate compiles SUM, COUNT and the other folding aggregations.
func (x *exprCompiler[N]) aggregate(n *model.Aggregate, s scope[N]) (eval[N, N], error) {
	def := model.StandardFold(n.Fn)
	if def == nil {
		return nil, compileErrorf("unknown aggregation %s", n.Fn)
	}
	fn, err := x.fold(def, n.Args, s)
	if err != nil {
		return nil, withContext(err, "%s", model.Describe(n))
	}
	return fn, nil
}

// element lowers a folded element. Text counts as an element but carries
// no value.
func (x *exprCompiler[N]) element(e model.Expr, s scope[N]) (eval[N, N], error) {
	if s.typeOf(e) == model.Text {
		return constant[N](x.b.Zero()), nil
	}
	return x.numeric(e, s)
}

// fold compiles a fold over the elements of vector arguments. Static
// elements are folded in order; repeating sections fold every instance.
func (x *exprCompiler[N]) fold(def *model.FoldDef, elements []model.Expr, s scope[N]) (eval[N, N], error) {
	if len(def.Elements) != 1 {
		return nil, compileErrorf("fold %s needs exactly one element name", def.Name)
	}
	p, err := x.planFold(def, s)
	if err != nil {
		return nil, err
	}
	keep := anyType
	if def.NumericOnly {
		keep = isNumber
	}
	segs, err := elementsOf(x, elements, s, keep, x.element)
	if err != nil {
		return nil, err
	}
	el := p.elems[0]
	return func(f *frame[N]) N {
		p.start(f)
		n := 0
		each(segs, f, f.inst, func(v N) bool {
			f.slots[el].num = v
			p.step(f, n)
			n++
			return true
		})
		return p.finish(f, n)
	}, nil
}

// foldVectors compiles a fold over vectors of equal length taken pairwise.
func (x *exprCompiler[N]) foldVectors(n *model.FoldVectors, s scope[N]) (eval[N, N], error) {
	if len(n.Def.Elements) != len(n.Vectors) {
		return nil, compileErrorf("fold %s names %d elements for %d vectors", n.Def.Name, len(n.Def.Elements), len(n.Vectors))
	}
	p, err := x.planFold(n.Def, s)
	if err != nil {
		return nil, err
	}
	vectors := make([]eval[N, []N], len(n.Vectors))
	for i, v := range n.Vectors {
		if vectors[i], err = x.vector([]model.Expr{v}, s); err != nil {
			return nil, err
		}
	}
	name := n.Def.Name
	return func(f *frame[N]) N {
		vals := make([][]N, len(vectors))
		for i, v := range vectors {
			vals[i] = v(f)
			if len(vals[i]) != len(vals[0]) {
				panic(runtime.NotAvailable("because the vectors of %s differ in length", name))
			}
		}
		p.start(f)
		for k := range vals[0] {
			for i, el := range p.elems {
				f.slots[el].num = vals[i][k]
			}
			p.step(f, k)
		}
		return p.finish(f, len(vals[0]))
	}, nil
}
