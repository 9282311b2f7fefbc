package model

// Accumulator is one running value of a fold.
type Accumulator struct {
	Name string
	Init Expr
}

// FoldDef describes a reduction. Each step computes the next value of its
// accumulator from the current accumulators and the element names; all steps
// of one element see the same current values.
type FoldDef struct {
	// Name appears in diagnostics.
	Name         string
	Accumulators []Accumulator
	Elements     []string
	Steps        []Expr
	// Count, if set, names the number of folded elements within Merge.
	Count string
	// Merge computes the result from the final accumulators. Without it the
	// result is the first accumulator.
	Merge Expr
	// WhenEmpty, if set, is the result when there are no elements.
	WhenEmpty Expr
	// FromFirst seeds the first accumulator with the first element instead
	// of its initial value.
	FromFirst bool
	// MayReduce allows seeding the first accumulator with the first element
	// because the initial value is the identity of the step.
	MayReduce bool
	// NumericOnly skips elements that are not numbers.
	NumericOnly bool
}

func (d *FoldDef) exprs() []Expr {
	out := make([]Expr, 0, len(d.Accumulators)+len(d.Steps)+2)
	for _, a := range d.Accumulators {
		out = append(out, a.Init)
	}
	out = append(out, d.Steps...)
	if d.Merge != nil {
		out = append(out, d.Merge)
	}
	if d.WhenEmpty != nil {
		out = append(out, d.WhenEmpty)
	}
	return out
}

// Seeded reports whether the first element replaces the first initial value.
func (d *FoldDef) Seeded() bool {
	return d.FromFirst || d.MayReduce
}

func simpleFold(name string, init Expr, step func(acc, elt Expr) Expr) *FoldDef {
	return &FoldDef{
		Name:         name,
		Accumulators: []Accumulator{{Name: "r", Init: init}},
		Elements:     []string{"xi"},
		Steps:        []Expr{step(Var("r"), Var("xi"))},
		NumericOnly:  true,
	}
}

func sumDef(name string) *FoldDef {
	d := simpleFold(name, Int(0), func(r, x Expr) Expr { return Binary(OpAdd, r, x) })
	d.MayReduce = true
	return d
}

func productDef(name string) *FoldDef {
	d := simpleFold(name, Int(1), func(r, x Expr) Expr { return Binary(OpMul, r, x) })
	d.MayReduce = true
	d.WhenEmpty = Int(0)
	return d
}

func countDef(name string, numericOnly bool) *FoldDef {
	d := simpleFold(name, Int(0), func(r, _ Expr) Expr { return Binary(OpAdd, r, Int(1)) })
	d.NumericOnly = numericOnly
	return d
}

func extremeDef(name string, op Operator) *FoldDef {
	d := simpleFold(name, Int(0), func(r, x Expr) Expr { return Binary(op, r, x) })
	d.FromFirst = true
	d.WhenEmpty = Int(0)
	return d
}

func averageDef(name string) *FoldDef {
	d := sumDef(name)
	d.Count = "n"
	d.Merge = Binary(OpDiv, Var("r"), Var("n"))
	return d
}

// varianceDef folds the sum and the sum of squares. sample selects the n-1
// denominator; root takes the square root of the result.
func varianceDef(name string, sample, root bool) *FoldDef {
	s, q, n := Var("s"), Var("q"), Var("n")
	var denom Expr = n
	if sample {
		denom = Binary(OpSub, n, Int(1))
	}
	var merge Expr = Binary(OpDiv, Binary(OpSub, q, Binary(OpDiv, Binary(OpMul, s, s), n)), denom)
	if root {
		merge = Fn("SQRT", merge)
	}
	return &FoldDef{
		Name:         name,
		Accumulators: []Accumulator{{Name: "s", Init: Int(0)}, {Name: "q", Init: Int(0)}},
		Elements:     []string{"xi"},
		Steps: []Expr{
			Binary(OpAdd, s, Var("xi")),
			Binary(OpAdd, q, Binary(OpMul, Var("xi"), Var("xi"))),
		},
		Count:       "n",
		Merge:       merge,
		NumericOnly: true,
	}
}

func getDef(name string) *FoldDef {
	n := Var("n")
	return &FoldDef{
		Name:         name,
		Accumulators: []Accumulator{{Name: "r", Init: Int(0)}},
		Elements:     []string{"xi"},
		Steps:        []Expr{Var("xi")},
		Count:        "n",
		Merge: Fn("IF", Binary(OpEQ, n, Int(1)), Var("r"),
			Fn("ERROR", Binary(OpConcat, Str("DGET matched "), Binary(OpConcat, n, Str(" rows"))))),
		NumericOnly: true,
	}
}

func pairDef(name string, term func(x, y Expr) Expr) *FoldDef {
	return &FoldDef{
		Name:         name,
		Accumulators: []Accumulator{{Name: "r", Init: Int(0)}},
		Elements:     []string{"xi", "yi"},
		Steps:        []Expr{Binary(OpAdd, Var("r"), term(Var("xi"), Var("yi")))},
		NumericOnly:  true,
	}
}

func square(x Expr) Expr { return Binary(OpMul, x, x) }

var standardFolds = map[string]*FoldDef{
	"SUM":     sumDef("SUM"),
	"PRODUCT": productDef("PRODUCT"),
	"SUMSQ":   simpleFold("SUMSQ", Int(0), func(r, x Expr) Expr { return Binary(OpAdd, r, square(x)) }),
	"COUNT":   countDef("COUNT", true),
	"COUNTA":  countDef("COUNTA", false),
	"AVERAGE": averageDef("AVERAGE"),
	"MIN":     extremeDef("MIN", OpMin),
	"MAX":     extremeDef("MAX", OpMax),

	"SUMX2MY2": pairDef("SUMX2MY2", func(x, y Expr) Expr { return Binary(OpSub, square(x), square(y)) }),
	"SUMX2PY2": pairDef("SUMX2PY2", func(x, y Expr) Expr { return Binary(OpAdd, square(x), square(y)) }),
	"SUMXMY2":  pairDef("SUMXMY2", func(x, y Expr) Expr { return square(Binary(OpSub, x, y)) }),

	"DSUM":     sumDef("DSUM"),
	"DPRODUCT": productDef("DPRODUCT"),
	"DCOUNT":   countDef("DCOUNT", true),
	"DCOUNTA":  countDef("DCOUNTA", false),
	"DMIN":     extremeDef("DMIN", OpMin),
	"DMAX":     extremeDef("DMAX", OpMax),
	"DAVERAGE": averageDef("DAVERAGE"),
	"DVAR":     varianceDef("DVAR", true, false),
	"DVARP":    varianceDef("DVARP", false, false),
	"DSTDEV":   varianceDef("DSTDEV", true, true),
	"DSTDEVP":  varianceDef("DSTDEVP", false, true),
	"DGET":     getDef("DGET"),
}

// StandardFold returns the fold behind an aggregation, a vector pair sum or
// a database function, or nil.
func StandardFold(name string) *FoldDef {
	return standardFolds[name]
}
