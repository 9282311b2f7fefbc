package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderModel is a small invoice: a root with a discount and a repeating
// items section.
func orderModel(t *testing.T) (*Model, map[string]*Cell) {
	t.Helper()
	m := New()
	root := m.Root
	discount := root.AddInput("discount", Numeric, Accessor("Discount"))
	items := root.AddSection("items", Accessor("Items"))
	price := items.AddInput("price", Numeric, Accessor("Price"))
	qty := items.AddInput("qty", Numeric, Accessor("Qty"))
	amount := items.AddFormula("amount", Binary(OpMul, price.Ref(), qty.Ref()))
	net := items.AddFormula("net", Binary(OpMul, amount.Ref(), Binary(OpSub, Int(1), discount.Ref())))
	total := root.AddFormula("total", Agg("SUM", &SubSection{Section: items, Args: []Expr{net.Ref()}})).Output()
	label := root.AddFormula("label", Binary(OpConcat, Str("Total: "), total.Ref())).Output()
	return m, map[string]*Cell{
		"discount": discount, "price": price, "qty": qty, "amount": amount,
		"net": net, "total": total, "label": label,
	}
}

func TestAnalyze_ReferenceCountsDecideMaterialization(t *testing.T) {
	t.Parallel()

	// Arrange
	m, c := orderModel(t)

	// Act
	require.NoError(t, m.Analyze())

	// Assert
	assert.True(t, m.Analyzed())
	assert.Equal(t, 1, c["amount"].References())
	assert.False(t, c["amount"].Materialized(), "a formula read once is inlined")
	assert.Equal(t, 1, c["discount"].References())
	assert.True(t, c["discount"].Materialized(), "an input read once is materialized")
	assert.True(t, c["total"].Materialized(), "outputs are materialized")
	assert.Equal(t, 1, c["total"].References())
	assert.False(t, c["net"].Materialized())
}

func TestAnalyze_TwoReferencesMaterialize(t *testing.T) {
	t.Parallel()

	m := New()
	a := m.Root.AddFormula("a", Binary(OpAdd, Int(1), Int(2)))
	m.Root.AddFormula("b", Binary(OpMul, a.Ref(), a.Ref())).Output()

	require.NoError(t, m.Analyze())
	assert.Equal(t, 2, a.References())
	assert.True(t, a.Materialized())
	assert.True(t, a.CachingCandidate())
}

func TestAnalyze_ConstantsAreNotCached(t *testing.T) {
	t.Parallel()

	m := New()
	rate := m.Root.AddConstant("rate", Num("0.2")).Output()
	m.Root.AddFormula("vat", Binary(OpMul, rate.Ref(), Int(100))).Output()

	require.NoError(t, m.Analyze())
	assert.True(t, rate.Materialized())
	assert.False(t, rate.CachingCandidate())
}

func TestAnalyze_InfersTypes(t *testing.T) {
	t.Parallel()

	m, c := orderModel(t)
	flag := m.Root.AddFormula("big", Binary(OpGT, c["total"].Ref(), Int(100)))
	choice := m.Root.AddFormula("size", Fn("IF", flag.Ref(), Str("large"), Str("small")))
	declared := m.Root.AddFormula("asText", c["total"].Ref()).Typed(Text)

	require.NoError(t, m.Analyze())
	assert.Equal(t, Numeric, c["total"].Type)
	assert.Equal(t, Text, c["label"].Type)
	assert.Equal(t, Boolean, flag.Type)
	assert.Equal(t, Text, choice.Type)
	assert.Equal(t, Text, declared.Type)
}

func TestAnalyze_DetectsCycles(t *testing.T) {
	t.Parallel()

	t.Run("between cells", func(t *testing.T) {
		m := New()
		a := m.Root.AddFormula("a", Int(1))
		b := m.Root.AddFormula("b", a.Ref())
		a.Expr = Binary(OpAdd, b.Ref(), Int(1))

		assert.ErrorContains(t, m.Analyze(), "cycle detected: a -> b -> a")
		assert.False(t, m.Analyzed())
	})

	t.Run("self reference", func(t *testing.T) {
		m := New()
		a := m.Root.AddFormula("a", Int(1))
		a.Expr = Binary(OpAdd, a.Ref(), Int(1))

		assert.ErrorContains(t, m.Analyze(), "cycle detected: a -> a")
	})

	t.Run("through an aggregation", func(t *testing.T) {
		m, c := orderModel(t)
		c["price"].Kind = FormulaCell
		c["price"].Expr = c["total"].Ref()

		assert.ErrorContains(t, m.Analyze(), "cycle detected")
	})
}

func TestAnalyze_RejectsInvalidExpressions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		build func(m *Model, items *Section, price *Cell)
		want  string
	}{
		{
			name: "descendant reference without aggregation",
			build: func(m *Model, _ *Section, price *Cell) {
				m.Root.AddFormula("bad", Binary(OpAdd, price.Ref(), Int(1)))
			},
			want: "read it through an aggregation",
		},
		{
			name: "section outside an aggregation",
			build: func(m *Model, items *Section, price *Cell) {
				m.Root.AddFormula("bad", Binary(OpAdd, &SubSection{Section: items, Args: []Expr{price.Ref()}}, Int(1)))
			},
			want: "must be aggregated",
		},
		{
			name: "array in a scalar position",
			build: func(m *Model, _ *Section, _ *Cell) {
				m.Root.AddFormula("bad", Fn("ABS", Row(Int(1), Int(2))))
			},
			want: "single value is expected",
		},
		{
			name: "unknown function",
			build: func(m *Model, _ *Section, _ *Cell) {
				m.Root.AddFormula("bad", Fn("FROBNICATE", Int(1)))
			},
			want: "unknown function FROBNICATE",
		},
		{
			name: "wrong arity",
			build: func(m *Model, _ *Section, _ *Cell) {
				m.Root.AddFormula("bad", Fn("ROUND", Int(1)))
			},
			want: "wrong number of arguments to ROUND",
		},
		{
			name: "unbound name",
			build: func(m *Model, _ *Section, _ *Cell) {
				m.Root.AddFormula("bad", &Let{Name: "x", Value: Int(1), Body: Var("y")})
			},
			want: "unbound name y",
		},
		{
			name: "duplicate cell name",
			build: func(m *Model, items *Section, _ *Cell) {
				items.AddInput("PRICE", Numeric, Accessor("Price2"))
			},
			want: `duplicate name "PRICE"`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := New()
			items := m.Root.AddSection("items", Accessor("Items"))
			price := items.AddInput("price", Numeric, Accessor("Price"))
			tc.build(m, items, price)

			err := m.Analyze()
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestAnalyze_ReportsAllProblems(t *testing.T) {
	t.Parallel()

	m := New()
	m.Root.AddFormula("a", Fn("NOPE"))
	m.Root.AddFormula("b", Fn("ROUND"))

	err := m.Analyze()
	require.Error(t, err)
	assert.ErrorContains(t, err, "cell a: unknown function NOPE")
	assert.ErrorContains(t, err, "cell b: wrong number of arguments")
}

func TestSection_Paths(t *testing.T) {
	t.Parallel()

	m := New()
	orders := m.Root.AddSection("orders", Accessor("Orders"))
	lines := orders.AddSection("lines", Accessor("Lines"))
	c := lines.AddInput("qty", Numeric, Accessor("Qty"))

	assert.Equal(t, "orders.lines.qty", c.Path())
	assert.Equal(t, 2, lines.Depth())
	assert.True(t, m.Root.Encloses(lines))
	assert.True(t, lines.Encloses(lines))
	assert.False(t, lines.Encloses(orders))
	assert.Same(t, lines, orders.Child("LINES"))
	assert.Same(t, c, lines.Cell("Qty"))
	assert.Equal(t, "lines", lines.OutputName())
	assert.Len(t, m.Sections(), 3)
}
