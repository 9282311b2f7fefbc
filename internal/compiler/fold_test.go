package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/formulagrid/internal/compiler"
	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

func TestFold_StandardAggregates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr model.Expr
		want float64
	}{
		{"SUM", model.Agg("SUM", model.Int(1), model.Int(2), model.Int(3)), 6},
		{"SUM flattens arrays", model.Agg("SUM", model.Row(ints(1, 2)...), model.Int(3)), 6},
		{"PRODUCT", model.Agg("PRODUCT", model.Int(2), model.Int(3), model.Int(4)), 24},
		{"SUMSQ", model.Agg("SUMSQ", model.Int(3), model.Int(4)), 25},
		{"AVERAGE", model.Agg("AVERAGE", model.Int(2), model.Int(4)), 3},
		{"MAX of negatives", model.Agg("MAX", model.Int(-3), model.Int(-7)), -3},
		{"MIN", model.Agg("MIN", model.Int(3), model.Int(7), model.Int(5)), 3},
		{"COUNT skips text", model.Agg("COUNT", model.Str("a"), model.Int(1), model.Int(2)), 2},
		{"COUNTA counts text", model.Agg("COUNTA", model.Str("a"), model.Int(1)), 2},
		{"VAR", model.Fn("VAR", model.Row(ints(2, 4, 4, 4, 5, 5, 7, 9)...)), 32.0 / 7},
		{"STDEVP", model.Fn("STDEVP", model.Row(ints(2, 4, 4, 4, 5, 5, 7, 9)...)), 2},
		{"SUMPRODUCT", model.Fn("SUMPRODUCT", model.Row(ints(1, 2, 3)...), model.Row(ints(4, 5, 6)...)), 32},
		{"MEDIAN", model.Fn("MEDIAN", model.Row(ints(5, 1, 3, 2)...)), 2.5},
		{"LARGE", model.Fn("LARGE", model.Row(ints(5, 1, 3)...), model.Int(2)), 3},
		{"SUMXMY2", model.Fn("SUMXMY2", model.Row(ints(2, 3)...), model.Row(ints(1, 1)...)), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := evaluate(t, tt.expr).Float("r")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestFold_EmptySectionsUseTheEmptyValue(t *testing.T) {
	t.Parallel()

	m := model.New()
	items := m.Root.AddSection("items", model.Accessor("Items"))
	v := items.AddInput("v", model.Numeric, model.Accessor("V"))
	each := func() *model.SubSection { return &model.SubSection{Section: items, Args: []model.Expr{v.Ref()}} }
	for _, fn := range []string{"SUM", "PRODUCT", "MIN", "MAX", "COUNT"} {
		m.Root.AddFormula(fn, model.Agg(fn, each())).Output()
	}
	require.NoError(t, m.Analyze())

	for name, cfg := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := compile(t, m, compiler.Options{Numeric: cfg}).NewComputation(model.Record{"Items": []model.Record{}})
			for _, fn := range []string{"SUM", "PRODUCT", "MIN", "MAX", "COUNT"} {
				got, err := c.Float(fn)
				require.NoError(t, err)
				assert.Zero(t, got, fn)
			}
		})
	}
}

func TestFold_MismatchedVectors(t *testing.T) {
	t.Parallel()

	_, err := evaluate(t, model.Fn("SUMXMY2", model.Row(ints(1, 2)...), model.Row(ints(1, 2, 3)...))).Float("r")

	assert.True(t, runtime.IsNotAvailable(err))
}

// fruit is a database table whose first row holds the labels.
func fruit() *model.Array {
	return model.Grid(
		[]model.Expr{model.Str("Name"), model.Str("Qty")},
		[]model.Expr{model.Str("apple"), model.Int(10)},
		[]model.Expr{model.Str("pear"), model.Int(20)},
		[]model.Expr{model.Str("apple"), model.Int(5)},
	)
}

func TestFold_DatabaseFunctions(t *testing.T) {
	t.Parallel()

	byName := model.Grid(strs("Name"), strs("apple"))
	large := model.Grid(strs("Qty"), strs(">8"))

	tests := []struct {
		name string
		expr model.Expr
		want float64
	}{
		{"DSUM by label", model.Fn("DSUM", fruit(), model.Str("Qty"), byName), 15},
		{"DCOUNT by index", model.Fn("DCOUNT", fruit(), model.Int(2), large), 2},
		{"DMAX", model.Fn("DMAX", fruit(), model.Str("Qty"), byName), 10},
		{"DAVERAGE", model.Fn("DAVERAGE", fruit(), model.Str("Qty"), large), 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := evaluate(t, tt.expr).Float("r")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFold_DatabaseOverSections(t *testing.T) {
	t.Parallel()

	// Arrange
	m := model.New()
	rows := m.Root.AddSection("rows", model.Accessor("Rows"))
	name := rows.AddInput("name", model.Text, model.Accessor("Name"))
	qty := rows.AddInput("qty", model.Numeric, model.Accessor("Qty"))
	table := &model.SubSection{Section: rows, Args: []model.Expr{name.Ref(), qty.Ref()}}
	labels := model.Row(strs("Name", "Qty")...)
	total, err := model.NewDatabaseFold("DSUM", model.Column(labels, table), model.Str("Qty"), model.Grid(strs("Name"), strs("apple")))
	require.NoError(t, err)
	m.Root.AddFormula("apples", total).Output()

	// Act
	c := compile(t, m, compiler.Options{Numeric: backends["decimal"]}).NewComputation(model.Record{"Rows": []model.Record{
		{"Name": "apple", "Qty": 10},
		{"Name": "pear", "Qty": 20},
		{"Name": "Apple", "Qty": 5},
	}})
	got, err := c.Float("apples")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 15.0, got)
}

// mixed is the range {"a", 10, "b", 3}.
func mixed() model.Expr {
	return model.Row(model.Str("a"), model.Int(10), model.Str("b"), model.Int(3))
}

func TestFold_ConditionalSums(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr model.Expr
		want float64
	}{
		{"SUMIF numeric criterion", model.Fn("SUMIF", model.Row(ints(1, 2, 3, 4)...), model.Str(">2")), 7},
		{"SUMIF separate sum range", model.Fn("SUMIF", model.Row(strs("x", "y", "x")...), model.Str("x"), model.Row(ints(1, 2, 3)...)), 4},
		{"COUNTIF ignores case", model.Fn("COUNTIF", model.Row(strs("a", "b", "A")...), model.Str("a")), 2},
		{"COUNTIF number", model.Fn("COUNTIF", model.Row(ints(1, 2, 1)...), model.Int(1)), 2},
		{"COUNTIF numeric criterion skips text", model.Fn("COUNTIF", mixed(), model.Str(">5")), 1},
		{"COUNTIF text criterion skips numbers", model.Fn("COUNTIF", mixed(), model.Str("<b")), 1},
		{"COUNTIF not equal matches either type", model.Fn("COUNTIF", mixed(), model.Str("<>5")), 4},
		{"SUMIF numeric criterion skips text", model.Fn("SUMIF", mixed(), model.Str(">2"), model.Row(ints(1, 2, 3, 4)...)), 6},
		{"SUMIF text criterion skips numbers", model.Fn("SUMIF", mixed(), model.Str(">=a"), model.Row(ints(1, 2, 3, 4)...)), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := evaluate(t, tt.expr).Float("r")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
