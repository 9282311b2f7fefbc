package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/formulagrid/internal/compiler"
	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/numeric"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

func ints(vs ...int) []model.Expr {
	out := make([]model.Expr, len(vs))
	for i, v := range vs {
		out[i] = model.Int(v)
	}
	return out
}

func strs(vs ...string) []model.Expr {
	out := make([]model.Expr, len(vs))
	for i, v := range vs {
		out[i] = model.Str(v)
	}
	return out
}

func TestLookup_NumericResults(t *testing.T) {
	t.Parallel()

	odd := model.Row(ints(1, 3, 5)...)
	square := model.Grid(ints(1, 2), ints(3, 4))

	tests := []struct {
		name string
		expr model.Expr
		want float64
	}{
		{"MATCH exact", model.Fn("MATCH", model.Int(3), odd, model.Int(0)), 2},
		{"MATCH ascending", model.Fn("MATCH", model.Int(4), odd), 2},
		{"MATCH wildcard", model.Fn("MATCH", model.Str("b*"), model.Row(strs("apple", "banana")...), model.Int(0)), 2},
		{"INDEX vector", model.Fn("INDEX", model.Row(ints(10, 20, 30)...), model.Int(2)), 20},
		{"INDEX grid", model.Fn("INDEX", square, model.Int(2), model.Int(1)), 3},
		{"INDEX outside", model.Fn("INDEX", model.Row(ints(10, 20)...), model.Int(5)), 0},
		{"CHOOSE", model.Fn("CHOOSE", model.Int(3), model.Int(7), model.Int(8), model.Int(9)), 9},
		{"HLOOKUP", model.Fn("HLOOKUP", model.Str("b"), model.Grid(strs("a", "b"), ints(10, 20)), model.Int(2)), 20},
		{"VLOOKUP approximate", model.Fn("VLOOKUP", model.Int(25), model.Grid(ints(0, 1), ints(10, 2), ints(20, 3), ints(30, 4)), model.Int(2)), 3},
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

func TestLookup_TextResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr model.Expr
		want string
	}{
		{"VLOOKUP exact", model.Fn("VLOOKUP", model.Int(2), model.Grid(
			[]model.Expr{model.Int(1), model.Str("one")},
			[]model.Expr{model.Int(2), model.Str("two")},
		), model.Int(2), model.Bool(false)), "two"},
		{"LOOKUP result vector", model.Fn("LOOKUP", model.Int(4), model.Row(ints(1, 3, 5)...), model.Row(strs("a", "b", "c")...)), "b"},
		{"CHOOSE", model.Fn("CHOOSE", model.Int(2), model.Str("x"), model.Str("y")), "y"},
		{"IF without else", model.Fn("IF", model.Bool(true), model.Str("yes")), "yes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := evaluate(t, tt.expr).Text("r")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup_Failures(t *testing.T) {
	t.Parallel()

	_, err := evaluate(t, model.Fn("CHOOSE", model.Int(4), model.Int(1), model.Int(2))).Float("r")
	var fe *runtime.FormulaError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, runtime.CodeValue, fe.Code)

	_, err = evaluate(t, model.Fn("VLOOKUP", model.Int(1), model.Grid(ints(1, 2)), model.Int(3))).Float("r")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, runtime.CodeRef, fe.Code)

	_, err = evaluate(t, model.Fn("VLOOKUP", model.Int(7), model.Grid(ints(1, 2), ints(3, 4)), model.Int(2), model.Bool(false))).Float("r")
	assert.True(t, runtime.IsNotAvailable(err))
}

func TestLookup_OverSectionInstances(t *testing.T) {
	t.Parallel()

	// Arrange
	m := model.New()
	query := m.Root.AddInput("query", model.Text, model.Accessor("Query"))
	rates := m.Root.AddSection("rates", model.Accessor("Rates"))
	code := rates.AddInput("code", model.Text, model.Accessor("Code"))
	value := rates.AddInput("value", model.Numeric, model.Accessor("Value"))
	table := &model.SubSection{Section: rates, Args: []model.Expr{code.Ref(), value.Ref()}}
	m.Root.AddFormula("rate", model.Fn("VLOOKUP", query.Ref(), table, model.Int(2), model.Bool(false))).Output()
	position := m.Root.AddFormula("position", model.Fn("MATCH", query.Ref(), &model.SubSection{Section: rates, Args: []model.Expr{code.Ref()}}, model.Int(0))).Output()
	values := &model.SubSection{Section: rates, Args: []model.Expr{value.Ref()}}
	m.Root.AddFormula("picked", model.Fn("INDEX", values, position.Ref())).Output()
	e := compile(t, m, compiler.Options{Numeric: numeric.DecimalConfig(numeric.Unscaled, numeric.HalfUp)})

	// Act
	c := e.NewComputation(model.Record{
		"Query": "GBP",
		"Rates": []model.Record{
			{"Code": "EUR", "Value": "1.08"},
			{"Code": "GBP", "Value": "1.27"},
		},
	})

	// Assert
	rate, err := c.Decimal("rate")
	require.NoError(t, err)
	assert.Equal(t, "1.27", rate.String())
	pos, err := c.Int("position")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	picked, err := c.Decimal("picked")
	require.NoError(t, err)
	assert.Equal(t, "1.27", picked.String())
}
