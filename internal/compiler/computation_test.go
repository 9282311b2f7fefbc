package compiler_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/formulagrid/internal/compiler"
	"github.com/specialistvlad/formulagrid/internal/model"
)

// loan publishes a payment schedule: a total, a rate table keyed by term and
// per-installment sections.
func loan() *model.Model {
	m := model.New()
	principal := m.Root.AddInput("principal", model.Numeric, model.Accessor("Principal"))
	m.Root.AddFormula("interest", model.Binary(model.OpMul, principal.Ref(), model.Num("0.05"))).Output()
	m.Root.AddConstant("short", model.Num("0.04")).Output(model.Accessor("rate", 12))
	m.Root.AddConstant("long", model.Num("0.06")).Output(model.Accessor("rate", 24))
	m.Root.AddFormula("large", model.Binary(model.OpGT, principal.Ref(), model.Int(1000))).Output()
	m.Root.AddFormula("start", model.Fn("DATE", model.Int(2024), model.Int(2), model.Int(29))).Output()
	m.Root.AddFormula("name", model.Binary(model.OpConcat, model.Str("loan "), principal.Ref())).Output()
	parts := m.Root.AddSection("parts", model.Accessor("Parts"))
	parts.Output = "installments"
	amount := parts.AddInput("amount", model.Numeric, model.Accessor("Amount"))
	parts.AddFormula("due", model.Binary(model.OpMul, amount.Ref(), model.Num("1.05"))).Output()
	return m
}

type schedule struct {
	Interest     func() (decimal.Decimal, error)
	InterestCent func() (int64, error) `output:"interest" scale:"2"`
	Rate         func(term int) (float64, error)
	Large        func() (bool, error)
	Start        func() (time.Time, error)
	Name         func() (string, error)
	Installments func() ([]*compiler.Computation, error)
	Reset        func()

	unexported int
}

func TestComputation_Bind(t *testing.T) {
	t.Parallel()

	// Arrange
	e := compile(t, loan(), compiler.Options{Numeric: backends["decimal"]})
	input := model.Record{"Principal": 1500, "Parts": []model.Record{{"Amount": 100}, {"Amount": 200}}}
	var s schedule

	// Act
	require.NoError(t, e.NewComputation(input).Bind(&s))

	// Assert
	interest, err := s.Interest()
	require.NoError(t, err)
	assert.Equal(t, "75", interest.String())

	cents, err := s.InterestCent()
	require.NoError(t, err)
	assert.Equal(t, int64(7500), cents)

	rate, err := s.Rate(24)
	require.NoError(t, err)
	assert.Equal(t, 0.06, rate)
	_, err = s.Rate(36)
	assert.Error(t, err, "no output is published for this argument")

	large, err := s.Large()
	require.NoError(t, err)
	assert.True(t, large)

	start, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), start)

	name, err := s.Name()
	require.NoError(t, err)
	assert.Equal(t, "loan 1500", name)

	parts, err := s.Installments()
	require.NoError(t, err)
	require.Len(t, parts, 2)
	due, err := parts[1].Float("due")
	require.NoError(t, err)
	assert.Equal(t, 210.0, due)

	input["Principal"] = 10
	s.Reset()
	large, err = s.Large()
	require.NoError(t, err)
	assert.False(t, large)
}

func TestComputation_BindRejectsUnknownOutputs(t *testing.T) {
	t.Parallel()

	c := compile(t, loan(), compiler.Options{}).NewComputation(nil)

	var missing struct {
		Missing func() (float64, error)
	}
	assert.ErrorContains(t, c.Bind(&missing), "no output named Missing")

	var badResult struct {
		Interest func() float64
	}
	assert.Error(t, c.Bind(&badResult))

	assert.Error(t, c.Bind(struct{}{}))
}

func TestComputation_Conversions(t *testing.T) {
	t.Parallel()

	c := compile(t, loan(), compiler.Options{}).NewComputation(model.Record{"Principal": 999})

	v, err := c.Get("interest")
	require.NoError(t, err)
	assert.InDelta(t, 49.95, v, 1e-9)

	rounded, err := c.Int("interest")
	require.NoError(t, err)
	assert.Equal(t, 50, rounded)

	text, err := c.Text("large")
	require.NoError(t, err)
	assert.Equal(t, "FALSE", text)

	large, err := c.Get("large")
	require.NoError(t, err)
	assert.Equal(t, false, large)

	_, err = c.Float("name")
	assert.Error(t, err, "text outputs are not numbers")

	_, err = c.Float("nothing")
	assert.ErrorContains(t, err, "no output named nothing")
}
