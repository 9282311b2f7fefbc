package app_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/formulagrid/internal/app"
	"github.com/specialistvlad/formulagrid/internal/compiler"
	"github.com/specialistvlad/formulagrid/internal/testutil"
)

const orders = `
cell "discount" { input = "Discount" }

section "items" {
  source = "Items"

  cell "price" { input = "Price" }
  cell "qty"   { input = "Qty" }
  cell "net" {
    formula = price * qty * (1 - discount)
    output  = true
  }
}

cell "total" {
  formula = SUM(items.net)
  output  = true
}

cell "average" {
  formula = total / COUNT(items.net)
  output  = true
}

cell "day" {
  formula = DAY(DATE(2024, 3, 0))
  output  = true
}
`

const orderInputs = `
Discount = 0.1

Items {
  Price = 10
  Qty   = 3
}

Items {
  Price = 2.5
  Qty   = 2
}
`

func TestApp_Run(t *testing.T) {
	t.Parallel()

	// Arrange
	a, out, logs := testutil.SetupAppTest(t, app.Config{Numeric: "decimal", Scale: 2, Rounding: "half-up"}, orders, orderInputs)

	// Act
	err := a.Run(context.Background())

	// Assert
	require.NoError(t, err)
	want := "average = 15.75\n" +
		"day = 29\n" +
		"items[0].net = 27\n" +
		"items[1].net = 4.5\n" +
		"total = 31.5\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("unexpected output (-want +got):\n%s", diff)
	}
	assert.Contains(t, logs.String(), "Model compiled.")
	assert.Contains(t, logs.String(), "Computation finished.")
}

func TestApp_RunWithoutInputs(t *testing.T) {
	t.Parallel()

	a, out, _ := testutil.SetupAppTest(t, app.Config{}, orders, "")

	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), "total = 0\n")
	assert.Contains(t, out.String(), "average = error: ")
}

func TestApp_RunTrace(t *testing.T) {
	t.Parallel()

	a, _, logs := testutil.SetupAppTest(t, app.Config{Trace: true}, orders, orderInputs)

	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, logs.String(), "Cell evaluated.")
	assert.Contains(t, logs.String(), "cell=items.net")
}

func TestApp_RunFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		model  string
		inputs string
		want   string
	}{
		{"model syntax", `cell "a" {`, "", "failed to load model"},
		{"unknown cell", `cell "a" { formula = b }`, "", "There is no cell named b"},
		{"wrong arity", `cell "a" { formula = ROUND(1) }`, "", "failed to compile model"},
		{"bad inputs", orders, `Discount = `, "failed to parse inputs"},
		{"bad collection", orders, `Items = 1`, "input Items: decimal.Decimal is not a collection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, _, _ := testutil.SetupAppTest(t, app.Config{}, tt.model, tt.inputs)
			err := a.Run(context.Background())
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestApp_RunReportsInputErrors(t *testing.T) {
	t.Parallel()

	// Arrange
	a, out, _ := testutil.SetupAppTest(t, app.Config{}, orders, `Items = 1`)

	// Act
	err := a.Run(context.Background())

	// Assert
	var inputErr *compiler.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, inputErr.Error(), "Items")
	assert.Empty(t, out.String(), "outputs read before the failure are not printed")
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  app.Config
		want string
	}{
		{"missing model", app.Config{}, "ModelPath is a required"},
		{"numeric kind", app.Config{ModelPath: "m", Numeric: "complex"}, "unknown numeric type"},
		{"rounding", app.Config{ModelPath: "m", Rounding: "sideways"}, "unknown rounding mode"},
		{"mode", app.Config{ModelPath: "m", Mode: "lotus"}, "unknown computation mode"},
		{"locale", app.Config{ModelPath: "m", Locale: "not a locale!"}, "invalid locale"},
		{"timezone", app.Config{ModelPath: "m", Timezone: "Mars/Olympus"}, "invalid timezone"},
		{"fixed scale", app.Config{ModelPath: "m", Numeric: "fixed", Scale: 19}, "invalid numeric configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := app.NewConfig(tt.cfg)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	cfg, err := app.NewConfig(app.Config{ModelPath: "m", Numeric: "fixed", Scale: 4, Locale: "de-DE", Timezone: "Europe/Berlin", Mode: "openoffice"})
	require.NoError(t, err)
	assert.Equal(t, "fixed(scale=4, half-up)", cfg.NumericConfig().String())
	assert.Equal(t, "Europe/Berlin", cfg.Environment().Location().String())
	assert.Equal(t, ',', cfg.Environment().DecimalSeparator())
}
