package hclmodel_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/formulagrid/internal/compiler"
	"github.com/specialistvlad/formulagrid/internal/hclmodel"
	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/numeric"
	"github.com/specialistvlad/formulagrid/internal/testutil"
)

const invoice = `
cell "discount" {
  input = "Discount"
  type  = number
}

cell "customer" {
  input = "Customer"
  type  = string
}

section "items" {
  source = "Items"
  output = "lines"

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

cell "label" {
  formula = "${upper(customer)}: ${total}"
  output  = "Label"
}

cell "size" {
  formula = total > 100 ? "large" : "small"
  output  = true
}

cell "vat" {
  value  = 0.2
  output = true
}
`

func compileHCL(t *testing.T, src string) *compiler.Engine {
	t.Helper()
	ctx, _ := testutil.Context(t)
	m, err := hclmodel.Parse("model.hcl", []byte(src))
	require.NoError(t, err)
	e, err := compiler.Compile(ctx, m, compiler.Options{Numeric: numeric.DecimalConfig(4, numeric.HalfUp)})
	require.NoError(t, err)
	return e
}

func TestParse_Invoice(t *testing.T) {
	t.Parallel()

	// Arrange
	e := compileHCL(t, invoice)
	input := model.Record{
		"Discount": 0.1,
		"Customer": "acme",
		"Items": []model.Record{
			{"Price": 10, "Qty": 3},
			{"Price": 100, "Qty": 1},
		},
	}

	// Act
	c := e.NewComputation(input)

	// Assert
	total, err := c.Decimal("total")
	require.NoError(t, err)
	assert.Equal(t, "117", total.String())

	label, err := c.Text("Label")
	require.NoError(t, err)
	assert.Equal(t, "ACME: 117", label)

	size, err := c.Text("size")
	require.NoError(t, err)
	assert.Equal(t, "large", size)

	vat, err := c.Float("vat")
	require.NoError(t, err)
	assert.Equal(t, 0.2, vat)

	lines, err := c.Sections("lines")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	net, err := lines[0].Float("net")
	require.NoError(t, err)
	assert.Equal(t, 27.0, net)
}

func TestParse_Formulas(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		formula string
		want    float64
	}{
		{"precedence", `1 + 2 * 3`, 7},
		{"modulo", `-7 % 3`, 2},
		{"logical operators", `(1 < 2 && !(2 < 1)) || false ? 1 : 0`, 1},
		{"lower case functions", `round(2.555, 2)`, 2.56},
		{"forward reference", `later * 2`, 8},
		{"let", `LET(x, 3, x * x + x)`, 12},
		{"grid lookup", `VLOOKUP(2, [[1, 10], [2, 20], [3, 30]], 2)`, 20},
		{"row aggregate", `MAX([4, 9, 2])`, 9},
		{"database function", `DSUM([["Qty"], [5], [7]], "Qty", [["Qty"], [">5"]])`, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := `
cell "r" {
  formula = ` + tt.formula + `
  output  = true
}
cell "later" { value = 4 }
`
			got, err := compileHCL(t, src).NewComputation(nil).Float("r")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParse_NestedSections(t *testing.T) {
	t.Parallel()

	// Arrange
	src := `
section "orders" {
  source = "Orders"

  cell "fee" { value = 1 }

  section "lines" {
    source = "Lines"
    cell "amount" { input = "Amount" }
    cell "charged" { formula = amount + fee }
  }

  cell "subtotal" { formula = SUM(lines.charged) }
}

cell "all_lines" {
  formula = SUM(orders.lines.amount)
  output  = true
}

cell "largest_order" {
  formula = MAX(orders.subtotal)
  output  = true
}

cell "by_count" {
  formula = VLOOKUP(2, EACH(orders, COUNT(lines.amount), subtotal), 2, false)
  output  = true
}
`
	input := model.Record{"Orders": []model.Record{
		{"Lines": []model.Record{{"Amount": 5}, {"Amount": 6}}},
		{"Lines": []model.Record{{"Amount": 20}}},
	}}

	// Act
	c := compileHCL(t, src).NewComputation(input)

	// Assert
	all, err := c.Float("all_lines")
	require.NoError(t, err)
	assert.Equal(t, 31.0, all)

	largest, err := c.Float("largest_order")
	require.NoError(t, err)
	assert.Equal(t, 21.0, largest)

	byCount, err := c.Float("by_count")
	require.NoError(t, err)
	assert.Equal(t, 13.0, byCount)
}

func TestParse_Bindings(t *testing.T) {
	t.Parallel()

	src := `
cell "balance" {
  input      = "Balance"
  input_args = ["EUR"]
}
cell "cents" {
  input = "Cents"
  scale = 2
}
cell "flag" {
  value = "yes"
  type  = string
}
cell "twice" {
  formula     = balance * 2 + cents
  output      = "rate"
  output_args = [12]
}
cell "hidden" {
  formula = 1
  output  = false
}
`
	m, err := hclmodel.Parse("model.hcl", []byte(src))
	require.NoError(t, err)

	balance := m.Root.Cell("balance")
	assert.Equal(t, model.Accessor("Balance", "EUR"), balance.Input)
	assert.Equal(t, model.Accessor("Cents").WithScale(2), m.Root.Cell("cents").Input)
	assert.Equal(t, model.ConstantCell, m.Root.Cell("flag").Kind)
	assert.Equal(t, []model.Binding{model.Accessor("rate", 12)}, m.Root.Cell("twice").Outputs)
	assert.False(t, m.Root.Cell("hidden").IsOutput())
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown cell", `cell "a" { formula = b + 1 }`, "There is no cell named b"},
		{"unknown function", `cell "a" { formula = NOPE(1) }`, "There is no function named"},
		{"two sources", `cell "a" {
  value   = 1
  formula = 2
}`, "must set exactly one of"},
		{"no source", `cell "a" { output = true }`, "must set exactly one of"},
		{"duplicate cell", `
cell "a" { value = 1 }
cell "A" { value = 2 }`, "Duplicate cell"},
		{"bad type keyword", `cell "a" {
  value = 1
  type  = money
}`, "Unknown type"},
		{"bad constant", `cell "a" {
  value = "x"
  type  = number
}`, "Invalid constant"},
		{"indexing", `
cell "a" { value = 1 }
cell "b" { formula = a[0] }`, "Indexing a[0] is not supported"},
		{"top-level attribute", `a = 1`, "Unexpected attribute"},
		{"unknown section", `cell "a" { formula = SUM(EACH(rows, 1)) }`, "no section named"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := hclmodel.Parse("model.hcl", []byte(tt.src))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoader_LoadMergesFiles(t *testing.T) {
	t.Parallel()

	// Arrange
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(`cell "x" { input = "X" }`), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.hcl"), []byte(`
cell "y" {
  formula = x * 2
  output  = true
}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))
	ctx, logs := testutil.Context(t)

	// Act
	m, err := hclmodel.NewLoader().Load(ctx, dir)

	// Assert
	require.NoError(t, err)
	e, err := compiler.Compile(ctx, m, compiler.Options{})
	require.NoError(t, err)
	y, err := e.NewComputation(model.Record{"X": 21}).Float("y")
	require.NoError(t, err)
	assert.Equal(t, 42.0, y)
	assert.Contains(t, logs.String(), "HCL model loaded.")
}

func TestLoader_LoadFailures(t *testing.T) {
	t.Parallel()

	ctx, _ := testutil.Context(t)
	dir := t.TempDir()

	_, err := hclmodel.NewLoader().Load(ctx, dir)
	assert.ErrorContains(t, err, "no .hcl model files")

	_, err = hclmodel.NewLoader().Load(ctx, filepath.Join(dir, "missing.hcl"))
	assert.ErrorContains(t, err, "error accessing path")

	bad := filepath.Join(dir, "bad.hcl")
	require.NoError(t, os.WriteFile(bad, []byte(`cell "a" {`), 0o600))
	_, err = hclmodel.NewLoader().Load(ctx, bad)
	assert.ErrorContains(t, err, "failed to parse HCL file")
}
