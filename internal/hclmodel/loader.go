package hclmodel

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/specialistvlad/formulagrid/internal/ctxlog"
	"github.com/specialistvlad/formulagrid/internal/fsutil"
	"github.com/specialistvlad/formulagrid/internal/model"
)

// fileRoot decodes the top-level blocks of a model file.
type fileRoot struct {
	Cells    []*cellBlock    `hcl:"cell,block"`
	Sections []*sectionBlock `hcl:"section,block"`
	Remain   hcl.Body        `hcl:",remain"`
}

// cellBlock is a cell. Exactly one of Value, Input and Formula is set.
type cellBlock struct {
	Name       string         `hcl:"name,label"`
	Type       hcl.Expression `hcl:"type,optional"`
	Value      hcl.Expression `hcl:"value,optional"`
	Input      *string        `hcl:"input,optional"`
	InputArgs  hcl.Expression `hcl:"input_args,optional"`
	Scale      *int           `hcl:"scale,optional"`
	Formula    hcl.Expression `hcl:"formula,optional"`
	Output     hcl.Expression `hcl:"output,optional"`
	OutputArgs hcl.Expression `hcl:"output_args,optional"`
	DefRange   hcl.Range      `hcl:",def_range"`
}

// sectionBlock is a nested section repeating over the host collection
// Source.
type sectionBlock struct {
	Name       string          `hcl:"name,label"`
	Source     *string         `hcl:"source,optional"`
	SourceArgs hcl.Expression  `hcl:"source_args,optional"`
	Output     *string         `hcl:"output,optional"`
	Cells      []*cellBlock    `hcl:"cell,block"`
	Sections   []*sectionBlock `hcl:"section,block"`
	DefRange   hcl.Range       `hcl:",def_range"`
}

// present reports whether an optional expression attribute was written.
// gohcl fills missing ones with a static null expression.
func present(expr hcl.Expression) bool {
	_, ok := expr.(hclsyntax.Expression)
	return ok
}

// Loader reads models from HCL files.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new HCL model loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// pending is a formula cell waiting for its expression to be translated
// once every cell of the model is known.
type pending struct {
	cell *model.Cell
	expr hcl.Expression
}

// builder accumulates the blocks of all files into one model.
type builder struct {
	m       *model.Model
	pending []pending
}

// Load reads every .hcl file of the given files and directories into one
// model. Blocks of all files share the root section.
func (l *Loader) Load(ctx context.Context, paths ...string) (*model.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL model loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl model files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	var roots []*fileRoot
	for _, file := range files {
		f, diags := l.parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		root, err := decodeRoot(f.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
		roots = append(roots, root)
	}
	m, err := build(roots...)
	if err != nil {
		return nil, err
	}
	logger.Debug("HCL model loaded.", "sections", len(m.Sections()), "cells", len(m.Cells()))
	return m, nil
}

// Parse reads a model from the HCL source of a single file.
func Parse(filename string, src []byte) (*model.Model, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	root, err := decodeRoot(f.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, err)
	}
	return build(root)
}

func decodeRoot(body hcl.Body) (*fileRoot, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, diags
	}
	if attrs, diags := root.Remain.JustAttributes(); !diags.HasErrors() && len(attrs) > 0 {
		var unexpected hcl.Diagnostics
		for name, a := range attrs {
			unexpected = append(unexpected, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unexpected attribute",
				Detail:   fmt.Sprintf("Top-level attribute %q is not allowed; declare cells with cell blocks.", name),
				Subject:  a.Range.Ptr(),
			})
		}
		return nil, unexpected
	}
	return &root, nil
}

// build creates the sections and cells of all roots, then translates the
// formulas, which may refer to cells declared anywhere.
func build(roots ...*fileRoot) (*model.Model, error) {
	b := &builder{m: model.New()}
	var diags hcl.Diagnostics
	for _, r := range roots {
		diags = append(diags, b.section(b.m.Root, r.Cells, r.Sections)...)
	}
	if diags.HasErrors() {
		return nil, diags
	}
	for _, p := range b.pending {
		e, d := newTranslator(p.cell.Section).expr(p.expr)
		if d.HasErrors() {
			diags = append(diags, d...)
			continue
		}
		p.cell.Expr = e
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return b.m, nil
}

func (b *builder) section(sec *model.Section, cells []*cellBlock, sections []*sectionBlock) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, c := range cells {
		if sec.Cell(c.Name) != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate cell",
				Detail:   fmt.Sprintf("A cell named %q is already declared in this section.", c.Name),
				Subject:  c.DefRange.Ptr(),
			})
			continue
		}
		diags = append(diags, b.cell(sec, c)...)
	}
	for _, s := range sections {
		if sec.Child(s.Name) != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate section",
				Detail:   fmt.Sprintf("A section named %q is already declared here.", s.Name),
				Subject:  s.DefRange.Ptr(),
			})
			continue
		}
		source := s.Name
		if s.Source != nil {
			source = *s.Source
		}
		args, d := literalList(s.SourceArgs)
		diags = append(diags, d...)
		child := sec.AddSection(s.Name, model.Accessor(source, args...))
		if s.Output != nil {
			child.Output = *s.Output
		}
		diags = append(diags, b.section(child, s.Cells, s.Sections)...)
	}
	return diags
}

func (b *builder) cell(sec *model.Section, c *cellBlock) hcl.Diagnostics {
	var diags hcl.Diagnostics
	kinds := 0
	for _, set := range []bool{present(c.Value), c.Input != nil, present(c.Formula)} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid cell",
			Detail:   fmt.Sprintf("Cell %q must set exactly one of 'value', 'input' and 'formula'.", c.Name),
			Subject:  c.DefRange.Ptr(),
		}}
	}

	declared := cty.NilType
	if present(c.Type) {
		t, d := typeKeyword(c.Type)
		if d.HasErrors() {
			return d
		}
		declared = t
	}

	var cell *model.Cell
	switch {
	case present(c.Value):
		lit, d := constant(c.Value, declared)
		if d.HasErrors() {
			return d
		}
		cell = sec.AddConstant(c.Name, lit)
	case c.Input != nil:
		args, d := literalList(c.InputArgs)
		diags = append(diags, d...)
		binding := model.Accessor(*c.Input, args...)
		if c.Scale != nil {
			binding = binding.WithScale(*c.Scale)
		}
		t := model.Numeric
		if declared != cty.NilType {
			t = dataType(declared)
		}
		cell = sec.AddInput(c.Name, t, binding)
	default:
		cell = sec.AddFormula(c.Name, nil)
		if declared != cty.NilType {
			cell.Typed(dataType(declared))
		}
		b.pending = append(b.pending, pending{cell: cell, expr: c.Formula})
	}

	outputs, d := outputBindings(c)
	diags = append(diags, d...)
	if len(outputs) > 0 {
		cell.Output(outputs...)
	}
	return diags
}

// constant evaluates the value of a constant cell, converted to the
// declared type when there is one.
func constant(expr hcl.Expression, declared cty.Type) (*model.Const, hcl.Diagnostics) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if declared != cty.NilType {
		converted, err := convert.Convert(v, declared)
		if err != nil {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid constant",
				Detail:   fmt.Sprintf("The value cannot be used as a %s: %s.", declared.FriendlyName(), err),
				Subject:  expr.Range().Ptr(),
			}}
		}
		v = converted
	}
	c, err := literal(v)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid constant",
			Detail:   err.Error(),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return c, nil
}

// outputBindings reads the output attribute: true publishes the cell under
// its name, a string under that name. output_args distinguishes outputs
// sharing a name.
func outputBindings(c *cellBlock) ([]model.Binding, hcl.Diagnostics) {
	if !present(c.Output) {
		return nil, nil
	}
	v, diags := c.Output.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	name := c.Name
	switch {
	case v.Type() == cty.Bool:
		if v.False() {
			return nil, nil
		}
	case v.Type() == cty.String:
		name = v.AsString()
	default:
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid output",
			Detail:   "The 'output' attribute must be a bool or an accessor name.",
			Subject:  c.Output.Range().Ptr(),
		}}
	}
	args, d := literalList(c.OutputArgs)
	return []model.Binding{model.Accessor(name, args...)}, d
}

// literalList evaluates an optional list of accessor arguments.
func literalList(expr hcl.Expression) ([]any, hcl.Diagnostics) {
	if !present(expr) {
		return nil, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if !v.Type().IsTupleType() && !v.Type().IsListType() {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid arguments",
			Detail:   "Accessor arguments must be a list of numbers, strings or bools.",
			Subject:  expr.Range().Ptr(),
		}}
	}
	var out []any
	for it := v.ElementIterator(); it.Next(); {
		_, el := it.Element()
		g, err := goValue(el)
		if err != nil {
			return nil, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid arguments",
				Detail:   err.Error(),
				Subject:  expr.Range().Ptr(),
			}}
		}
		out = append(out, g)
	}
	return out, nil
}
