package hclmodel

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/formulagrid/internal/model"
)

// translator turns HCL expressions into model expressions evaluated in one
// section.
type translator struct {
	sec  *model.Section
	lets []string
}

func newTranslator(sec *model.Section) *translator {
	return &translator{sec: sec}
}

func (t *translator) in(sec *model.Section) *translator {
	return &translator{sec: sec, lets: t.lets}
}

func (t *translator) binding(name string) *translator {
	lets := append(append([]string(nil), t.lets...), name)
	return &translator{sec: t.sec, lets: lets}
}

var binaryOps = map[*hclsyntax.Operation]model.Operator{
	hclsyntax.OpAdd:                model.OpAdd,
	hclsyntax.OpSubtract:           model.OpSub,
	hclsyntax.OpMultiply:           model.OpMul,
	hclsyntax.OpDivide:             model.OpDiv,
	hclsyntax.OpEqual:              model.OpEQ,
	hclsyntax.OpNotEqual:           model.OpNE,
	hclsyntax.OpLessThan:           model.OpLT,
	hclsyntax.OpLessThanOrEqual:    model.OpLE,
	hclsyntax.OpGreaterThan:        model.OpGT,
	hclsyntax.OpGreaterThanOrEqual: model.OpGE,
}

func unsupported(rng hcl.Range, format string, args ...any) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unsupported formula",
		Detail:   fmt.Sprintf(format, args...),
		Subject:  rng.Ptr(),
	}}
}

func (t *translator) expr(e hcl.Expression) (model.Expr, hcl.Diagnostics) {
	switch n := e.(type) {
	case *hclsyntax.LiteralValueExpr:
		c, err := literal(n.Val)
		if err != nil {
			return nil, unsupported(n.SrcRange, "%s.", err)
		}
		return c, nil

	case *hclsyntax.TemplateExpr:
		return t.template(n)

	case *hclsyntax.TemplateWrapExpr:
		return t.expr(n.Wrapped)

	case *hclsyntax.ParenthesesExpr:
		return t.expr(n.Expression)

	case *hclsyntax.ScopeTraversalExpr:
		return t.traversal(n.Traversal, n.SrcRange)

	case *hclsyntax.UnaryOpExpr:
		v, diags := t.expr(n.Val)
		if diags.HasErrors() {
			return nil, diags
		}
		switch n.Op {
		case hclsyntax.OpNegate:
			return model.Unary(model.OpNeg, v), nil
		case hclsyntax.OpLogicalNot:
			return model.Fn("NOT", v), nil
		}
		return nil, unsupported(n.SrcRange, "Unknown unary operator.")

	case *hclsyntax.BinaryOpExpr:
		a, diags := t.expr(n.LHS)
		b, more := t.expr(n.RHS)
		diags = append(diags, more...)
		if diags.HasErrors() {
			return nil, diags
		}
		switch n.Op {
		case hclsyntax.OpModulo:
			return model.Fn("MOD", a, b), nil
		case hclsyntax.OpLogicalAnd:
			return model.Agg("AND", a, b), nil
		case hclsyntax.OpLogicalOr:
			return model.Agg("OR", a, b), nil
		}
		if op, ok := binaryOps[n.Op]; ok {
			return model.Binary(op, a, b), nil
		}
		return nil, unsupported(n.SrcRange, "Unknown binary operator.")

	case *hclsyntax.ConditionalExpr:
		args, diags := t.list(n.Condition, n.TrueResult, n.FalseResult)
		if diags.HasErrors() {
			return nil, diags
		}
		return model.Fn("IF", args...), nil

	case *hclsyntax.TupleConsExpr:
		return t.tuple(n)

	case *hclsyntax.FunctionCallExpr:
		return t.call(n)
	}
	return nil, unsupported(e.Range(), "Expressions of type %T cannot be used in formulas.", e)
}

func (t *translator) list(exprs ...hclsyntax.Expression) ([]model.Expr, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	out := make([]model.Expr, len(exprs))
	for i, e := range exprs {
		v, d := t.expr(e)
		diags = append(diags, d...)
		out[i] = v
	}
	return out, diags
}

// template concatenates the parts of a string template.
func (t *translator) template(n *hclsyntax.TemplateExpr) (model.Expr, hcl.Diagnostics) {
	if len(n.Parts) == 0 {
		return model.Str(""), nil
	}
	parts, diags := t.list(n.Parts...)
	if diags.HasErrors() {
		return nil, diags
	}
	out := parts[0]
	if len(parts) == 1 && model.TypeOf(out) != model.Text {
		out = model.Binary(model.OpConcat, model.Str(""), out)
	}
	for _, p := range parts[1:] {
		out = model.Binary(model.OpConcat, out, p)
	}
	return out, nil
}

// tuple builds an array. A tuple of tuples is a grid, a tuple holding
// EACH calls is a column of table rows, anything else is a row.
func (t *translator) tuple(n *hclsyntax.TupleConsExpr) (model.Expr, hcl.Diagnostics) {
	elems, diags := t.list(n.Exprs...)
	if diags.HasErrors() {
		return nil, diags
	}
	rows, sections := 0, 0
	for _, e := range elems {
		switch e.(type) {
		case *model.Array:
			rows++
		case *model.SubSection:
			sections++
		}
	}
	switch {
	case len(elems) > 0 && rows == len(elems):
		grid := make([][]model.Expr, len(elems))
		for i, e := range elems {
			a := e.(*model.Array)
			if a.Rows != 1 || (i > 0 && a.Cols != len(grid[0])) {
				return nil, unsupported(n.SrcRange, "The rows of a grid must be flat tuples of equal length.")
			}
			grid[i] = a.Elems
		}
		return model.Grid(grid...), nil
	case sections > 0:
		return model.Column(elems...), nil
	}
	return model.Row(elems...), nil
}

func (t *translator) call(n *hclsyntax.FunctionCallExpr) (model.Expr, hcl.Diagnostics) {
	if n.ExpandFinal {
		return nil, unsupported(n.Range(), "Argument expansion is not supported.")
	}
	name := strings.ToUpper(n.Name)
	switch name {
	case "LET":
		return t.let(n)
	case "EACH":
		return t.each(n)
	}
	args, diags := t.list(n.Args...)
	if diags.HasErrors() {
		return nil, diags
	}
	if model.IsAggregate(name) {
		return model.Agg(name, args...), nil
	}
	if _, ok := model.Lookup(name); !ok {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Call to unknown function",
			Detail:   fmt.Sprintf("There is no function named %q.", n.Name),
			Subject:  n.NameRange.Ptr(),
		}}
	}
	return model.Fn(name, args...), nil
}

// let translates LET(name, value, body).
func (t *translator) let(n *hclsyntax.FunctionCallExpr) (model.Expr, hcl.Diagnostics) {
	if len(n.Args) != 3 {
		return nil, unsupported(n.Range(), "LET takes a name, a value and a body.")
	}
	name := hcl.ExprAsKeyword(n.Args[0])
	if name == "" {
		return nil, unsupported(n.Args[0].Range(), "The first argument of LET must be a bare name.")
	}
	value, diags := t.expr(n.Args[1])
	body, more := t.binding(name).expr(n.Args[2])
	diags = append(diags, more...)
	if diags.HasErrors() {
		return nil, diags
	}
	return &model.Let{Name: name, Value: value, Body: body}, nil
}

// each translates EACH(section, expr...), the expressions evaluated in
// every instance of a nested section.
func (t *translator) each(n *hclsyntax.FunctionCallExpr) (model.Expr, hcl.Diagnostics) {
	if len(n.Args) < 2 {
		return nil, unsupported(n.Range(), "EACH takes a section and at least one expression.")
	}
	name := hcl.ExprAsKeyword(n.Args[0])
	child := t.sec.Child(name)
	if child == nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown section",
			Detail:   fmt.Sprintf("There is no section named %q nested in this section.", name),
			Subject:  n.Args[0].Range().Ptr(),
		}}
	}
	args, diags := t.in(child).list(n.Args[1:]...)
	if diags.HasErrors() {
		return nil, diags
	}
	return &model.SubSection{Section: child, Args: args}, nil
}

// traversal resolves a name to a LET binding or a cell of the current
// section or one of its ancestors. A dotted name reads a cell of every
// instance of a nested section.
func (t *translator) traversal(tr hcl.Traversal, rng hcl.Range) (model.Expr, hcl.Diagnostics) {
	names := make([]string, 0, len(tr))
	for _, step := range tr {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			names = append(names, s.Name)
		case hcl.TraverseAttr:
			names = append(names, s.Name)
		default:
			return nil, unsupported(rng, "Indexing %s is not supported; use INDEX.", traversalKey(tr))
		}
	}

	if len(names) == 1 {
		for i := len(t.lets) - 1; i >= 0; i-- {
			if strings.EqualFold(t.lets[i], names[0]) {
				return model.Var(t.lets[i]), nil
			}
		}
		for s := t.sec; s != nil; s = s.Parent {
			if c := s.Cell(names[0]); c != nil {
				return c.Ref(), nil
			}
		}
	} else if child := t.sec.Child(names[0]); child != nil {
		if e := sectionRead(child, names[1:]); e != nil {
			return e, nil
		}
	}
	return nil, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unknown cell",
		Detail:   fmt.Sprintf("There is no cell named %s visible from %s.", traversalKey(tr), sectionName(t.sec)),
		Subject:  rng.Ptr(),
	}}
}

// sectionRead reads the cell at path in every instance of sec.
func sectionRead(sec *model.Section, path []string) model.Expr {
	if len(path) == 1 {
		if c := sec.Cell(path[0]); c != nil {
			return &model.SubSection{Section: sec, Args: []model.Expr{c.Ref()}}
		}
		return nil
	}
	child := sec.Child(path[0])
	if child == nil {
		return nil
	}
	inner := sectionRead(child, path[1:])
	if inner == nil {
		return nil
	}
	return &model.SubSection{Section: sec, Args: []model.Expr{inner}}
}

func sectionName(s *model.Section) string {
	if s.Parent == nil {
		return "the top level"
	}
	return "section " + s.Path()
}

// traversalKey renders a traversal as written, for diagnostics.
func traversalKey(tr hcl.Traversal) string {
	return strings.TrimSpace(string(hclwrite.TokensForTraversal(tr).Bytes()))
}

// literal converts a known primitive value to a model constant.
func literal(v cty.Value) (*model.Const, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, fmt.Errorf("null and unknown values are not allowed")
	}
	switch v.Type() {
	case cty.Number:
		return model.Num(v.AsBigFloat().Text('f', -1)), nil
	case cty.String:
		return model.Str(v.AsString()), nil
	case cty.Bool:
		return model.Bool(v.True()), nil
	}
	return nil, fmt.Errorf("a %s is not a number, string or bool", v.Type().FriendlyName())
}
