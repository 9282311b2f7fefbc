package hclmodel

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/specialistvlad/formulagrid/internal/ctxlog"
	"github.com/specialistvlad/formulagrid/internal/model"
)

// LoadInputs reads a host input file.
func LoadInputs(ctx context.Context, path string) (model.Record, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs %s: %w", path, err)
	}
	return DecodeInputs(ctx, path, src)
}

// DecodeInputs reads host inputs written in HCL. Attributes are scalar
// inputs, objects hold the values of accessors with arguments keyed by the
// joined arguments, and repeated blocks of one type are the collection of
// a nested section:
//
//	Discount = 0.1
//	Rate     = { "12" = 0.04, "24" = 0.06 }
//
//	Items {
//	  Price = 10
//	}
func DecodeInputs(ctx context.Context, filename string, src []byte) (model.Record, error) {
	f, diags := hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse inputs %s: %w", filename, diags)
	}
	r, diags := record(f.Body.(*hclsyntax.Body))
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode inputs %s: %w", filename, diags)
	}
	ctxlog.FromContext(ctx).Debug("Inputs decoded.", "file", filename, "keys", len(r))
	return r, nil
}

func record(body *hclsyntax.Body) (model.Record, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	r := make(model.Record, len(body.Attributes)+len(body.Blocks))
	for name, attr := range body.Attributes {
		v, d := attr.Expr.Value(nil)
		if d.HasErrors() {
			diags = append(diags, d...)
			continue
		}
		g, err := inputValue(v)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid input value",
				Detail:   fmt.Sprintf("Input %q: %s.", name, err),
				Subject:  attr.SrcRange.Ptr(),
			})
			continue
		}
		r[name] = g
	}
	for _, b := range body.Blocks {
		if len(b.Labels) > 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unexpected block label",
				Detail:   fmt.Sprintf("Collection blocks like %q take no labels.", b.Type),
				Subject:  b.LabelRanges[0].Ptr(),
			})
			continue
		}
		if _, ok := body.Attributes[b.Type]; ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate input",
				Detail:   fmt.Sprintf("%q is both an attribute and a collection.", b.Type),
				Subject:  b.TypeRange.Ptr(),
			})
			continue
		}
		item, d := record(b.Body)
		diags = append(diags, d...)
		items, _ := r[b.Type].([]model.Record)
		r[b.Type] = append(items, item)
	}
	return r, diags
}

// inputValue converts an input attribute. Numbers keep their exact digits
// as decimals.
func inputValue(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	t := v.Type()
	switch {
	case t == cty.Number:
		return decimal.NewFromString(v.AsBigFloat().Text('f', -1))
	case t == cty.String || t == cty.Bool:
		return goValue(v)
	case t.IsObjectType() || t.IsMapType():
		keyed := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, el := it.Element()
			g, err := inputValue(el)
			if err != nil {
				return nil, err
			}
			keyed[k.AsString()] = g
		}
		return keyed, nil
	case t.IsTupleType() || t.IsListType():
		var items []model.Record
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			g, err := inputValue(el)
			if err != nil {
				return nil, err
			}
			m, ok := g.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("collection elements must be objects, not %s", el.Type().FriendlyName())
			}
			items = append(items, model.Record(m))
		}
		return items, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", t.FriendlyName())
}

// goValue converts a primitive value to the Go value passed to host
// accessors. Whole numbers become int.
func goValue(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, fmt.Errorf("null is not allowed")
	}
	switch v.Type() {
	case cty.Number:
		if v.AsBigFloat().IsInt() {
			var i int
			if err := gocty.FromCtyValue(v, &i); err == nil {
				return i, nil
			}
		}
		var f float64
		err := gocty.FromCtyValue(v, &f)
		return f, err
	case cty.String:
		var s string
		err := gocty.FromCtyValue(v, &s)
		return s, err
	case cty.Bool:
		var b bool
		err := gocty.FromCtyValue(v, &b)
		return b, err
	}
	return nil, fmt.Errorf("a %s is not a number, string or bool", v.Type().FriendlyName())
}
