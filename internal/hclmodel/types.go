package hclmodel

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/formulagrid/internal/model"
)

// typeKeyword converts a type keyword such as `number` into a cty type.
func typeKeyword(expr hcl.Expression) (cty.Type, hcl.Diagnostics) {
	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() || len(traversal) != 1 {
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid type specification",
			Detail:   "The 'type' attribute must be one of the keywords 'number', 'string' or 'bool'.",
			Subject:  expr.Range().Ptr(),
		}}
	}
	switch name := traversal.RootName(); name {
	case "number", "numeric":
		return cty.Number, nil
	case "string", "text":
		return cty.String, nil
	case "bool", "boolean":
		return cty.Bool, nil
	default:
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown type",
			Detail:   "Unknown type keyword " + name + "; must be 'number', 'string' or 'bool'.",
			Subject:  expr.Range().Ptr(),
		}}
	}
}

// dataType maps a primitive cty type to the model's data types.
func dataType(t cty.Type) model.DataType {
	switch t {
	case cty.String:
		return model.Text
	case cty.Bool:
		return model.Boolean
	}
	return model.Numeric
}
