package model

import "strconv"

// TypeOf returns the static type of e. Names bound by Let are typed by
// their values; other free names are numeric.
func TypeOf(e Expr) DataType {
	return TypeIn(e, func(string) (DataType, bool) { return Numeric, false })
}

// TypeIn returns the static type of e, asking lookup for the types of free
// names.
func TypeIn(e Expr, lookup func(name string) (DataType, bool)) DataType {
	switch n := e.(type) {
	case *Const:
		switch n.Value.(type) {
		case string:
			return Text
		case bool:
			return Boolean
		}
		return Numeric
	case *CellRef:
		return n.Cell.Type
	case *Op:
		switch {
		case n.Op == OpConcat:
			return Text
		case n.Op.Comparison():
			return Boolean
		}
		return Numeric
	case *Call:
		s, ok := Lookup(n.Fn)
		if !ok {
			return Numeric
		}
		if t, ok := tableLineType(n, lookup); ok {
			return t
		}
		arg := s.ResultArg
		if n.Fn == "LOOKUP" && len(n.Args) == 3 {
			arg = 2
		}
		if arg >= 0 && arg < len(n.Args) {
			return TypeIn(n.Args[arg], lookup)
		}
		return s.Result
	case *Aggregate:
		if n.Fn == "AND" || n.Fn == "OR" {
			return Boolean
		}
		return Numeric
	case *Array:
		if len(n.Elems) == 0 {
			return Numeric
		}
		return TypeIn(n.Elems[0], lookup)
	case *SubSection:
		if len(n.Args) == 0 {
			return Numeric
		}
		return TypeIn(n.Args[0], lookup)
	case *Let:
		bound := TypeIn(n.Value, lookup)
		return TypeIn(n.Body, func(name string) (DataType, bool) {
			if name == n.Name {
				return bound, true
			}
			return lookup(name)
		})
	case *LetVar:
		t, _ := lookup(n.Name)
		return t
	}
	return Numeric
}

// tableLineType types VLOOKUP and HLOOKUP by the line a constant index
// selects, since tables often mix a text key line with numeric lines.
func tableLineType(n *Call, lookup func(string) (DataType, bool)) (DataType, bool) {
	if (n.Fn != "VLOOKUP" && n.Fn != "HLOOKUP") || len(n.Args) < 3 {
		return Numeric, false
	}
	lit, ok := ConstValue(n.Args[2]).(Number)
	if !ok {
		return Numeric, false
	}
	line, err := strconv.Atoi(string(lit))
	if err != nil || line < 1 {
		return Numeric, false
	}
	switch t := n.Args[1].(type) {
	case *Array:
		if n.Fn == "VLOOKUP" && line <= t.Cols && t.Rows > 0 {
			return TypeIn(t.At(0, line-1), lookup), true
		}
		if n.Fn == "HLOOKUP" && line <= t.Rows && t.Cols > 0 {
			return TypeIn(t.At(line-1, 0), lookup), true
		}
	case *SubSection:
		if n.Fn == "VLOOKUP" && line <= len(t.Args) {
			return TypeIn(t.Args[line-1], lookup), true
		}
	}
	return Numeric, false
}
