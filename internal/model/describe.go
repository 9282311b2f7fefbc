package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Describe renders e in spreadsheet formula notation for diagnostics.
func Describe(e Expr) string {
	var b strings.Builder
	describe(&b, e, false)
	return b.String()
}

func describe(b *strings.Builder, e Expr, nested bool) {
	switch n := e.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Const:
		switch v := n.Value.(type) {
		case Number:
			b.WriteString(string(v))
		case string:
			b.WriteString(strconv.Quote(v))
		case bool:
			b.WriteString(strings.ToUpper(strconv.FormatBool(v)))
		default:
			fmt.Fprintf(b, "%v", v)
		}
	case *CellRef:
		if n.Cell == nil {
			b.WriteString("#REF!")
			return
		}
		b.WriteString(n.Cell.Name)
	case *Op:
		describeOp(b, n, nested)
	case *Call:
		describeCall(b, n.Fn, n.Args)
	case *Aggregate:
		describeCall(b, n.Fn, n.Args)
	case *Array:
		b.WriteByte('{')
		for i, el := range n.Elems {
			switch {
			case i == 0:
			case n.Cols > 0 && i%n.Cols == 0:
				b.WriteString("; ")
			default:
				b.WriteString(", ")
			}
			describe(b, el, false)
		}
		b.WriteByte('}')
	case *SubSection:
		if n.Section != nil {
			b.WriteString(n.Section.Name)
		}
		describeList(b, "{", n.Args, "}")
	case *Let:
		b.WriteString("LET(")
		b.WriteString(n.Name)
		b.WriteString(", ")
		describe(b, n.Value, false)
		b.WriteString(", ")
		describe(b, n.Body, false)
		b.WriteByte(')')
	case *LetVar:
		b.WriteString(n.Name)
	case *Fold:
		b.WriteString("FOLD ")
		describeCall(b, n.Def.Name, n.Elements)
	case *FoldVectors:
		b.WriteString("FOLD ")
		describeCall(b, n.Def.Name, n.Vectors)
	case *FoldDatabase:
		fmt.Fprintf(b, "%s(%s WHERE ", n.Def.Name, strings.Join(n.Labels, ", "))
		describe(b, n.Filter, false)
		b.WriteString(" COLUMN ")
		if n.ColumnExpr != nil {
			describe(b, n.ColumnExpr, false)
		} else {
			b.WriteString(strconv.Itoa(n.Column + 1))
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "%T", e)
	}
}

func describeOp(b *strings.Builder, n *Op, nested bool) {
	switch {
	case n.Op == OpNeg && len(n.Args) == 1:
		b.WriteByte('-')
		describe(b, n.Args[0], true)
		return
	case n.Op == OpPercent && len(n.Args) == 1:
		describe(b, n.Args[0], true)
		b.WriteByte('%')
		return
	case n.Op == OpMin || n.Op == OpMax:
		describeCall(b, n.Op.String(), n.Args)
		return
	}
	if nested {
		b.WriteByte('(')
	}
	for i, a := range n.Args {
		if i > 0 {
			fmt.Fprintf(b, " %s ", n.Op)
		}
		describe(b, a, true)
	}
	if nested {
		b.WriteByte(')')
	}
}

func describeCall(b *strings.Builder, name string, args []Expr) {
	b.WriteString(name)
	describeList(b, "(", args, ")")
}

func describeList(b *strings.Builder, open string, args []Expr, close string) {
	b.WriteString(open)
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		describe(b, a, false)
	}
	b.WriteString(close)
}
