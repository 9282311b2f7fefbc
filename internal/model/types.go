package model

import "fmt"

// DataType is the static type of a cell or an expression.
type DataType int

const (
	Numeric DataType = iota
	Text
	// Boolean is the type of comparisons and logical functions. Boolean
	// cells are stored as numbers, 1 for true and 0 for false.
	Boolean
)

func (t DataType) String() string {
	switch t {
	case Numeric:
		return "number"
	case Text:
		return "string"
	case Boolean:
		return "bool"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// ParseDataType maps the type keywords of the model format.
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "number", "numeric":
		return Numeric, nil
	case "string", "text":
		return Text, nil
	case "bool", "boolean":
		return Boolean, nil
	}
	return Numeric, fmt.Errorf("unknown data type %q: must be 'number', 'string' or 'bool'", s)
}

// Operator is the operator of an Op node.
type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	// OpPercent and OpNeg are unary.
	OpPercent
	OpNeg
	OpConcat
	OpEQ
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
	// OpMin and OpMax are the binary steps of MIN and MAX folds.
	OpMin
	OpMax
)

var operatorSymbols = [...]string{
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpPow:     "^",
	OpPercent: "%",
	OpNeg:     "-",
	OpConcat:  "&",
	OpEQ:      "=",
	OpNE:      "<>",
	OpLT:      "<",
	OpLE:      "<=",
	OpGT:      ">",
	OpGE:      ">=",
	OpMin:     "MIN",
	OpMax:     "MAX",
}

func (o Operator) String() string {
	if int(o) >= 0 && int(o) < len(operatorSymbols) {
		return operatorSymbols[o]
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

// Comparison reports whether o compares its operands.
func (o Operator) Comparison() bool {
	return o >= OpEQ && o <= OpGE
}

// Unary reports whether o takes a single operand.
func (o Operator) Unary() bool {
	return o == OpPercent || o == OpNeg
}

// Negated returns the comparison that holds exactly when o does not.
func (o Operator) Negated() Operator {
	switch o {
	case OpEQ:
		return OpNE
	case OpNE:
		return OpEQ
	case OpLT:
		return OpGE
	case OpLE:
		return OpGT
	case OpGT:
		return OpLE
	case OpGE:
		return OpLT
	}
	return o
}
