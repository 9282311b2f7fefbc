package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// InputSource is a host input that resolves accessors by name. Hosts that
// are not an InputSource are read through their exported methods and
// fields.
type InputSource interface {
	// InputValue returns the value of the accessor name called with args.
	// A nil value stands for an empty cell or a missing collection.
	InputValue(name string, args ...any) (any, error)
}

// Record is a map backed InputSource. Values are scalars, []Record for the
// collections of nested sections, or, for accessors with arguments, maps
// keyed by the first argument and nested once per further argument.
type Record map[string]any

// InputValue implements InputSource. Missing names yield nil.
func (r Record) InputValue(name string, args ...any) (any, error) {
	v := r[name]
	for i, a := range args {
		if v == nil {
			return nil, nil
		}
		keyed, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("input %q does not take argument %d", name, i+1)
		}
		v = keyed[fmt.Sprint(a)]
	}
	return v, nil
}

// ArgsKey encodes accessor arguments into a map key. Numbers of any Go type
// encode by value; strings are quoted so they never collide with numbers or
// with each other.
func ArgsKey(args ...any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = argKey(a)
	}
	return strings.Join(parts, ",")
}

func argKey(a any) string {
	switch v := a.(type) {
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case decimal.Decimal:
		return v.String()
	case fmt.Stringer:
		return fmt.Sprintf("%T(%s)", a, v)
	}
	return fmt.Sprintf("%T(%v)", a, a)
}
