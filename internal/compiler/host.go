package compiler

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

// inputValue reads the accessor b of a host input. An InputSource resolves
// the accessor itself; other values are searched for an exported method,
// then an exported field or a map key, with the name matched ignoring case.
// A nil input reads as nil.
func inputValue(input any, b model.Binding) (any, error) {
	if input == nil {
		return nil, nil
	}
	if src, ok := input.(model.InputSource); ok {
		return src.InputValue(b.Name, b.Args...)
	}
	v := reflect.ValueOf(input)
	if m := methodByName(v, b.Name); m.IsValid() {
		return callMethod(m, b.Args)
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		f := v.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, b.Name) })
		if !f.IsValid() || !f.CanInterface() {
			break
		}
		if len(b.Args) > 0 {
			return nil, fmt.Errorf("field %s takes no arguments", b.Name)
		}
		return valueOf(f), nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}
		e := v.MapIndex(reflect.ValueOf(b.Name).Convert(v.Type().Key()))
		if !e.IsValid() {
			return nil, nil
		}
		if len(b.Args) == 0 {
			return valueOf(e), nil
		}
		return model.Record{b.Name: valueOf(e)}.InputValue(b.Name, b.Args...)
	}
	return nil, fmt.Errorf("%T has no accessor %s", input, b.Name)
}

func methodByName(v reflect.Value, name string) reflect.Value {
	t := v.Type()
	for i := range t.NumMethod() {
		if strings.EqualFold(t.Method(i).Name, name) {
			return v.Method(i)
		}
	}
	return reflect.Value{}
}

// callMethod calls an accessor method returning a value and optionally an
// error. Arguments are converted to the parameter types.
func callMethod(m reflect.Value, args []any) (any, error) {
	t := m.Type()
	if t.NumIn() != len(args) {
		return nil, fmt.Errorf("method takes %d arguments, got %d", t.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		v := reflect.ValueOf(a)
		want := t.In(i)
		if !v.IsValid() || !v.Type().ConvertibleTo(want) {
			return nil, fmt.Errorf("argument %d: cannot use %T as %s", i+1, a, want)
		}
		in[i] = v.Convert(want)
	}
	switch t.NumOut() {
	case 1:
		return valueOf(m.Call(in)[0]), nil
	case 2:
		if t.Out(1) != reflect.TypeFor[error]() {
			break
		}
		out := m.Call(in)
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, err
		}
		return valueOf(out[0]), nil
	}
	return nil, fmt.Errorf("method must return a value and optionally an error")
}

// valueOf unwraps v. Nil pointers and interfaces are nil.
func valueOf(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

// collectionOf reads the host collection a nested section repeats over.
// Elements that are plain maps become records.
func collectionOf(input any, source model.Binding) ([]any, error) {
	raw, err := inputValue(input, source)
	if err != nil {
		return nil, &InputError{Binding: source.String(), Err: err}
	}
	if raw == nil {
		return nil, nil
	}
	v := reflect.ValueOf(raw)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, &InputError{Binding: source.String(), Err: fmt.Errorf("%T is not a collection", raw)}
	}
	items := make([]any, v.Len())
	for i := range items {
		item := valueOf(v.Index(i))
		if m, ok := item.(map[string]any); ok {
			item = model.Record(m)
		}
		items[i] = item
	}
	return items, nil
}

// hostNumber compiles the read of a numeric input.
func hostNumber[N any](x *exprCompiler[N], b model.Binding) eval[N, N] {
	return func(f *frame[N]) N {
		v, err := inputValue(f.inst.input, b)
		if err == nil {
			var n N
			if n, err = x.numberFromHost(v, b); err == nil {
				return n
			}
		}
		panic(&InputError{Binding: b.String(), Err: err})
	}
}

// hostText compiles the read of a text input.
func hostText[N any](x *exprCompiler[N], b model.Binding) eval[N, string] {
	return func(f *frame[N]) string {
		v, err := inputValue(f.inst.input, b)
		if err == nil {
			var s string
			if s, err = x.textFromHost(v, b); err == nil {
				return s
			}
		}
		panic(&InputError{Binding: b.String(), Err: err})
	}
}

// numberFromHost converts a host value. nil, including a nil *decimal.Decimal,
// is an empty cell. int64 values
// carry the binding's scale when it has one.
func (x *exprCompiler[N]) numberFromHost(v any, b model.Binding) (N, error) {
	bk := x.b
	switch t := v.(type) {
	case nil:
		return bk.Zero(), nil
	case float64:
		return bk.FromFloat(t), nil
	case float32:
		return bk.FromFloat(float64(t)), nil
	case int:
		return bk.FromInt(int64(t)), nil
	case int64:
		if b.Scaled {
			return bk.FromScaled(t, b.Scale), nil
		}
		return bk.FromInt(t), nil
	case decimal.Decimal:
		return bk.FromDecimal(t), nil
	case *decimal.Decimal:
		if t == nil {
			return bk.Zero(), nil
		}
		return bk.FromDecimal(*t), nil
	case bool:
		return x.fromBool(t), nil
	case string:
		return x.hostString(t)
	case time.Time:
		return bk.FromFloat(x.env.SerialFromTime(t)), nil
	case time.Duration:
		return bk.FromFloat(runtime.SerialFromDuration(t)), nil
	}
	r := reflect.ValueOf(v)
	switch r.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return bk.FromInt(r.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if r.Uint() > math.MaxInt64 {
			return bk.Zero(), fmt.Errorf("%d overflows a 64-bit integer", r.Uint())
		}
		return bk.FromInt(int64(r.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return bk.FromFloat(r.Float()), nil
	case reflect.Bool:
		return x.fromBool(r.Bool()), nil
	case reflect.String:
		return x.hostString(r.String())
	}
	return bk.Zero(), fmt.Errorf("cannot convert %T to a number", v)
}

func (x *exprCompiler[N]) hostString(s string) (N, error) {
	if strings.TrimSpace(s) == "" {
		return x.b.Zero(), nil
	}
	d, err := x.env.Value(s)
	if err != nil {
		return x.b.Zero(), err
	}
	return x.b.FromDecimal(d), nil
}

// textFromHost converts a host value to text. nil is empty text.
func (x *exprCompiler[N]) textFromHost(v any, b model.Binding) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return boolText(t), nil
	case decimal.Decimal, *decimal.Decimal, time.Time, time.Duration:
	case fmt.Stringer:
		return t.String(), nil
	}
	if r := reflect.ValueOf(v); r.Kind() == reflect.String {
		return r.String(), nil
	}
	n, err := x.numberFromHost(v, b)
	if err != nil {
		return "", err
	}
	return x.textOf(n), nil
}
