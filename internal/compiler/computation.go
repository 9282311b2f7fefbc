package compiler

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/numeric"
)

// hostKind is the host type an output is converted to.
type hostKind int

const (
	wantAny hostKind = iota
	wantFloat
	wantDecimal
	wantInt
	wantInt64
	wantScaled
	wantString
	wantBool
	wantTime
)

type want struct {
	kind  hostKind
	scale int
}

// view is a section instance seen without its number type.
type view interface {
	read(name string, args []any, w want) (any, error)
	has(name string) bool
	sections(name string) ([]view, error)
	outputs() []string
	reset()
}

type node[N any] struct {
	inst *instance[N]
}

// resolve finds an output or section name, preferring an exact match.
func resolve[V any](m map[string]V, name string) (string, bool) {
	if _, ok := m[name]; ok {
		return name, true
	}
	for k := range m {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

func (n node[N]) has(name string) bool {
	_, out := resolve(n.inst.shape.outputs, name)
	_, sec := resolve(n.inst.shape.sections, name)
	return out || sec
}

func (n node[N]) read(name string, args []any, w want) (v any, err error) {
	defer recoverFailure(&err)
	key, ok := resolve(n.inst.shape.outputs, name)
	if !ok {
		return nil, fmt.Errorf("no output named %s", name)
	}
	idx, ok := n.inst.shape.outputs[key][model.ArgsKey(args...)]
	if !ok {
		return nil, fmt.Errorf("output %s is not defined for arguments %v", key, args)
	}
	return n.convert(n.inst.run.e.cells[idx], w)
}

// convert reads cell c of the instance as the host type w.
func (n node[N]) convert(c *cellShape[N], w want) (any, error) {
	e := n.inst.run.e
	b := e.b
	if c.cell.Type == model.Text {
		switch w.kind {
		case wantAny, wantString:
			return c.textual(n.inst), nil
		}
		return nil, fmt.Errorf("output %s is text", c.cell.Path())
	}

	v := c.number(n.inst)
	logical := c.cell.Type == model.Boolean
	switch w.kind {
	case wantAny:
		switch {
		case logical:
			return b.Sign(v) != 0, nil
		case b.Config().Kind == numeric.Double:
			return b.ToFloat(v), nil
		}
		return b.ToDecimal(v), nil
	case wantFloat:
		return b.ToFloat(v), nil
	case wantDecimal:
		return b.ToDecimal(v), nil
	case wantInt:
		return b.ToInt(b.Round(v, 0)), nil
	case wantInt64:
		return int64(b.ToInt(b.Round(v, 0))), nil
	case wantScaled:
		return b.ToScaled(b.Round(v, w.scale), w.scale), nil
	case wantString:
		if logical {
			return boolText(b.Sign(v) != 0), nil
		}
		return e.env.FormatDecimal(b.ToDecimal(v)), nil
	case wantBool:
		return b.Sign(v) != 0, nil
	case wantTime:
		return e.env.TimeFromSerial(b.ToFloat(v)), nil
	}
	return nil, fmt.Errorf("unsupported output conversion %d", w.kind)
}

func (n node[N]) sections(name string) (out []view, err error) {
	defer recoverFailure(&err)
	key, ok := resolve(n.inst.shape.sections, name)
	if !ok {
		return nil, fmt.Errorf("no section named %s", name)
	}
	kids := n.inst.children(n.inst.shape.sections[key])
	out = make([]view, len(kids))
	for i, k := range kids {
		out[i] = node[N]{inst: k}
	}
	return out, nil
}

func (n node[N]) outputs() []string {
	var out []string
	for k := range n.inst.shape.outputs {
		out = append(out, k)
	}
	for k := range n.inst.shape.sections {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (n node[N]) reset() { n.inst.reset() }

// Computation evaluates a compiled model for one host input. Values are
// computed on first read and cached until Reset. A Computation is not safe
// for concurrent use.
type Computation struct {
	view view
}

// Get returns an output as float64 (double engines), decimal.Decimal
// (decimal and fixed point engines), string or bool. args select among
// outputs published under the same name.
func (c *Computation) Get(name string, args ...any) (any, error) {
	return c.view.read(name, args, want{kind: wantAny})
}

// Float returns a numeric output as a float64.
func (c *Computation) Float(name string, args ...any) (float64, error) {
	v, err := c.view.read(name, args, want{kind: wantFloat})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// Decimal returns a numeric output as a decimal.
func (c *Computation) Decimal(name string, args ...any) (decimal.Decimal, error) {
	v, err := c.view.read(name, args, want{kind: wantDecimal})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

// Int returns a numeric output rounded half up to an integer.
func (c *Computation) Int(name string, args ...any) (int, error) {
	v, err := c.view.read(name, args, want{kind: wantInt})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Scaled returns a numeric output rounded to scale fractional digits, as an
// integer carrying those digits.
func (c *Computation) Scaled(name string, scale int, args ...any) (int64, error) {
	v, err := c.view.read(name, args, want{kind: wantScaled, scale: scale})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// Text returns an output as text. Numbers are formatted for the engine's
// locale.
func (c *Computation) Text(name string, args ...any) (string, error) {
	v, err := c.view.read(name, args, want{kind: wantString})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Bool returns a numeric or logical output as a truth value.
func (c *Computation) Bool(name string, args ...any) (bool, error) {
	v, err := c.view.read(name, args, want{kind: wantBool})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Time returns a date serial output as a time in the engine's location.
func (c *Computation) Time(name string, args ...any) (time.Time, error) {
	v, err := c.view.read(name, args, want{kind: wantTime})
	if err != nil {
		return time.Time{}, err
	}
	return v.(time.Time), nil
}

// Sections returns the computations of the instances of a nested section,
// one per element of its host collection.
func (c *Computation) Sections(name string) ([]*Computation, error) {
	views, err := c.view.sections(name)
	if err != nil {
		return nil, err
	}
	out := make([]*Computation, len(views))
	for i, v := range views {
		out[i] = &Computation{view: v}
	}
	return out, nil
}

// Outputs lists the output and section names, sorted.
func (c *Computation) Outputs() []string { return c.view.outputs() }

// Reset forgets the cached values of this computation so that they are
// recomputed from the host input on next read. Nested section instances
// are dropped and rebuilt; computations previously returned by Sections
// keep their own caches.
func (c *Computation) Reset() { c.view.reset() }

var (
	errorType       = reflect.TypeFor[error]()
	decimalType     = reflect.TypeFor[decimal.Decimal]()
	timeType        = reflect.TypeFor[time.Time]()
	computationsOut = reflect.TypeFor[[]*Computation]()
)

// Bind fills the func fields of the struct ptr points to with accessors of
// this computation. A field named Reset of type func() resets it. Other
// func fields return (T, error) and read the output named by the field or
// its `output` tag; their parameters select among outputs published with
// arguments. Fields of type func() ([]*Computation, error) return the
// instances of a nested section. An int64 result with a `scale` tag is
// scaled by that many digits.
func (c *Computation) Bind(ptr any) error {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind needs a pointer to a struct, got %T", ptr)
	}
	v = v.Elem()
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() || field.Type.Kind() != reflect.Func {
			continue
		}
		fn, err := c.accessor(field)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		v.Field(i).Set(fn)
	}
	return nil
}

func (c *Computation) accessor(field reflect.StructField) (reflect.Value, error) {
	ft := field.Type
	if field.Name == "Reset" && ft.NumIn() == 0 && ft.NumOut() == 0 {
		return reflect.MakeFunc(ft, func([]reflect.Value) []reflect.Value {
			c.Reset()
			return nil
		}), nil
	}

	name := field.Name
	if tag, ok := field.Tag.Lookup("output"); ok {
		name = tag
	}
	if !c.view.has(name) {
		return reflect.Value{}, fmt.Errorf("no output named %s", name)
	}
	if ft.NumOut() != 2 || ft.Out(1) != errorType {
		return reflect.Value{}, fmt.Errorf("accessor must return a value and an error")
	}
	result := ft.Out(0)

	if result == computationsOut {
		if ft.NumIn() != 0 {
			return reflect.Value{}, fmt.Errorf("section accessor takes no arguments")
		}
		return reflect.MakeFunc(ft, func([]reflect.Value) []reflect.Value {
			kids, err := c.Sections(name)
			return []reflect.Value{reflect.ValueOf(kids), errorValue(err)}
		}), nil
	}

	w, err := wantFor(result, field.Tag.Get("scale"))
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		args := make([]any, len(in))
		for i, a := range in {
			args[i] = a.Interface()
		}
		out := reflect.Zero(result)
		v, err := c.view.read(name, args, w)
		if err == nil {
			out = reflect.ValueOf(v).Convert(result)
		}
		return []reflect.Value{out, errorValue(err)}
	}), nil
}

func errorValue(err error) reflect.Value {
	if err == nil {
		return reflect.Zero(errorType)
	}
	return reflect.ValueOf(&err).Elem()
}

// wantFor maps an accessor result type to an output conversion.
func wantFor(t reflect.Type, scale string) (want, error) {
	switch t {
	case decimalType:
		return want{kind: wantDecimal}, nil
	case timeType:
		return want{kind: wantTime}, nil
	}
	switch t.Kind() {
	case reflect.Float64, reflect.Float32:
		return want{kind: wantFloat}, nil
	case reflect.Int, reflect.Int32:
		return want{kind: wantInt}, nil
	case reflect.Int64:
		if scale == "" {
			return want{kind: wantInt64}, nil
		}
		var digits int
		if _, err := fmt.Sscan(scale, &digits); err != nil || digits < 0 || digits > numeric.MaxFixedScale {
			return want{}, fmt.Errorf("invalid scale %q", scale)
		}
		return want{kind: wantScaled, scale: digits}, nil
	case reflect.String:
		return want{kind: wantString}, nil
	case reflect.Bool:
		return want{kind: wantBool}, nil
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return want{kind: wantAny}, nil
		}
	}
	return want{}, fmt.Errorf("unsupported result type %s", t)
}
