package compiler

import "github.com/specialistvlad/formulagrid/internal/model"

// eval is a compiled expression producing a T.
type eval[N, T any] func(f *frame[N]) T

// slot holds a let value or a fold variable during one evaluation. set marks
// let values that have been computed.
type slot[N any] struct {
	num  N
	text string
	set  bool
}

// frame is the state of one formula evaluation: the section instance the
// code runs against and the slots of its names.
type frame[N any] struct {
	inst  *instance[N]
	slots []slot[N]
}

func newFrame[N any](inst *instance[N], slots int) *frame[N] {
	f := &frame[N]{inst: inst}
	if slots > 0 {
		f.slots = make([]slot[N], slots)
	}
	return f
}

// binding is a name visible to an expression.
type binding[N any] struct {
	name string
	slot int
	typ  model.DataType
	// depth is the section depth the name was bound at.
	depth int
	// num or text computes a let value on its first use. Both are nil for
	// fold variables, which are assigned before they are read.
	num  eval[N, N]
	text eval[N, string]
	next *binding[N]
}

// scope is the lexical context of an expression: the section it is
// evaluated in and the names bound around it.
type scope[N any] struct {
	ctx   *model.Section
	names *binding[N]
}

func (s scope[N]) with(b *binding[N]) scope[N] {
	b.next = s.names
	s.names = b
	return s
}

// in returns s evaluated inside the nested section sec.
func (s scope[N]) in(sec *model.Section) scope[N] {
	s.ctx = sec
	return s
}

func (s scope[N]) lookup(name string) *binding[N] {
	for b := s.names; b != nil; b = b.next {
		if b.name == name {
			return b
		}
	}
	return nil
}

func (s scope[N]) typeOf(e model.Expr) model.DataType {
	return model.TypeIn(e, func(name string) (model.DataType, bool) {
		if b := s.lookup(name); b != nil {
			return b.typ, true
		}
		return model.Numeric, false
	})
}

// within runs fn against the ancestor instance up levels above the current
// one.
func within[N, T any](up int, fn eval[N, T]) eval[N, T] {
	if up == 0 {
		return fn
	}
	return func(f *frame[N]) T {
		inst := f.inst
		f.inst = inst.ancestor(up)
		v := fn(f)
		f.inst = inst
		return v
	}
}
