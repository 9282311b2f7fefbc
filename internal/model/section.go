package model

import "strings"

// Model is a computation: the root section and everything below it.
type Model struct {
	Root *Section

	analyzed bool
}

// New returns a model with an empty root section.
func New() *Model {
	return &Model{Root: &Section{Name: "root"}}
}

// Section is a repetition scope. The root section exists once per
// computation; every nested section repeats once per element of a host
// collection.
type Section struct {
	Name     string
	Parent   *Section
	Cells    []*Cell
	Sections []*Section
	// Source is the host accessor of the collection a nested section
	// repeats over, read from the parent's input.
	Source Binding
	// Output is the accessor that returns the child computations. Empty
	// means the section name.
	Output string
}

// Repeating reports whether s repeats per collection element.
func (s *Section) Repeating() bool { return s.Parent != nil }

// Path is the dotted name of s below the root; the root's path is empty.
func (s *Section) Path() string {
	if s.Parent == nil {
		return ""
	}
	if p := s.Parent.Path(); p != "" {
		return p + "." + s.Name
	}
	return s.Name
}

// Depth is 0 for the root.
func (s *Section) Depth() int {
	d := 0
	for p := s.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// Encloses reports whether s is o or one of its ancestors.
func (s *Section) Encloses(o *Section) bool {
	for p := o; p != nil; p = p.Parent {
		if p == s {
			return true
		}
	}
	return false
}

// OutputName is the accessor of the child computations.
func (s *Section) OutputName() string {
	if s.Output != "" {
		return s.Output
	}
	return s.Name
}

func (s *Section) add(c *Cell) *Cell {
	c.Section = s
	s.Cells = append(s.Cells, c)
	return c
}

// AddConstant adds a cell holding a literal.
func (s *Section) AddConstant(name string, value *Const) *Cell {
	return s.add(&Cell{Name: name, Kind: ConstantCell, Type: TypeOf(value), Expr: value, declared: true})
}

// AddInput adds a cell read from the host input through b.
func (s *Section) AddInput(name string, t DataType, b Binding) *Cell {
	return s.add(&Cell{Name: name, Kind: InputCell, Type: t, Input: b, declared: true})
}

// AddFormula adds a cell computed by expr. Its type is inferred by Analyze
// unless declared with Typed.
func (s *Section) AddFormula(name string, expr Expr) *Cell {
	return s.add(&Cell{Name: name, Kind: FormulaCell, Expr: expr})
}

// AddSection adds a nested section repeating over the host collection
// source.
func (s *Section) AddSection(name string, source Binding) *Section {
	child := &Section{Name: name, Parent: s, Source: source}
	s.Sections = append(s.Sections, child)
	return child
}

// Cell returns the cell of s with the given name, ignoring case.
func (s *Section) Cell(name string) *Cell {
	for _, c := range s.Cells {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Child returns the nested section with the given name, ignoring case.
func (s *Section) Child(name string) *Section {
	for _, c := range s.Sections {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Sections returns every section, parents before children.
func (m *Model) Sections() []*Section {
	var out []*Section
	var walk func(s *Section)
	walk = func(s *Section) {
		out = append(out, s)
		for _, c := range s.Sections {
			walk(c)
		}
	}
	walk(m.Root)
	return out
}

// Cells returns every cell, section by section in the order of Sections.
func (m *Model) Cells() []*Cell {
	var out []*Cell
	for _, s := range m.Sections() {
		out = append(out, s.Cells...)
	}
	return out
}

// Analyzed reports whether Analyze succeeded.
func (m *Model) Analyzed() bool { return m.analyzed }
