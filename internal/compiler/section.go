package compiler

import (
	"math/rand/v2"

	"github.com/specialistvlad/formulagrid/internal/model"
)

// sectionShape is the compiled layout of a section, shared by all of its
// instances.
type sectionShape[N any] struct {
	sec *model.Section
	// index is the position in the engine's arena, parent the parent's
	// (-1 for the root) and pos the position among the parent's sections.
	index  int
	parent int
	pos    int
	// cells lists the arena indices of the cached cells; a cell's slot is
	// its position here.
	cells []int
	// kids lists the arena indices of the nested sections.
	kids []int
	// outputs maps an output name and its argument key to a cell.
	outputs map[string]map[string]int
	// sections maps the output name of a nested section to its arena index.
	sections map[string]int
}

// cached is the cache entry of one cell in one instance.
type cached[N any] struct {
	num  N
	text string
	ok   bool
}

// run is the state shared by all instances of one computation.
type run[N any] struct {
	e   *engine[N]
	rnd *rand.Rand
}

// instance is one evaluation context of a section: the root once per
// computation and a nested section once per element of its host
// collection.
type instance[N any] struct {
	shape  *sectionShape[N]
	run    *run[N]
	parent *instance[N]
	input  any
	index  int
	cache  []cached[N]
	// kids holds the instances of each nested section, built on first
	// use. nil means not built yet.
	kids [][]*instance[N]
}

func newInstance[N any](shape *sectionShape[N], r *run[N], parent *instance[N], input any, index int) *instance[N] {
	return &instance[N]{
		shape:  shape,
		run:    r,
		parent: parent,
		input:  input,
		index:  index,
		cache:  make([]cached[N], len(shape.cells)),
		kids:   make([][]*instance[N], len(shape.kids)),
	}
}

// ancestor returns the instance up levels above inst.
func (inst *instance[N]) ancestor(up int) *instance[N] {
	for ; up > 0; up-- {
		inst = inst.parent
	}
	return inst
}

// children returns the instances of the nested section with the given
// arena index. A missing host collection has no elements.
func (inst *instance[N]) children(section int) []*instance[N] {
	shape := inst.run.e.sections[section]
	if kids := inst.kids[shape.pos]; kids != nil {
		return kids
	}
	items, err := collectionOf(inst.input, shape.sec.Source)
	if err != nil {
		panic(err)
	}
	kids := make([]*instance[N], len(items))
	for i, item := range items {
		kids[i] = newInstance(shape, inst.run, inst, item, i)
	}
	inst.kids[shape.pos] = kids
	return kids
}

// reset forgets the cached values of inst and its nested instances. The
// instances of nested sections are rebuilt from the host input when they
// are used again.
func (inst *instance[N]) reset() {
	clear(inst.cache)
	clear(inst.kids)
}

// position lists the indices of inst within its repeating ancestors,
// outermost first.
func (inst *instance[N]) position() []int {
	var out []int
	for p := inst; p.parent != nil; p = p.parent {
		out = append(out, p.index)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
