package compiler

import (
	"github.com/specialistvlad/formulagrid/internal/model"
)

// cellShape is a materialized cell: compiled once and read through its
// accessor wherever it is referenced.
type cellShape[N any] struct {
	cell    *model.Cell
	index   int
	section int
	// slot is the cache entry of the cell in its section instances.
	slot int
	// slots is the frame size of the cell's formula.
	slots int
	// Exactly one of num and text is set, by the cell's type.
	num  eval[N, N]
	text eval[N, string]
	// caching is unset for cells recomputed on every read.
	caching bool
}

// number reads a numeric or boolean cell of inst.
func (c *cellShape[N]) number(inst *instance[N]) N {
	entry := &inst.cache[c.slot]
	if entry.ok {
		return entry.num
	}
	v := c.num(newFrame(inst, c.slots))
	if c.caching {
		entry.num, entry.ok = v, true
	}
	c.notify(inst, v)
	return v
}

// textual reads a text cell of inst.
func (c *cellShape[N]) textual(inst *instance[N]) string {
	entry := &inst.cache[c.slot]
	if entry.ok {
		return entry.text
	}
	v := c.text(newFrame(inst, c.slots))
	if c.caching {
		entry.text, entry.ok = v, true
	}
	c.notify(inst, v)
	return v
}

func (c *cellShape[N]) notify(inst *instance[N], v any) {
	l := inst.run.e.listener
	if l == nil {
		return
	}
	l.CellEvaluated(Evaluation{Cell: c.cell.Path(), Instance: inst.position(), Value: v})
}

// compile builds the code of the cell.
func (c *cellShape[N]) compile(e *engine[N]) error {
	x := &exprCompiler[N]{e: e, b: e.b, env: e.env}
	cell := c.cell
	if cell.Kind == model.InputCell {
		if cell.Type == model.Text {
			c.text = hostText(x, cell.Input)
		} else {
			c.num = hostNumber(x, cell.Input)
		}
		return nil
	}
	s := scope[N]{ctx: cell.Section}
	var err error
	if cell.Type == model.Text {
		c.text, err = x.text(cell.Expr, s)
	} else {
		c.num, err = x.numeric(cell.Expr, s)
	}
	if err != nil {
		return withContext(err, "cell %s", cell.Path())
	}
	c.slots = x.slots
	return nil
}
