package compiler

import (
	"log/slog"

	"github.com/specialistvlad/formulagrid/internal/numeric"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

// Options configure compilation.
type Options struct {
	// Numeric selects the backend. The zero value is the double backend.
	Numeric numeric.Config
	// Environment defaults to runtime.DefaultEnvironment.
	Environment *runtime.Environment
	// Listener, if set, observes every cell evaluation of every
	// computation.
	Listener Listener
}

// Evaluation describes one computed cell.
type Evaluation struct {
	// Cell is the dotted path of the cell.
	Cell string
	// Instance lists the positions of the evaluated section instance in
	// its repeating ancestors, outermost first. It is empty for the root.
	Instance []int
	Value    any
}

// Listener observes cell evaluations. It is called synchronously from the
// computation that evaluated the cell.
type Listener interface {
	CellEvaluated(ev Evaluation)
}

// SlogListener logs evaluations at debug level.
type SlogListener struct {
	Logger *slog.Logger
}

func (l SlogListener) CellEvaluated(ev Evaluation) {
	l.Logger.Debug("Cell evaluated.", "cell", ev.Cell, "instance", ev.Instance, "value", ev.Value)
}
