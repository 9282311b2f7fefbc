package compiler

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/specialistvlad/formulagrid/internal/ctxlog"
	"github.com/specialistvlad/formulagrid/internal/model"
	"github.com/specialistvlad/formulagrid/internal/numeric"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

// engine is the compiled model for one backend. Cells and sections are
// kept in arenas and refer to each other by index.
type engine[N any] struct {
	b        numeric.Backend[N]
	env      *runtime.Environment
	model    *model.Model
	listener Listener

	sections     []*sectionShape[N]
	cells        []*cellShape[N]
	sectionIndex map[*model.Section]int
	cellIndex    map[*model.Cell]int
}

// factory creates the root instance of a computation without exposing the
// backend's number type.
type factory interface {
	root(input any, rnd *rand.Rand) view
}

func (e *engine[N]) root(input any, rnd *rand.Rand) view {
	r := &run[N]{e: e, rnd: rnd}
	return node[N]{inst: newInstance(e.sections[0], r, nil, input, 0)}
}

// Engine is a compiled model. It is immutable and may be shared by
// goroutines; each computation it creates is used by one goroutine at a
// time.
type Engine struct {
	factory      factory
	numeric      numeric.Config
	materialized []string
}

// Compile compiles an analyzed model, analyzing it first if needed.
func Compile(ctx context.Context, m *model.Model, opts Options) (*Engine, error) {
	logger := ctxlog.FromContext(ctx)

	if !m.Analyzed() {
		logger.Debug("Analyzing model.")
		if err := m.Analyze(); err != nil {
			return nil, fmt.Errorf("invalid model: %w", err)
		}
	}
	if err := opts.Numeric.Validate(); err != nil {
		return nil, fmt.Errorf("invalid numeric configuration: %w", err)
	}
	env := opts.Environment
	if env == nil {
		env = runtime.DefaultEnvironment()
	}

	logger.Debug("Compiling model.", "numeric", opts.Numeric.String(), "locale", env.Locale().String(), "mode", env.Mode().String())
	var (
		f            factory
		materialized []string
		err          error
	)
	switch opts.Numeric.Kind {
	case numeric.Double:
		f, materialized, err = build(ctx, numeric.NewDouble(), env, m, opts.Listener)
	case numeric.Decimal:
		b, berr := numeric.NewDecimal(opts.Numeric)
		if berr != nil {
			return nil, berr
		}
		f, materialized, err = build(ctx, b, env, m, opts.Listener)
	case numeric.FixedPoint:
		b, berr := numeric.NewFixed(opts.Numeric)
		if berr != nil {
			return nil, berr
		}
		f, materialized, err = build(ctx, b, env, m, opts.Listener)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("Model compiled.", "cells", len(materialized))
	return &Engine{factory: f, numeric: opts.Numeric, materialized: materialized}, nil
}

// build compiles m in two passes. The first allocates a record for every
// section and every materialized cell; the second compiles the formulas,
// which may refer to any record.
func build[N any](ctx context.Context, b numeric.Backend[N], env *runtime.Environment, m *model.Model, l Listener) (*engine[N], []string, error) {
	logger := ctxlog.FromContext(ctx)
	e := &engine[N]{
		b:            b,
		env:          env,
		model:        m,
		listener:     l,
		sectionIndex: make(map[*model.Section]int),
		cellIndex:    make(map[*model.Cell]int),
	}

	logger.Debug("Allocating sections and cells.")
	for _, sec := range m.Sections() {
		shape := &sectionShape[N]{
			sec:      sec,
			index:    len(e.sections),
			parent:   -1,
			outputs:  make(map[string]map[string]int),
			sections: make(map[string]int),
		}
		if sec.Parent != nil {
			parent := e.sections[e.sectionIndex[sec.Parent]]
			shape.parent = parent.index
			shape.pos = len(parent.kids)
			parent.kids = append(parent.kids, shape.index)
			if _, dup := parent.sections[sec.OutputName()]; dup {
				return nil, nil, compileErrorf("duplicate section output %s", sec.OutputName()).AddContext("section %s", sec.Path())
			}
			parent.sections[sec.OutputName()] = shape.index
		}
		e.sectionIndex[sec] = shape.index
		e.sections = append(e.sections, shape)

		for _, c := range sec.Cells {
			if !c.Materialized() {
				continue
			}
			cs := &cellShape[N]{
				cell:    c,
				index:   len(e.cells),
				section: shape.index,
				slot:    len(shape.cells),
				caching: c.CachingCandidate(),
			}
			shape.cells = append(shape.cells, cs.index)
			e.cellIndex[c] = cs.index
			e.cells = append(e.cells, cs)
			if err := shape.publish(c, cs.index); err != nil {
				return nil, nil, err
			}
		}
	}

	logger.Debug("Compiling cells.", "count", len(e.cells))
	materialized := make([]string, len(e.cells))
	for i, cs := range e.cells {
		if err := cs.compile(e); err != nil {
			return nil, nil, err
		}
		materialized[i] = cs.cell.Path()
	}
	return e, materialized, nil
}

// publish registers the output accessors of cell c.
func (s *sectionShape[N]) publish(c *model.Cell, idx int) error {
	for _, o := range c.Outputs {
		byArgs := s.outputs[o.Name]
		if byArgs == nil {
			byArgs = make(map[string]int)
			s.outputs[o.Name] = byArgs
		}
		key := model.ArgsKey(o.Args...)
		if _, dup := byArgs[key]; dup {
			return compileErrorf("duplicate output %s", o).AddContext("cell %s", c.Path())
		}
		byArgs[key] = idx
	}
	return nil
}

// ComputationOption configures a computation.
type ComputationOption func(*computationConfig)

type computationConfig struct {
	rnd *rand.Rand
}

// WithSeed seeds the random source of RAND.
func WithSeed(seed uint64) ComputationOption {
	return func(c *computationConfig) { c.rnd = runtime.NewRandom(seed) }
}

// WithRandom sets the random source of RAND.
func WithRandom(rnd *rand.Rand) ComputationOption {
	return func(c *computationConfig) { c.rnd = rnd }
}

// NewComputation returns a computation over the host input. Cells are
// computed when they are first read.
func (e *Engine) NewComputation(input any, opts ...ComputationOption) *Computation {
	var cfg computationConfig
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.rnd == nil {
		cfg.rnd = runtime.NewRandom(rand.Uint64())
	}
	return &Computation{view: e.factory.root(input, cfg.rnd)}
}

// Numeric returns the numeric configuration the engine was compiled for.
func (e *Engine) Numeric() numeric.Config { return e.numeric }

// Materialized lists the paths of the cells compiled into accessors, in
// model order. Other cells are inlined where they are used.
func (e *Engine) Materialized() []string {
	return append([]string(nil), e.materialized...)
}
