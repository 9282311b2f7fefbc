package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/formulagrid/internal/compiler"
	"github.com/specialistvlad/formulagrid/internal/ctxlog"
	"github.com/specialistvlad/formulagrid/internal/hclmodel"
	"github.com/specialistvlad/formulagrid/internal/model"
)

// Compile loads the model and compiles it with the configured backend.
func (a *App) Compile(ctx context.Context) (*compiler.Engine, error) {
	logger := ctxlog.FromContext(ctx)

	m, err := a.loader.Load(ctx, a.config.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	opts := compiler.Options{
		Numeric:     a.config.NumericConfig(),
		Environment: a.config.Environment(),
	}
	if a.config.Trace {
		opts.Listener = compiler.SlogListener{Logger: logger}
	}
	engine, err := compiler.Compile(ctx, m, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to compile model: %w", err)
	}
	logger.Info("Model compiled.", "numeric", engine.Numeric().String(), "materialized", len(engine.Materialized()))
	return engine, nil
}

// LoadInputs reads the configured inputs file. Without one the model runs
// on empty inputs.
func (a *App) LoadInputs(ctx context.Context) (model.Record, error) {
	if a.config.InputsPath == "" {
		ctxlog.FromContext(ctx).Debug("No inputs file configured.")
		return model.Record{}, nil
	}
	return hclmodel.LoadInputs(ctx, a.config.InputsPath)
}

// Run compiles the model, computes it over the inputs and prints every
// output, one "name = value" line each, sorted. Outputs of nested sections
// are prefixed with the section and instance, as in items[0].total.
func (a *App) Run(ctx context.Context) error {
	ctx = a.Context(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Run method started.")

	engine, err := a.Compile(ctx)
	if err != nil {
		return err
	}
	input, err := a.LoadInputs(ctx)
	if err != nil {
		return err
	}

	logger.Info("🚀 Computing outputs...")
	n, err := a.print(engine.NewComputation(input), "")
	if err != nil {
		return err
	}
	logger.Info("🏁 Computation finished.", "outputs", n)
	return nil
}

// print writes the outputs of c and of its nested sections. Formula errors
// are printed in place of the value; host input errors abort the run.
func (a *App) print(c *compiler.Computation, prefix string) (int, error) {
	count := 0
	for _, name := range c.Outputs() {
		var inputErr *compiler.InputError
		sections, err := c.Sections(name)
		switch {
		case err == nil:
			for i, s := range sections {
				n, err := a.print(s, fmt.Sprintf("%s%s[%d].", prefix, name, i))
				if err != nil {
					return count, err
				}
				count += n
			}
			continue
		case errors.As(err, &inputErr):
			return count, fmt.Errorf("failed to read section %s%s: %w", prefix, name, err)
		}
		text, err := c.Text(name)
		if err != nil {
			if errors.As(err, &inputErr) {
				return count, fmt.Errorf("failed to compute %s%s: %w", prefix, name, err)
			}
			text = "error: " + strings.TrimSpace(err.Error())
		}
		fmt.Fprintf(a.outW, "%s%s = %s\n", prefix, name, text)
		count++
	}
	return count, nil
}
