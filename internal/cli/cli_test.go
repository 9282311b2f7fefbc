package cli_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/formulagrid/internal/app"
	"github.com/specialistvlad/formulagrid/internal/cli"
	"github.com/specialistvlad/formulagrid/internal/numeric"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *app.Config)
	}{
		{"positional path", []string{"model.hcl"}, func(t *testing.T, c *app.Config) {
			assert.Equal(t, "model.hcl", c.ModelPath)
			assert.Equal(t, numeric.DoubleConfig(), c.NumericConfig())
			assert.Equal(t, "warn", c.LogLevel)
		}},
		{"model flag wins", []string{"-model", "a.hcl", "-m", "b.hcl", "c.hcl"}, func(t *testing.T, c *app.Config) {
			assert.Equal(t, "a.hcl", c.ModelPath)
		}},
		{"shorthand", []string{"-m", "b.hcl"}, func(t *testing.T, c *app.Config) {
			assert.Equal(t, "b.hcl", c.ModelPath)
		}},
		{"backend", []string{"-numeric", "fixed", "-scale", "2", "-rounding", "half-even", "-inputs", "in.hcl", "m.hcl"}, func(t *testing.T, c *app.Config) {
			assert.Equal(t, numeric.FixedConfig(2, numeric.HalfEven), c.NumericConfig())
			assert.Equal(t, "in.hcl", c.InputsPath)
		}},
		{"trace raises the level", []string{"-trace", "-log-format", "JSON", "m.hcl"}, func(t *testing.T, c *app.Config) {
			assert.True(t, c.Trace)
			assert.Equal(t, "debug", c.LogLevel)
			assert.Equal(t, "json", c.LogFormat)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, exit, err := cli.Parse(tt.args, &bytes.Buffer{})
			require.NoError(t, err)
			require.False(t, exit)
			tt.check(t, cfg)
		})
	}
}

func TestParse_ExitsCleanly(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{{"-h"}, {}} {
		out := &bytes.Buffer{}
		cfg, exit, err := cli.Parse(args, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"-nope"}, "flag provided but not defined"},
		{"log format", []string{"-log-format", "xml", "m.hcl"}, "invalid log-format"},
		{"log level", []string{"-log-level", "loud", "m.hcl"}, "invalid log-level"},
		{"numeric", []string{"-numeric", "complex", "m.hcl"}, "unknown numeric type"},
		{"scale", []string{"-numeric", "fixed", "-scale", "40", "m.hcl"}, "invalid numeric configuration"},
		{"timezone", []string{"-timezone", "Nowhere/Else", "m.hcl"}, "invalid timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := cli.Parse(tt.args, &bytes.Buffer{})
			var exitErr *cli.ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tt.want)
		})
	}
}
