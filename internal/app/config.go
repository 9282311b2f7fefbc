package app

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/specialistvlad/formulagrid/internal/numeric"
	"github.com/specialistvlad/formulagrid/internal/runtime"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelPath  string // hcl file or directory
	InputsPath string // optional hcl inputs file

	Numeric  string
	Scale    int
	Rounding string
	Locale   string
	Timezone string
	Mode     string

	LogFormat string
	LogLevel  string
	// Trace logs every cell evaluation at debug level.
	Trace bool

	numeric numeric.Config
	env     *runtime.Environment
}

// NewConfig validates cfg and resolves the numeric backend and the
// environment it names.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("ModelPath is a required configuration field and cannot be empty")
	}

	if cfg.Numeric == "" {
		cfg.Numeric = numeric.Double.String()
	}
	if cfg.Rounding == "" {
		cfg.Rounding = numeric.HalfUp.String()
	}

	var errs []error
	kind, err := numeric.ParseKind(cfg.Numeric)
	errs = append(errs, err)
	rounding, err := numeric.ParseRounding(cfg.Rounding)
	errs = append(errs, err)
	mode, err := runtime.ParseMode(cfg.Mode)
	errs = append(errs, err)

	locale := language.AmericanEnglish
	if cfg.Locale != "" {
		if locale, err = language.Parse(cfg.Locale); err != nil {
			errs = append(errs, fmt.Errorf("invalid locale %q: %w", cfg.Locale, err))
		}
	}
	location := time.UTC
	if cfg.Timezone != "" {
		if location, err = time.LoadLocation(cfg.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	switch kind {
	case numeric.Double:
		cfg.numeric = numeric.DoubleConfig()
	case numeric.Decimal:
		cfg.numeric = numeric.DecimalConfig(cfg.Scale, rounding)
	default:
		cfg.numeric = numeric.FixedConfig(cfg.Scale, rounding)
	}
	if err := cfg.numeric.Validate(); err != nil {
		return nil, fmt.Errorf("invalid numeric configuration: %w", err)
	}
	cfg.env = runtime.NewEnvironment(locale, location, mode)
	return &cfg, nil
}

// NumericConfig is the resolved numeric backend.
func (c *Config) NumericConfig() numeric.Config { return c.numeric }

// Environment is the resolved locale, time zone and computation mode.
func (c *Config) Environment() *runtime.Environment { return c.env }
