package numeric

import (
	"errors"
	"fmt"
	"strings"
)

// Kind selects the numeric representation of an engine.
type Kind int

const (
	Double Kind = iota
	Decimal
	FixedPoint
)

func (k Kind) String() string {
	switch k {
	case Double:
		return "double"
	case Decimal:
		return "decimal"
	case FixedPoint:
		return "fixed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a user supplied name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "double", "float", "float64":
		return Double, nil
	case "decimal", "bigdecimal":
		return Decimal, nil
	case "fixed", "fixedpoint", "scaled", "long":
		return FixedPoint, nil
	}
	return Double, fmt.Errorf("unknown numeric type %q: must be 'double', 'decimal' or 'fixed'", s)
}

// Rounding is the rounding mode applied when a value is rescaled.
type Rounding int

const (
	HalfUp Rounding = iota
	HalfEven
	Up
	Down
	Ceiling
	Floor
)

var roundingNames = map[Rounding]string{
	HalfUp:   "half-up",
	HalfEven: "half-even",
	Up:       "up",
	Down:     "down",
	Ceiling:  "ceiling",
	Floor:    "floor",
}

func (r Rounding) String() string {
	if name, ok := roundingNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rounding(%d)", int(r))
}

// ParseRounding converts a user supplied name into a Rounding.
func ParseRounding(s string) (Rounding, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for r, name := range roundingNames {
		if name == norm {
			return r, nil
		}
	}
	return HalfUp, fmt.Errorf("unknown rounding mode %q", s)
}

// Unscaled marks a decimal configuration without a fixed scale.
const Unscaled = -1

// MaxFixedScale is the largest scale a FixedPoint backend supports; 10^18 is
// the largest power of ten an int64 holds.
const MaxFixedScale = 18

// Config describes the numeric representation of one engine.
type Config struct {
	Kind     Kind
	Scale    int
	Rounding Rounding
}

// DoubleConfig returns the configuration of the IEEE double backend.
func DoubleConfig() Config {
	return Config{Kind: Double, Scale: Unscaled}
}

// DecimalConfig returns a decimal configuration. Use Unscaled for unlimited
// precision.
func DecimalConfig(scale int, rounding Rounding) Config {
	return Config{Kind: Decimal, Scale: scale, Rounding: rounding}
}

// FixedConfig returns a fixed point configuration.
func FixedConfig(scale int, rounding Rounding) Config {
	return Config{Kind: FixedPoint, Scale: scale, Rounding: rounding}
}

// Scaled reports whether values are kept at a fixed number of fractional digits.
func (c Config) Scaled() bool {
	return c.Kind != Double && c.Scale != Unscaled
}

// Validate checks the combination of kind, scale and rounding.
func (c Config) Validate() error {
	var errs []error
	switch c.Kind {
	case Double:
	case Decimal:
		if c.Scale < Unscaled {
			errs = append(errs, fmt.Errorf("decimal scale must be >= 0 or unscaled, got %d", c.Scale))
		}
	case FixedPoint:
		if c.Scale < 0 || c.Scale > MaxFixedScale {
			errs = append(errs, fmt.Errorf("fixed point scale must be between 0 and %d, got %d", MaxFixedScale, c.Scale))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported numeric kind %v", c.Kind))
	}
	if _, ok := roundingNames[c.Rounding]; !ok {
		errs = append(errs, fmt.Errorf("unsupported rounding mode %v", c.Rounding))
	}
	return errors.Join(errs...)
}

func (c Config) String() string {
	switch c.Kind {
	case Double:
		return c.Kind.String()
	default:
		if c.Scale == Unscaled {
			return fmt.Sprintf("%s(unscaled)", c.Kind)
		}
		return fmt.Sprintf("%s(scale=%d, %s)", c.Kind, c.Scale, c.Rounding)
	}
}
