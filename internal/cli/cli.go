package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/formulagrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("formulagrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
FormulaGrid - computes spreadsheet-style models written in HCL.

Usage:
  formulagrid [options] [MODEL_PATH]

Arguments:
  MODEL_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	modelFlag := flagSet.String("model", "", "Path to the model file or directory.")
	mFlag := flagSet.String("m", "", "Path to the model file or directory (shorthand).")
	inputsFlag := flagSet.String("inputs", "", "Path to an .hcl file with the input values.")
	numericFlag := flagSet.String("numeric", "double", "Numeric type. Options: 'double', 'decimal' or 'fixed'.")
	scaleFlag := flagSet.Int("scale", 4, "Fractional digits kept by the decimal and fixed types. -1 leaves decimals unscaled.")
	roundingFlag := flagSet.String("rounding", "half-up", "Rounding mode. Options: 'half-up', 'half-even', 'up', 'down', 'ceiling', 'floor'.")
	localeFlag := flagSet.String("locale", "en-US", "BCP 47 locale for number and date text.")
	timezoneFlag := flagSet.String("timezone", "UTC", "IANA time zone of dates and NOW().")
	modeFlag := flagSet.String("mode", "excel", "Compatibility mode. Options: 'excel' or 'openoffice'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	traceFlag := flagSet.Bool("trace", false, "Log every cell evaluation at debug level.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *modelFlag != "" {
		path = *modelFlag
	} else if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Model path determined.", "path", path)

	if path == "" {
		slog.Debug("No model path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	if *traceFlag && logLevel != "debug" {
		slog.Debug("Tracing requested, raising log level to debug.")
		logLevel = "debug"
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ModelPath:  path,
		InputsPath: *inputsFlag,
		Numeric:    *numericFlag,
		Scale:      *scaleFlag,
		Rounding:   *roundingFlag,
		Locale:     *localeFlag,
		Timezone:   *timezoneFlag,
		Mode:       *modeFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
		Trace:      *traceFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "model", config.ModelPath, "numeric", config.NumericConfig().String())
	return config, false, nil
}
