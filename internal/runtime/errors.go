package runtime

import (
	"errors"
	"fmt"
)

// Spreadsheet error codes.
const (
	CodeNum   = "#NUM!"
	CodeValue = "#VALUE!"
	CodeDiv0  = "#DIV/0!"
	CodeRef   = "#REF!"
	CodeNA    = "#N/A"
	CodeError = "#ERROR"
)

// FormulaError is a runtime failure of a spreadsheet function.
type FormulaError struct {
	Code   string
	Reason string
	// legacy marks domain errors the double engine reports as 0.
	legacy bool
}

func (e *FormulaError) Error() string {
	if e.Reason == "" {
		return e.Code
	}
	return fmt.Sprintf("%s %s", e.Code, e.Reason)
}

// LegacyZero reports whether lenient engines substitute 0 for this error.
func (e *FormulaError) LegacyZero() bool { return e.legacy }

// NotAvailableError is raised by lookups that find nothing and by NA().
type NotAvailableError struct {
	Reason string
}

func (e *NotAvailableError) Error() string {
	if e.Reason == "" {
		return CodeNA
	}
	return CodeNA + " " + e.Reason
}

// Fail returns a FormulaError that every engine propagates.
func Fail(code, format string, args ...any) error {
	return &FormulaError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// domain returns a #NUM! error that the double engine reports as 0.
func domain(format string, args ...any) error {
	return &FormulaError{Code: CodeNum, Reason: fmt.Sprintf(format, args...), legacy: true}
}

// legacyValue returns a #VALUE! error that the double engine reports as 0.
func legacyValue(format string, args ...any) error {
	return &FormulaError{Code: CodeValue, Reason: fmt.Sprintf(format, args...), legacy: true}
}

// NotAvailable returns a NotAvailableError.
func NotAvailable(format string, args ...any) error {
	return &NotAvailableError{Reason: fmt.Sprintf(format, args...)}
}

// UserError is the failure raised by the ERROR() function.
func UserError(message string) error {
	return &FormulaError{Code: CodeError, Reason: message}
}

// IsFormulaError reports whether err is a spreadsheet failure of any kind.
func IsFormulaError(err error) bool {
	var fe *FormulaError
	var na *NotAvailableError
	return errors.As(err, &fe) || errors.As(err, &na)
}

// IsNotAvailable reports whether err is a #N/A failure.
func IsNotAvailable(err error) bool {
	var na *NotAvailableError
	return errors.As(err, &na)
}

// IsLegacyZero reports whether err is a domain error that lenient engines
// turn into 0.
func IsLegacyZero(err error) bool {
	var fe *FormulaError
	return errors.As(err, &fe) && fe.legacy
}
