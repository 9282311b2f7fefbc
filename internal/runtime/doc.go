// Package runtime is the function library called by compiled formulas.
//
// The functions reproduce the behavior of spreadsheet applications, including
// their well known quirks: the 1900 leap-year bug of the serial date system,
// the iteration limits of the financial solvers and the search order of the
// inverse distribution functions. Where the two supported applications differ
// the Environment's Mode decides.
//
// Functions report failures as *FormulaError or *NotAvailableError values.
// Errors created for domain violations are marked as legacy zero results:
// the double engine turns them into 0, the decimal and fixed point engines
// propagate them.
package runtime
