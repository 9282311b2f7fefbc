// Package numeric provides the numeric representations a formula engine can be
// compiled for.
//
// Exactly one representation is selected per compiled engine. Each one is a
// Backend over a concrete Go type:
//
//   - Double over float64, plain IEEE arithmetic with the lenient legacy
//     behavior of returning zero for domain errors.
//   - Decimal over decimal.Decimal, where every product, quotient and power is
//     rescaled to the configured scale with the configured rounding mode.
//   - FixedPoint over int64 values scaled by a power of ten. Multiplication and
//     division rescale by the "one" unit using 128-bit intermediates and fail
//     on overflow instead of truncating.
//
// The compiler is generic over the backend's value type, so the choice of
// representation is resolved once, when an engine is compiled.
package numeric
