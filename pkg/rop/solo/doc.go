// Package solo contains the single-value, synchronous primitives over Result[T]
// that the channel lines are built from.
//
// - Succeed: wrap a value
// - Try: call a function (Out, error) and convert the error to a failure or cancel
// - Finally: reduce a result to a concrete value via success/error/cancel handlers
package solo
