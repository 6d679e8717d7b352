// Package lite composes the line plumbing into parallel lines.
//
// Common usage:
// - Turnout: run an engine over an input channel on a fixed number of lines
// - TurnoutWith: same, with handlers for inputs left behind on cancellation
// - Try: lift a (Out, error) function into an engine that runs on the line
// - Finally: reduce every Result[In] to Out
package lite
