// Package pipe defines the stage contract of a training pipeline.
//
// A pipeline is an ordered list of stages. The first stage receives one root task per
// partition; every stage hands derived tasks to the next one through its coordinator,
// never by calling it directly. Before the first task is fed each stage may replace or
// remove itself exactly once (Transformer) and prepare internal state (Builder).
package pipe
