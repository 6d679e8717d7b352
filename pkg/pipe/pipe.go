package pipe

import (
	"errors"
	"fmt"

	"github.com/ib-77/wordpipe/pkg/rop"
)

var (
	ErrFeedNotImplemented = errors.New("pipe: stage does not implement Feed")
	ErrNoSuchStage        = errors.New("pipe: no such stage")
	ErrNoCoordinator      = errors.New("pipe: stage is not bound to a coordinator")
)

// Solution is the part of the trained model the stages may consult.
type Solution interface {
	// SingleTaskIDs are the ids already settled in a previous iteration.
	SingleTaskIDs() IDSet
}

// Coordinator owns the task queues and the shared training configuration.
type Coordinator interface {
	TaskIDs() IDSet
	SplitEnabled() bool
	Solution() Solution
	Submit(task *Task) error
}

// Pipe is one stage of a pipeline. Implementations embed Base.
type Pipe interface {
	Feed(workerID int, task *Task) error
	StageID() int
	base() *Base
}

// Builder is implemented by stages that prepare state after the pipeline is resolved.
type Builder interface {
	Build() error
}

// Transformer is implemented by stages that replace themselves at build time. Returning
// nil removes the stage from the pipeline.
type Transformer interface {
	Transform() Pipe
}

// Base carries a stage's identity and its coordinator. Its Feed fails so that a stage
// forgetting to implement Feed is detected on the first task.
type Base struct {
	id    int
	coord Coordinator
}

func NewBase(stageID int, c Coordinator) Base {
	return Base{id: stageID, coord: c}
}

func (b *Base) base() *Base { return b }

func (b *Base) StageID() int { return b.id }

func (b *Base) Coordinator() Coordinator { return b.coord }

func (b *Base) Feed(_ int, _ *Task) error {
	return fmt.Errorf("stage %d: %w", b.id, ErrFeedNotImplemented)
}

// TaskIDs selects the ids a task has to be expanded over. Ids settled in the solution
// are skipped once splitting is on and the first iteration is over. The returned set is
// always a fresh copy.
func (b *Base) TaskIDs(task *Task) (IDSet, error) {
	if rop.IsNil(b.coord) {
		return nil, fmt.Errorf("stage %d: %w", b.id, ErrNoCoordinator)
	}
	ids := b.coord.TaskIDs()
	if !b.coord.SplitEnabled() || task.Iteration == 0 {
		return ids.Clone(), nil
	}
	sol := b.coord.Solution()
	if rop.IsNil(sol) {
		return ids.Clone(), nil
	}
	return ids.Minus(sol.SingleTaskIDs()), nil
}

// Submit hands task to the stage after this one.
func (b *Base) Submit(task *Task) error {
	if rop.IsNil(b.coord) {
		return fmt.Errorf("stage %d: %w", b.id, ErrNoCoordinator)
	}
	task.Stage = b.id + 1
	return b.coord.Submit(task)
}
