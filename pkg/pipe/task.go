package pipe

import "github.com/google/uuid"

// Task is a unit of work travelling between stages. Stage is the index of the stage that
// will be fed with it; Worker is the line that owns it.
type Task struct {
	ID        uuid.UUID
	Iteration int
	Stage     int
	Worker    int
	Payload   any
}

func NewTask(iteration, worker int, payload any) *Task {
	return &Task{
		ID:        uuid.New(),
		Iteration: iteration,
		Worker:    worker,
		Payload:   payload,
	}
}

// Derive creates a follow-up task on the same worker and iteration.
func (t *Task) Derive(payload any) *Task {
	return &Task{
		ID:        uuid.New(),
		Iteration: t.Iteration,
		Stage:     t.Stage,
		Worker:    t.Worker,
		Payload:   payload,
	}
}
