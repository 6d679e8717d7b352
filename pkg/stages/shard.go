package stages

import "github.com/ib-77/wordpipe/pkg/pipe"

// Shard is a payload bound to one task id.
type Shard struct {
	ID      int
	Payload any
}

// Fanout submits one Shard per task id still to be trained.
type Fanout struct {
	pipe.Base
}

func NewFanout() pipe.Factory {
	return func(id int, c pipe.Coordinator) pipe.Pipe {
		return &Fanout{Base: pipe.NewBase(id, c)}
	}
}

func (f *Fanout) Feed(_ int, task *pipe.Task) error {
	ids, err := f.TaskIDs(task)
	if err != nil {
		return err
	}
	for _, id := range ids.Sorted() {
		if err := f.Submit(task.Derive(Shard{ID: id, Payload: task.Payload})); err != nil {
			return err
		}
	}
	return nil
}
