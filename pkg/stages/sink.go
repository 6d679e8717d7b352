package stages

import (
	"errors"

	"github.com/ib-77/wordpipe/pkg/pipe"
)

var ErrNoSink = errors.New("stages: sink without a consumer")

// Sink ends a pipeline by handing every payload to Consume. Consume is called from the
// worker line that owns the task, so it must be safe for concurrent use across workers.
type Sink struct {
	pipe.Base
	Consume func(worker int, task *pipe.Task) error
}

func NewSink(consume func(worker int, task *pipe.Task) error) pipe.Factory {
	return func(id int, c pipe.Coordinator) pipe.Pipe {
		return &Sink{Base: pipe.NewBase(id, c), Consume: consume}
	}
}

func (s *Sink) Build() error {
	if s.Consume == nil {
		return ErrNoSink
	}
	return nil
}

func (s *Sink) Feed(worker int, task *pipe.Task) error {
	return s.Consume(worker, task)
}
