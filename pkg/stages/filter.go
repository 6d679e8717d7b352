package stages

import (
	"fmt"

	"github.com/ib-77/wordpipe/pkg/pipe"
)

// Filter drops the words Keep rejects. Without Keep the stage removes itself.
type Filter struct {
	pipe.Base
	Keep func(word string) bool
}

func NewFilter(keep func(word string) bool) pipe.Factory {
	return func(id int, c pipe.Coordinator) pipe.Pipe {
		return &Filter{Base: pipe.NewBase(id, c), Keep: keep}
	}
}

func (f *Filter) Transform() pipe.Pipe {
	if f.Keep == nil {
		return nil
	}
	return f
}

func (f *Filter) Feed(_ int, task *pipe.Task) error {
	in, ok := task.Payload.(Sentence)
	if !ok {
		return fmt.Errorf("filter: %T: %w", task.Payload, ErrUnexpectedPayload)
	}

	out := Sentence{Words: make([]string, 0, len(in.Words))}
	for i, w := range in.Words {
		if !f.Keep(w) {
			continue
		}
		if i < in.First {
			out.First++
		}
		if i < in.Last {
			out.Last++
		}
		out.Words = append(out.Words, w)
	}

	if out.First == out.Last {
		return nil
	}
	return f.Submit(task.Derive(out))
}
