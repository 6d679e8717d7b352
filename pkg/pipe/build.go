package pipe

import (
	"fmt"
	"log/slog"

	"github.com/ib-77/wordpipe/pkg/rop"
)

// Factory instantiates the stage placed at stageID.
type Factory func(stageID int, c Coordinator) Pipe

// Pipeline is the resolved, ordered list of stages.
type Pipeline struct {
	stages []Pipe
}

// Build instantiates every stage, lets each transform itself once, drops the removed
// ones and renumbers the rest before running their Build hooks.
func Build(log *slog.Logger, c Coordinator, factories ...Factory) (*Pipeline, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	stages := make([]Pipe, 0, len(factories))
	for i, f := range factories {
		p := f(i, c)
		if rop.IsNil(p) {
			return nil, fmt.Errorf("pipe: factory %d returned no stage", i)
		}

		if t, ok := p.(Transformer); ok {
			next := t.Transform()
			if rop.IsNil(next) {
				log.Info("stage removed", "stage", i, "type", fmt.Sprintf("%T", p))
				continue
			}
			if next != p {
				log.Info("stage replaced", "stage", i, "from", fmt.Sprintf("%T", p), "to", fmt.Sprintf("%T", next))
			}
			p = next
		}
		stages = append(stages, p)
	}

	for i, p := range stages {
		b := p.base()
		b.id = i
		b.coord = c
	}

	for _, p := range stages {
		if b, ok := p.(Builder); ok {
			if err := b.Build(); err != nil {
				return nil, fmt.Errorf("pipe: build stage %d: %w", p.StageID(), err)
			}
		}
	}

	log.Debug("pipeline built", "stages", len(stages), "declared", len(factories))
	return &Pipeline{stages: stages}, nil
}

func (p *Pipeline) Len() int {
	return len(p.stages)
}

func (p *Pipeline) Stage(i int) (Pipe, bool) {
	if i < 0 || i >= len(p.stages) {
		return nil, false
	}
	return p.stages[i], true
}

// Feed routes task to the stage named by task.Stage.
func (p *Pipeline) Feed(workerID int, task *Task) error {
	s, ok := p.Stage(task.Stage)
	if !ok {
		return fmt.Errorf("stage %d of %d: %w", task.Stage, len(p.stages), ErrNoSuchStage)
	}
	return s.Feed(workerID, task)
}
