package learner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ib-77/wordpipe/pkg/pipe"
	"github.com/ib-77/wordpipe/pkg/rop"
	"github.com/ib-77/wordpipe/pkg/rop/core"
	"github.com/ib-77/wordpipe/pkg/rop/lite"
	"github.com/ib-77/wordpipe/pkg/rop/mass"
	"github.com/ib-77/wordpipe/pkg/wordio"
)

const tracerName = "github.com/ib-77/wordpipe/pkg/learner"

var (
	ErrInvalidConfig = errors.New("learner: invalid config")
	ErrNotBuilt      = errors.New("learner: pipeline not built")
	ErrNoStages      = errors.New("learner: pipeline has no stages")
	ErrUnknownWorker = errors.New("learner: unknown worker")
)

// Config describes one training run over a corpus file.
type Config struct {
	Input string
	// InputRange limits the run to part of Input; nil means the whole file.
	InputRange *wordio.ByteRange
	Workers    int
	WindowSize int
	Iterations int
	// Split skips the task ids the solution already settled, after the first iteration.
	Split   bool
	TaskIDs []int
	// QueueLimit caps the tasks waiting on one worker; 0 means DefaultQueueLimit.
	QueueLimit int
}

func (c Config) validate() error {
	switch {
	case c.Input == "":
		return fmt.Errorf("%w: no input", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	case c.WindowSize < 0:
		return fmt.Errorf("%w: window size %d", ErrInvalidConfig, c.WindowSize)
	case c.Iterations < 1:
		return fmt.Errorf("%w: iterations %d", ErrInvalidConfig, c.Iterations)
	case c.QueueLimit < 0:
		return fmt.Errorf("%w: queue limit %d", ErrInvalidConfig, c.QueueLimit)
	}
	return nil
}

// Learner coordinates the stages of a pipeline over the partitions of a corpus.
type Learner struct {
	cfg       Config
	ids       pipe.IDSet
	solution  pipe.Solution
	factories []pipe.Factory
	log       *slog.Logger
	tracer    trace.Tracer

	buildMu  sync.Mutex
	runMu    sync.Mutex
	mu       sync.RWMutex
	pipeline *pipe.Pipeline
	queues   []*queue
}

func New(cfg Config, solution pipe.Solution, factories []pipe.Factory, opts ...Option) (*Learner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(factories) == 0 {
		return nil, fmt.Errorf("%w: no stages", ErrInvalidConfig)
	}

	if cfg.QueueLimit == 0 {
		cfg.QueueLimit = DefaultQueueLimit
	}

	l := &Learner{
		cfg:       cfg,
		ids:       pipe.NewIDSet(cfg.TaskIDs...),
		solution:  solution,
		factories: slices.Clone(factories),
		log:       slog.New(slog.DiscardHandler),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Learner) TaskIDs() pipe.IDSet { return l.ids }

func (l *Learner) SplitEnabled() bool { return l.cfg.Split }

func (l *Learner) Solution() pipe.Solution { return l.solution }

// Submit queues task on its worker's line. It fails for workers outside the current
// iteration and for stages past the end of the pipeline. When the line is full Submit
// feeds the waiting tasks before returning, so stages must submit from the goroutine
// they were fed on.
func (l *Learner) Submit(task *pipe.Task) error {
	l.mu.RLock()
	p := l.pipeline
	var q *queue
	if task.Worker >= 0 && task.Worker < len(l.queues) {
		q = l.queues[task.Worker]
	}
	l.mu.RUnlock()

	if p == nil {
		return ErrNotBuilt
	}
	if task.Stage < 0 || task.Stage >= p.Len() {
		return fmt.Errorf("learner: stage %d: %w", task.Stage, pipe.ErrNoSuchStage)
	}
	if q == nil {
		return fmt.Errorf("learner: worker %d: %w", task.Worker, ErrUnknownWorker)
	}
	return q.submit(task)
}

// Build resolves the pipeline. It runs once; later calls return nil.
func (l *Learner) Build() error {
	l.buildMu.Lock()
	defer l.buildMu.Unlock()

	l.mu.RLock()
	built := l.pipeline != nil
	l.mu.RUnlock()
	if built {
		return nil
	}

	p, err := pipe.Build(l.log, l, l.factories...)
	if err != nil {
		return err
	}
	if p.Len() == 0 {
		return ErrNoStages
	}

	l.mu.Lock()
	l.pipeline = p
	l.mu.Unlock()

	l.log.Info("pipeline ready", "stages", p.Len())
	return nil
}

// Run builds the pipeline if needed and trains for the configured number of iterations.
// Reports are returned for every partition that finished, sorted by iteration and
// worker. A failing iteration ends the run.
func (l *Learner) Run(ctx context.Context) ([]Report, error) {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	if err := l.Build(); err != nil {
		return nil, err
	}

	start := time.Now()
	l.log.Info("run started", "input", l.cfg.Input, "workers", l.cfg.Workers,
		"window", l.cfg.WindowSize, "iterations", l.cfg.Iterations)

	var reports []Report
	for it := range l.cfg.Iterations {
		rs, err := l.iterate(ctx, it)
		reports = append(reports, rs...)
		if err != nil {
			l.log.Error("run failed", "iteration", it, "error", err)
			return reports, err
		}
	}

	l.log.Info("run finished", "partitions", len(reports), "duration", time.Since(start))
	return reports, nil
}

func (l *Learner) iterate(ctx context.Context, iteration int) ([]Report, error) {
	streams, err := wordio.Partitions(l.cfg.Input, l.cfg.Workers, l.cfg.InputRange, l.cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("learner: iteration %d: %w", iteration, err)
	}
	defer func() {
		for _, s := range streams {
			_ = s.Close()
		}
	}()

	runCtx, abort := context.WithCancelCause(ctx)
	defer abort(nil)

	roots := make([]*pipe.Task, len(streams))
	queues := make([]*queue, len(streams))
	for i, s := range streams {
		roots[i] = pipe.NewTask(iteration, i, s)
		queues[i] = newQueue(runCtx, i, l.cfg.QueueLimit, l.pipeline.Feed)
	}
	l.setQueues(queues)
	defer l.setQueues(nil)

	l.log.Info("iteration started", "iteration", iteration, "partitions", len(roots))

	engine := lite.Try(func(ctx context.Context, root *pipe.Task) (Report, error) {
		return l.drive(ctx, root, abort)
	})

	skipped := core.CancellationHandlers[*pipe.Task, Report]{
		OnCancel: func(ctx context.Context, inputCh <-chan rop.Result[*pipe.Task], outCh chan<- rop.Result[Report]) {
			for in := range inputCh {
				l.skip(ctx, in, outCh)
			}
		},
		OnCancelUnprocessed: l.skip,
	}

	handlers := mass.FinallyHandlers[Report, outcome]{
		OnSuccess: func(_ context.Context, r Report) outcome { return outcome{report: r} },
		OnError:   func(_ context.Context, err error) outcome { return outcome{err: err} },
		OnCancel:  func(_ context.Context, err error) outcome { return outcome{err: err} },
	}

	lines := core.GetWorkerMaxCount(ctx, len(roots))
	outcomes := core.FromChanMany(lite.Finally(runCtx,
		lite.TurnoutWith(runCtx, core.ToChanManyResults(runCtx, roots), engine, lines, skipped),
		handlers))

	reports := make([]Report, 0, len(outcomes))
	var errs []error
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, o.err)
			continue
		}
		reports = append(reports, o.report)
	}
	if len(reports) < len(roots) && runCtx.Err() != nil {
		errs = append(errs, context.Cause(runCtx))
	}
	slices.SortFunc(reports, func(a, b Report) int { return a.Worker - b.Worker })

	if err := errors.Join(errs...); err != nil {
		return reports, fmt.Errorf("learner: iteration %d: %w", iteration, err)
	}

	l.log.Info("iteration finished", "iteration", iteration, "partitions", len(reports))
	return reports, nil
}

// drive feeds a partition's root task and then every task queued on its worker until the
// queue is empty. Stages that submit while being fed may drain the queue themselves.
func (l *Learner) drive(ctx context.Context, root *pipe.Task, abort context.CancelCauseFunc) (Report, error) {
	start := time.Now()
	stream := root.Payload.(*wordio.WordStream)
	rng := stream.Range()

	_, span := l.tracer.Start(ctx, "learner.partition",
		trace.WithAttributes(
			attribute.Int("partition.worker", root.Worker),
			attribute.Int("partition.iteration", root.Iteration),
			attribute.Int64("partition.start", rng.Start),
			attribute.Int64("partition.stop", rng.Stop),
			attribute.Int("partition.window", stream.WindowSize()),
		))
	defer span.End()

	log := l.log.With("worker", root.Worker, "iteration", root.Iteration, "range", rng.String())
	log.Debug("partition started")

	fail := func(err error) (Report, error) {
		err = fmt.Errorf("learner: worker %d %s: %w", root.Worker, rng, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("partition failed", "error", err)
		return Report{}, err
	}

	q := l.queue(root.Worker)
	if q == nil {
		return fail(ErrUnknownWorker)
	}
	q.push(root)
	if err := q.drain(); err != nil {
		if errors.Is(err, pipe.ErrFeedNotImplemented) {
			abort(err)
		}
		return fail(err)
	}
	tasks := q.processed()

	if err := stream.Close(); err != nil {
		return fail(err)
	}

	r := Report{
		Worker:    root.Worker,
		Iteration: root.Iteration,
		Range:     rng,
		Tasks:     tasks,
		WentBack:  stream.WentBack(),
		WentPast:  stream.WentPast(),
		Duration:  time.Since(start),
	}
	span.SetAttributes(
		attribute.Int("partition.tasks", r.Tasks),
		attribute.Int("partition.went_back", r.WentBack),
		attribute.Int("partition.went_past", r.WentPast),
	)
	log.Debug("partition finished", "tasks", r.Tasks, "went_back", r.WentBack,
		"went_past", r.WentPast, "duration", r.Duration)
	return r, nil
}

// skip accounts for a partition whose line was cancelled before driving it.
func (l *Learner) skip(ctx context.Context, in rop.Result[*pipe.Task], outCh chan<- rop.Result[Report]) {
	err := context.Cause(ctx)
	if err == nil {
		err = context.Canceled
	}
	if root := in.Result(); root != nil {
		if stream, ok := root.Payload.(*wordio.WordStream); ok {
			_ = stream.Close()
			err = fmt.Errorf("learner: worker %d %s skipped: %w", root.Worker, stream.Range(), err)
		}
		l.log.Warn("partition skipped", "worker", root.Worker, "iteration", root.Iteration, "error", err)
	}
	outCh <- rop.Cancel[Report](err)
}

func (l *Learner) setQueues(qs []*queue) {
	l.mu.Lock()
	l.queues = qs
	l.mu.Unlock()
}

func (l *Learner) queue(worker int) *queue {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if worker < 0 || worker >= len(l.queues) {
		return nil
	}
	return l.queues[worker]
}
