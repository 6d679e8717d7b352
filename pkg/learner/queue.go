package learner

import (
	"context"
	"sync"

	"github.com/ib-77/wordpipe/pkg/pipe"
)

// DefaultQueueLimit is the number of tasks allowed to wait on one worker line.
const DefaultQueueLimit = 64

// queue is the FIFO of tasks waiting on one worker line. When a submit fills it, the
// submitter drains it on its own goroutine, so a stage producing many tasks from a
// single Feed never has more than limit of them waiting.
type queue struct {
	ctx    context.Context
	worker int
	limit  int
	feed   func(worker int, task *pipe.Task) error

	mu    sync.Mutex
	tasks []*pipe.Task
	fed   int
}

func newQueue(ctx context.Context, worker, limit int, feed func(int, *pipe.Task) error) *queue {
	return &queue{ctx: ctx, worker: worker, limit: max(1, limit), feed: feed}
}

func (q *queue) push(t *pipe.Task) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
	return len(q.tasks)
}

func (q *queue) pop() (*pipe.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}
	t := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return t, true
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *queue) processed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fed
}

// submit queues t and drains the queue once it holds limit tasks.
func (q *queue) submit(t *pipe.Task) error {
	if q.push(t) < q.limit {
		return nil
	}
	return q.drain()
}

// drain feeds queued tasks in FIFO order until the queue is empty. Tasks submitted
// meanwhile join the same queue, possibly draining it from a nested call.
func (q *queue) drain() error {
	for {
		if err := q.ctx.Err(); err != nil {
			return err
		}
		t, ok := q.pop()
		if !ok {
			return nil
		}
		if err := q.feed(q.worker, t); err != nil {
			return err
		}
		q.mu.Lock()
		q.fed++
		q.mu.Unlock()
	}
}
