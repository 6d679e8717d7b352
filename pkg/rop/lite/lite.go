package lite

import (
	"context"
	"sync"

	"github.com/ib-77/wordpipe/pkg/rop"
	"github.com/ib-77/wordpipe/pkg/rop/core"
	"github.com/ib-77/wordpipe/pkg/rop/mass"
	"github.com/ib-77/wordpipe/pkg/rop/solo"
)

// Turnout runs engine over inputCh on the given number of parallel lines. The output
// channel is closed once every line has stopped.
func Turnout[In, Out any](ctx context.Context, inputCh <-chan rop.Result[In],
	engine func(ctx context.Context, input rop.Result[In]) <-chan rop.Result[Out],
	lines int) <-chan rop.Result[Out] {
	return TurnoutWith(ctx, inputCh, engine, lines, core.CancellationHandlers[In, Out]{})
}

// TurnoutWith is Turnout with handlers for the inputs a cancelled line leaves behind.
func TurnoutWith[In, Out any](ctx context.Context, inputCh <-chan rop.Result[In],
	engine func(ctx context.Context, input rop.Result[In]) <-chan rop.Result[Out],
	lines int, handlers core.CancellationHandlers[In, Out]) <-chan rop.Result[Out] {

	if lines < 1 {
		lines = 1
	}

	out := make(chan rop.Result[Out])
	wg := &sync.WaitGroup{}

	for range lines {
		wg.Add(1)
		go core.Locomotive(ctx, inputCh, out, engine, handlers, wg)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// Try runs onTryExecute on the line's own goroutine, so a line stopped by
// cancellation only returns after the work it started has returned. Inputs that own
// resources are therefore never used after Turnout's output is closed.
func Try[In, Out any](
	onTryExecute func(ctx context.Context, r In) (Out, error)) func(ctx context.Context,
	input rop.Result[In]) <-chan rop.Result[Out] {
	return func(ctx context.Context, input rop.Result[In]) <-chan rop.Result[Out] {
		out := make(chan rop.Result[Out], 1)
		out <- solo.Try(ctx, input, onTryExecute)
		close(out)
		return out
	}
}

func Finally[In, Out any](ctx context.Context, input <-chan rop.Result[In],
	handlers mass.FinallyHandlers[In, Out]) <-chan Out {
	return mass.Finalizing(ctx, input, handlers)
}
