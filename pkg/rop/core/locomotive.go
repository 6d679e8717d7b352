package core

import (
	"context"
	"sync"

	"github.com/ib-77/wordpipe/pkg/rop"
)

// CancellationHandlers decide what happens to inputs a line gives up on. OnCancel gets
// the rest of the input channel once ctx is done; OnCancelUnprocessed gets an input whose
// engine stopped without a result.
type CancellationHandlers[In, Out any] struct {
	OnCancel            func(ctx context.Context, inputCh <-chan rop.Result[In], outCh chan<- rop.Result[Out])
	OnCancelUnprocessed func(ctx context.Context, unprocessed rop.Result[In], outCh chan<- rop.Result[Out])
}

// Locomotive drives one line: it pulls inputs one at a time, runs engine on each and
// forwards the outcome, until inputCh is closed or ctx is done.
func Locomotive[In, Out any](ctx context.Context, inputCh <-chan rop.Result[In], outCh chan<- rop.Result[Out],
	engine func(ctx context.Context, input rop.Result[In]) <-chan rop.Result[Out],
	handlers CancellationHandlers[In, Out], wg *sync.WaitGroup) {
	defer wg.Done()

	onCancel := func() {
		if handlers.OnCancel != nil {
			handlers.OnCancel(ctx, inputCh, outCh)
		}
	}

	for {
		// a pending input must not win over a cancellation that already happened
		if ctx.Err() != nil {
			onCancel()
			return
		}

		select {
		case <-ctx.Done():
			onCancel()
			return
		case in, ok := <-inputCh:
			if !ok {
				return
			}

			pr, running := <-engine(ctx, in)
			if !running {
				if handlers.OnCancelUnprocessed != nil {
					handlers.OnCancelUnprocessed(ctx, in, outCh)
				}
				onCancel()
				return
			}

			// the outcome of started work is always delivered
			outCh <- pr
		}
	}
}
