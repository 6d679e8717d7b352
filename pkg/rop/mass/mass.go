package mass

import (
	"context"

	"github.com/ib-77/wordpipe/pkg/rop"
	"github.com/ib-77/wordpipe/pkg/rop/solo"
)

type FinallyHandlers[In, Out any] struct {
	OnSuccess func(ctx context.Context, r In) Out
	OnError   func(ctx context.Context, err error) Out
	OnCancel  func(ctx context.Context, err error) Out
}

// Finalizing reduces every result of inputCh with handlers. It keeps draining inputCh
// after ctx is done so that the lines feeding it can finish and close.
func Finalizing[In, Out any](ctx context.Context, inputCh <-chan rop.Result[In],
	handlers FinallyHandlers[In, Out]) <-chan Out {

	out := make(chan Out)

	go func() {
		defer close(out)

		for in := range inputCh {
			out <- solo.Finally[In, Out](ctx, in, handlers.OnSuccess, handlers.OnError, handlers.OnCancel)
		}
	}()

	return out
}
