package core

import (
	"context"

	"github.com/ib-77/wordpipe/pkg/rop"
	"github.com/ib-77/wordpipe/pkg/rop/solo"
)

// ToChanManyResults feeds values as successful results until ctx is done.
func ToChanManyResults[T any](ctx context.Context, values []T) <-chan rop.Result[T] {
	in := make(chan rop.Result[T])

	go func() {
		defer close(in)

		for _, v := range values {
			if ctx.Err() != nil {
				return
			}

			select {
			case in <- solo.Succeed(v):
			case <-ctx.Done():
				return
			}
		}
	}()

	return in
}

// FromChanMany collects everything out delivers until it is closed.
func FromChanMany[T any](out <-chan T) []T {
	res := make([]T, 0)
	for v := range out {
		res = append(res, v)
	}
	return res
}
