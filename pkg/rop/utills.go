package rop

import (
	"context"
	"errors"
	"reflect"
)

// IsNil also catches typed nil pointers hidden in an interface value.
func IsNil(i any) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func GetErrors(err error) []error {
	if IsNil(err) {
		return []error{}
	}

	e, ok := err.(interface{ Unwrap() []error })
	if ok {
		return e.Unwrap()
	}

	return []error{err}
}

func IsCancellationError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// Errors collects the errors of all non-successful results, flattening joined errors.
func Errors[T any](results []Result[T]) []error {
	var errs []error
	for _, r := range results {
		if r.IsSuccess() {
			continue
		}
		errs = append(errs, GetErrors(r.Err())...)
	}
	return errs
}
