package wordio

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange  = errors.New("invalid byte range")
	ErrInvalidCount  = errors.New("invalid partition count")
	ErrInvalidSize   = errors.New("invalid partition size")
	ErrInvalidWindow = errors.New("invalid window size")
)

// ByteRange is the half-open interval [Start, Stop) over a file's bytes.
type ByteRange struct {
	Start int64
	Stop  int64
}

func (r ByteRange) Len() int64 {
	return r.Stop - r.Start
}

func (r ByteRange) IsEmpty() bool {
	return r.Start == r.Stop
}

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.Stop)
}

// Validate reports ErrInvalidRange unless 0 <= Start <= Stop <= size.
// A negative size skips the upper bound check.
func (r ByteRange) Validate(size int64) error {
	if r.Start < 0 || r.Stop < r.Start {
		return fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	if size >= 0 && r.Stop > size {
		return fmt.Errorf("%w: %s exceeds file size %d", ErrInvalidRange, r, size)
	}
	return nil
}

// SplitByCount divides r into at most n consecutive ranges of ceil(len/n) bytes,
// the last one truncated at r.Stop.
func SplitByCount(r ByteRange, n int) ([]ByteRange, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	if err := r.Validate(-1); err != nil {
		return nil, err
	}
	step := (r.Len() + int64(n) - 1) / int64(n)
	return split(r, step), nil
}

// SplitBySize divides r into consecutive ranges of at most size bytes.
func SplitBySize(r ByteRange, size int64) ([]ByteRange, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if err := r.Validate(-1); err != nil {
		return nil, err
	}
	return split(r, size), nil
}

func split(r ByteRange, step int64) []ByteRange {
	if r.IsEmpty() {
		return []ByteRange{}
	}
	out := make([]ByteRange, 0, (r.Len()+step-1)/step)
	for i := r.Start; i < r.Stop; i += step {
		out = append(out, ByteRange{Start: i, Stop: min(r.Stop, i+step)})
	}
	return out
}
