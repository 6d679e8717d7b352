package wordio

import (
	"errors"
	"io"
)

const (
	// ChunkSize caps a single physical read.
	ChunkSize = 1_000_000

	// bytesPerToken is the lookaround budget guess used on both edges of a range.
	bytesPerToken = 100
)

// chunkReader reads the planned body of a range in bounded chunks and then keeps
// handing out fixed-size trailing blocks until the end of the file.
type chunkReader struct {
	src   io.ReaderAt
	size  int64
	plan  []ByteRange
	next  int
	tail  int64
	block int64
	buf   []byte
}

func newChunkReader(src io.ReaderAt, size int64, body ByteRange, chunkSize, block int64) (*chunkReader, error) {
	plan, err := SplitBySize(body, chunkSize)
	if err != nil {
		return nil, err
	}
	return &chunkReader{
		src:   src,
		size:  size,
		plan:  plan,
		tail:  body.Stop,
		block: block,
	}, nil
}

// read returns the next chunk and the file offset of its first byte. The returned
// slice is only valid until the next call. io.EOF marks the true end of the file.
func (c *chunkReader) read() ([]byte, int64, error) {
	var r ByteRange
	if c.next < len(c.plan) {
		r = c.plan[c.next]
		c.next++
	} else {
		if c.tail >= c.size {
			return nil, c.tail, io.EOF
		}
		r = ByteRange{Start: c.tail, Stop: min(c.size, c.tail+c.block)}
		c.tail = r.Stop
	}

	n := int(r.Len())
	if cap(c.buf) < n {
		c.buf = make([]byte, n)
	}
	buf := c.buf[:n]
	if err := readAt(c.src, buf, r.Start); err != nil {
		return nil, r.Start, err
	}
	return buf, r.Start, nil
}

// readAt fills buf from off. Running into the end of the file early means the file
// shrank under us and is reported as io.ErrUnexpectedEOF.
func readAt(src io.ReaderAt, buf []byte, off int64) error {
	n, err := src.ReadAt(buf, off)
	if n < len(buf) {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}
