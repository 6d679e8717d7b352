package wordio

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
)

// EndOfSentence is the textual form of a sentence boundary token.
const EndOfSentence = "</s>"

type Kind uint8

const (
	Word Kind = iota
	Boundary
)

// Side tells whether a token belongs to the stream's range or was only sampled as
// context from a neighbouring range.
type Side uint8

const (
	Owned Side = iota
	Before
	After
)

// Token is a word or a sentence boundary. Offset is the position of the word's first
// byte, of the newline for a boundary, or the file size for the boundary that closes
// an unterminated last line.
type Token struct {
	Kind   Kind
	Text   string
	Offset int64
	Side   Side
}

func (t Token) String() string {
	if t.Kind == Boundary {
		return EndOfSentence
	}
	return t.Text
}

func (t Token) IsBoundary() bool {
	return t.Kind == Boundary
}

func (t Token) IsContext() bool {
	return t.Side != Owned
}

type streamState uint8

const (
	stateFresh streamState = iota
	stateScanning
	stateDone
)

// WordStream reads the tokens of one byte range of a flat text file, where words are
// separated by single spaces and lines by single newlines.
//
// The range [s, e) owns every token whose offset p satisfies s < p <= e, or
// 0 <= p <= e when s is 0. A token starting exactly at s was claimed by the range
// before it, and a token straddling e, or starting at e, is claimed here. Scanning the
// ranges of a partition one by one therefore yields exactly the tokens of a single
// pass over the whole file.
//
// With a window size W > 0 up to W tokens before s and W tokens after the last owned
// token are emitted as context. WentBack and WentPast report how many were found.
//
// A WordStream is single pass and must be used by one goroutine.
type WordStream struct {
	path      string
	rng       ByteRange
	window    int
	size      int64
	chunkSize int64

	state  streamState
	f      *os.File
	chunks *chunkReader

	buf    []byte
	bufOff int64
	i      int
	last   byte
	eof    bool
	closed bool // the unterminated last line got its boundary

	carry     []byte
	inWord    bool
	skip      bool
	wordStart int
	wordOff   int64
	stopNext  bool

	tok      Token
	err      error
	wentBack int
	wentPast int
}

// NewWordStream prepares a stream over r of the file at path. The file is opened on
// the first call to Scan.
func NewWordStream(path string, r ByteRange, windowsize int) (*WordStream, error) {
	size, err := fileSize(path)
	if err != nil {
		return nil, err
	}
	return newWordStream(path, size, r, windowsize)
}

// NewFileStream prepares a stream over the whole file.
func NewFileStream(path string, windowsize int) (*WordStream, error) {
	size, err := fileSize(path)
	if err != nil {
		return nil, err
	}
	return newWordStream(path, size, ByteRange{Start: 0, Stop: size}, windowsize)
}

func newWordStream(path string, size int64, r ByteRange, windowsize int) (*WordStream, error) {
	if windowsize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, windowsize)
	}
	if err := r.Validate(size); err != nil {
		return nil, fmt.Errorf("wordio: %s: %w", path, err)
	}
	return &WordStream{
		path:      path,
		rng:       r,
		window:    windowsize,
		size:      size,
		chunkSize: ChunkSize,
	}, nil
}

func fileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("wordio: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("wordio: %s is not a regular file", path)
	}
	return fi.Size(), nil
}

func (s *WordStream) Path() string     { return s.path }
func (s *WordStream) Range() ByteRange { return s.rng }
func (s *WordStream) WindowSize() int  { return s.window }

// WentBack is the number of leading context tokens emitted so far.
func (s *WordStream) WentBack() int { return s.wentBack }

// WentPast is the number of trailing context tokens emitted so far.
func (s *WordStream) WentPast() int { return s.wentPast }

// Token returns the token produced by the last successful Scan.
func (s *WordStream) Token() Token { return s.tok }

// Err returns the first I/O error met while scanning. Reaching the end of the file is
// not an error.
func (s *WordStream) Err() error { return s.err }

// Scan advances to the next token. It returns false once the range and its trailing
// context are exhausted or an error occurred.
func (s *WordStream) Scan() bool {
	switch s.state {
	case stateDone:
		return false
	case stateFresh:
		if err := s.open(); err != nil {
			s.fail(err)
			return false
		}
		if s.state == stateDone {
			return false
		}
	}

	for {
		if s.stopNext {
			s.finish()
			return false
		}
		tok, ok, err := s.next()
		if err != nil {
			s.fail(err)
			return false
		}
		if !ok {
			s.finish()
			return false
		}

		switch {
		case s.owns(tok.Offset):
			tok.Side = Owned
		case tok.Offset <= s.rng.Start:
			if s.wentBack >= s.window {
				continue
			}
			s.wentBack++
			tok.Side = Before
		default:
			if s.wentPast >= s.window {
				s.finish()
				return false
			}
			s.wentPast++
			tok.Side = After
			s.stopNext = s.wentPast == s.window
		}
		s.tok = tok
		return true
	}
}

// All yields the remaining tokens. Breaking out early leaves the file open until Close.
func (s *WordStream) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for s.Scan() {
			if !yield(s.tok) {
				return
			}
		}
	}
}

// Close releases the file handle and ends the stream.
func (s *WordStream) Close() error {
	s.state = stateDone
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func (s *WordStream) owns(off int64) bool {
	return (off > s.rng.Start || s.rng.Start == 0) && off <= s.rng.Stop
}

func (s *WordStream) finish() {
	_ = s.Close()
}

func (s *WordStream) fail(err error) {
	s.err = fmt.Errorf("wordio: %s %s: %w", s.path, s.rng, err)
	s.finish()
}

func (s *WordStream) open() error {
	s.state = stateScanning
	if s.rng.IsEmpty() {
		s.state = stateDone
		return nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	s.f = f

	start := s.rng.Start
	if start > 0 {
		start, s.skip, err = s.leadStart(f)
		if err != nil {
			return err
		}
	}

	block := int64(s.window+1) * bytesPerToken
	s.chunks, err = newChunkReader(f, s.size, ByteRange{Start: start, Stop: s.rng.Stop}, s.chunkSize, block)
	return err
}

// leadStart finds where forward scanning resumes for a range that does not start at
// the beginning of the file. skip reports that the scan starts inside a word owned by
// the previous range.
func (s *WordStream) leadStart(src io.ReaderAt) (start int64, skip bool, err error) {
	bound := s.rng.Start
	if s.window == 0 {
		var b [1]byte
		if _, err := src.ReadAt(b[:], bound-1); err != nil {
			return 0, false, err
		}
		return bound, !isSep(b[0]), nil
	}

	// Walk back from the bound in windows that start at the lookaround guess and
	// double up to one chunk, keeping only the offsets of the W nearest tokens.
	offs := make([]int64, 0, s.window)
	step := min(int64(s.window+1)*bytesPerToken, s.chunkSize)
	var buf []byte
	for hi := bound + 1; hi > 0 && len(offs) < s.window; {
		lo := max(0, hi-step)
		rd := max(0, lo-1)
		n := int(hi - rd)
		if cap(buf) < n {
			buf = make([]byte, n)
		}
		b := buf[:n]
		if err := readAt(src, b, rd); err != nil {
			return 0, false, err
		}

		for off := hi - 1; off >= lo && len(offs) < s.window; off-- {
			switch c := b[off-rd]; {
			case c == '\n':
				offs = append(offs, off)
			case c == ' ':
			case off == 0 || isSep(b[off-1-rd]):
				offs = append(offs, off)
			}
		}
		hi = lo
		step = min(step*2, s.chunkSize)
	}

	if len(offs) == 0 {
		// Only spaces precede the bound.
		return bound, false, nil
	}
	return offs[len(offs)-1], false, nil
}

// next produces the following token regardless of ownership.
func (s *WordStream) next() (Token, bool, error) {
	for {
		for s.i < len(s.buf) {
			b := s.buf[s.i]
			if !isSep(b) {
				if !s.skip && !s.inWord {
					s.inWord = true
					s.wordStart = s.i
					s.wordOff = s.bufOff + int64(s.i)
				}
				s.i++
				continue
			}

			s.skip = false
			if s.inWord {
				// the separator is handled on the next call
				return s.endWord(s.buf[s.wordStart:s.i]), true, nil
			}
			s.i++
			if b == '\n' {
				return Token{Kind: Boundary, Offset: s.bufOff + int64(s.i-1)}, true, nil
			}
		}

		if s.eof {
			return s.flush()
		}
		if s.inWord {
			s.carry = append(s.carry, s.buf[s.wordStart:]...)
			s.wordStart = 0
		}

		data, off, err := s.chunks.read()
		if errors.Is(err, io.EOF) {
			s.eof = true
			s.buf, s.i = nil, 0
			continue
		}
		if err != nil {
			return Token{}, false, err
		}
		s.last = data[len(data)-1]
		s.buf, s.bufOff, s.i = data, off, 0
	}
}

func (s *WordStream) endWord(tail []byte) Token {
	var text string
	if len(s.carry) > 0 {
		s.carry = append(s.carry, tail...)
		text = string(s.carry)
		s.carry = s.carry[:0]
	} else {
		text = string(tail)
	}
	s.inWord = false
	return Token{Kind: Word, Text: text, Offset: s.wordOff}
}

// flush emits what is left at the true end of the file: the carried word and the
// boundary of an unterminated last line.
func (s *WordStream) flush() (Token, bool, error) {
	if s.inWord {
		return s.endWord(nil), true, nil
	}
	if !s.closed && s.size > 0 && s.last != '\n' {
		s.closed = true
		return Token{Kind: Boundary, Offset: s.size}, true, nil
	}
	return Token{}, false, nil
}

func isSep(b byte) bool {
	return b == ' ' || b == '\n'
}
