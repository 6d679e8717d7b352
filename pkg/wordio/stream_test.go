package wordio

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func drain(t *testing.T, s *WordStream) []Token {
	t.Helper()
	var out []Token
	for s.Scan() {
		out = append(out, s.Token())
	}
	require.NoError(t, s.Err())
	return out
}

func texts(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.String())
	}
	return out
}

func owned(tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		if !tok.IsContext() {
			out = append(out, tok)
		}
	}
	return out
}

// referenceTokens is a straightforward single-pass tokenization of the whole corpus.
func referenceTokens(data string) []Token {
	var out []Token
	start := -1
	for i := 0; i <= len(data); i++ {
		if i < len(data) && data[i] != ' ' && data[i] != '\n' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, Token{Kind: Word, Text: data[start:i], Offset: int64(start)})
			start = -1
		}
		if i < len(data) && data[i] == '\n' {
			out = append(out, Token{Kind: Boundary, Offset: int64(i)})
		}
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		out = append(out, Token{Kind: Boundary, Offset: int64(len(data))})
	}
	return out
}

// expectedPartition derives what a stream over r must emit from the reference tokens.
func expectedPartition(all []Token, r ByteRange, window int) []Token {
	if r.IsEmpty() {
		return nil
	}
	var before, mine, after []Token
	for _, tok := range all {
		switch {
		case (tok.Offset > r.Start || r.Start == 0) && tok.Offset <= r.Stop:
			tok.Side = Owned
			mine = append(mine, tok)
		case tok.Offset <= r.Start:
			tok.Side = Before
			before = append(before, tok)
		default:
			tok.Side = After
			after = append(after, tok)
		}
	}
	if len(before) > window {
		before = before[len(before)-window:]
	}
	if len(after) > window {
		after = after[:window]
	}
	out := append(append(before, mine...), after...)
	if len(out) == 0 {
		return nil
	}
	return out
}

func TestWordStream_SinglePartition(t *testing.T) {
	t.Parallel()

	path := writeCorpus(t, "a b c\nd e\n")
	s, err := NewFileStream(path, 0)
	require.NoError(t, err)

	got := drain(t, s)
	assert.Equal(t, []string{"a", "b", "c", EndOfSentence, "d", "e", EndOfSentence}, texts(got))
	assert.Equal(t, 0, s.WentBack())
	assert.Equal(t, 0, s.WentPast())
}

func TestWordStream_TwoPartitionsSplitAtNewline(t *testing.T) {
	t.Parallel()

	path := writeCorpus(t, "a b c\nd e\n")

	first, err := NewWordStream(path, ByteRange{0, 5}, 0)
	require.NoError(t, err)
	second, err := NewWordStream(path, ByteRange{5, 10}, 0)
	require.NoError(t, err)

	a := drain(t, first)
	b := drain(t, second)

	assert.Equal(t, []string{"a", "b", "c", EndOfSentence}, texts(a))
	assert.Equal(t, []string{"d", "e", EndOfSentence}, texts(b))
	assert.Equal(t,
		[]string{"a", "b", "c", EndOfSentence, "d", "e", EndOfSentence},
		append(texts(a), texts(b)...))
}

func TestWordStream_ContextWindow(t *testing.T) {
	t.Parallel()

	path := writeCorpus(t, "a b c\nd e\n")

	first, err := NewWordStream(path, ByteRange{0, 5}, 2)
	require.NoError(t, err)
	got := drain(t, first)
	assert.Equal(t, []string{"a", "b", "c", EndOfSentence, "d", "e"}, texts(got))
	assert.Equal(t, 0, first.WentBack(), "range starts at the beginning of the file")
	assert.Equal(t, 2, first.WentPast())
	assert.Equal(t, After, got[4].Side)
	assert.Equal(t, After, got[5].Side)

	second, err := NewWordStream(path, ByteRange{5, 10}, 2)
	require.NoError(t, err)
	got = drain(t, second)
	assert.Equal(t, []string{"c", EndOfSentence, "d", "e", EndOfSentence}, texts(got))
	assert.Equal(t, 2, second.WentBack())
	assert.Equal(t, 0, second.WentPast(), "range ends at the end of the file")
	assert.Equal(t, Before, got[0].Side)
	assert.Equal(t, Before, got[1].Side)
	assert.Equal(t, Owned, got[2].Side)
}

func TestWordStream_BoundaryInsideWord(t *testing.T) {
	t.Parallel()

	// "hello" spans [6, 11); a bound at 8 falls inside it.
	path := writeCorpus(t, "alpha hello world\n")

	left, err := NewWordStream(path, ByteRange{0, 8}, 0)
	require.NoError(t, err)
	right, err := NewWordStream(path, ByteRange{8, 18}, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "hello"}, texts(drain(t, left)))
	assert.Equal(t, []string{"world", EndOfSentence}, texts(drain(t, right)))
}

func TestWordStream_BoundaryAtWordStart(t *testing.T) {
	t.Parallel()

	// "hello" starts at 6: the range ending at 6 claims it, the range starting at 6 does not.
	path := writeCorpus(t, "alpha hello world\n")

	left, err := NewWordStream(path, ByteRange{0, 6}, 0)
	require.NoError(t, err)
	right, err := NewWordStream(path, ByteRange{6, 18}, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "hello"}, texts(drain(t, left)))
	assert.Equal(t, []string{"world", EndOfSentence}, texts(drain(t, right)))
}

func TestWordStream_UnterminatedLastLine(t *testing.T) {
	t.Parallel()

	path := writeCorpus(t, "x y\nz")
	s, err := NewFileStream(path, 0)
	require.NoError(t, err)

	got := drain(t, s)
	assert.Equal(t, []string{"x", "y", EndOfSentence, "z", EndOfSentence}, texts(got))
	assert.Equal(t, int64(5), got[len(got)-1].Offset)
}

func TestWordStream_RepeatedSeparators(t *testing.T) {
	t.Parallel()

	path := writeCorpus(t, "  a  b\n\nc \n")
	s, err := NewFileStream(path, 0)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"a", "b", EndOfSentence, EndOfSentence, "c", EndOfSentence},
		texts(drain(t, s)))
}

func TestWordStream_EmptyInputs(t *testing.T) {
	t.Parallel()

	path := writeCorpus(t, "")
	s, err := NewFileStream(path, 3)
	require.NoError(t, err)
	assert.Empty(t, drain(t, s))

	path = writeCorpus(t, "a b\n")
	s, err = NewWordStream(path, ByteRange{2, 2}, 3)
	require.NoError(t, err)
	assert.Empty(t, drain(t, s))
	assert.Equal(t, 0, s.WentBack())
	assert.Equal(t, 0, s.WentPast())
}

func TestWordStream_RejectsInvalidArguments(t *testing.T) {
	t.Parallel()

	path := writeCorpus(t, "a b c\n")

	_, err := NewWordStream(path, ByteRange{0, 7}, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewWordStream(path, ByteRange{4, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewWordStream(path, ByteRange{-1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewWordStream(path, ByteRange{0, 6}, -1)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewFileStream(filepath.Join(t.TempDir(), "missing.txt"), 0)
	assert.Error(t, err)
}

func TestWordStream_SinglePassAndClose(t *testing.T) {
	t.Parallel()

	path := writeCorpus(t, "one two three\n")
	s, err := NewFileStream(path, 0)
	require.NoError(t, err)

	require.True(t, s.Scan())
	assert.Equal(t, "one", s.Token().Text)
	require.NoError(t, s.Close())
	assert.False(t, s.Scan(), "a closed stream cannot be resumed")

	s, err = NewFileStream(path, 0)
	require.NoError(t, err)
	var words []string
	for tok := range s.All() {
		words = append(words, tok.String())
	}
	assert.Equal(t, []string{"one", "two", "three", EndOfSentence}, words)
	assert.False(t, s.Scan(), "an exhausted stream stays exhausted")
}

func TestWordStream_LongWordsBeforeBoundary(t *testing.T) {
	t.Parallel()

	// Words far longer than the per-token lookback guess force the lookback to grow.
	long := strings.Repeat("w", 450)
	content := long + "1 " + long + "2\n" + long + "3 tail\n"
	path := writeCorpus(t, content)
	bound := int64(len(content) - len("tail\n"))

	s, err := NewWordStream(path, ByteRange{bound, int64(len(content))}, 3)
	require.NoError(t, err)
	got := drain(t, s)

	assert.Equal(t, 3, s.WentBack())
	// "tail" starts exactly at the bound, so it is context here.
	assert.Equal(t, []string{EndOfSentence, long + "3", "tail", EndOfSentence}, texts(got))
	assert.Equal(t, expectedPartition(referenceTokens(content), s.Range(), 3), got)
}

// widestRead records the largest single read served through it.
type widestRead struct {
	src   *os.File
	bytes int
}

func (w *widestRead) ReadAt(p []byte, off int64) (int, error) {
	w.bytes = max(w.bytes, len(p))
	return w.src.ReadAt(p, off)
}

func TestWordStream_LookbackReadsStayWithinChunk(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 700)
	content := "head " + long + "a " + long + "b\n" + long + "c tail\n"
	path := writeCorpus(t, content)
	bound := int64(len(content) - len("tail\n") - 3)

	var before []int64
	for _, tok := range referenceTokens(content) {
		if tok.Offset <= bound {
			before = append(before, tok.Offset)
		}
	}

	for _, window := range []int{1, 3, 5} {
		t.Run(fmt.Sprint(window), func(t *testing.T) {
			s, err := NewWordStream(path, ByteRange{bound, int64(len(content))}, window)
			require.NoError(t, err)
			s.chunkSize = 128

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			src := &widestRead{src: f}
			start, skip, err := s.leadStart(src)
			require.NoError(t, err)
			assert.False(t, skip)
			assert.Equal(t, before[max(0, len(before)-window)], start)
			assert.LessOrEqual(t, src.bytes, 129, "lookback must read at most one chunk plus a byte")
		})
	}
}

func TestWordStream_ChunkSizeDoesNotChangeTokens(t *testing.T) {
	t.Parallel()

	content := "the quick brown\nfox jumps  over\n\nthe lazy dog"
	path := writeCorpus(t, content)
	want := referenceTokens(content)

	for _, chunk := range []int64{1, 2, 3, 5, 8, 64, ChunkSize} {
		t.Run(fmt.Sprint(chunk), func(t *testing.T) {
			s, err := NewFileStream(path, 0)
			require.NoError(t, err)
			s.chunkSize = chunk
			assert.Equal(t, want, drain(t, s))
		})
	}
}

func TestPartitions_ExhaustiveAndBounded(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	words := []string{"a", "bb", "ccc", "dddd", strings.Repeat("e", 130), strings.Repeat("f", 260)}

	for round := 0; round < 40; round++ {
		var sb strings.Builder
		for n := rng.IntN(60); n > 0; n-- {
			sb.WriteString(words[rng.IntN(len(words))])
			switch p := rng.IntN(10); {
			case p < 6:
				sb.WriteByte(' ')
			case p < 8:
				sb.WriteByte('\n')
			case p < 9:
				sb.WriteString("  ")
			default:
				sb.WriteString("\n\n")
			}
		}
		if rng.IntN(2) == 0 {
			sb.WriteString(words[rng.IntN(len(words))])
		}
		content := sb.String()
		path := writeCorpus(t, content)
		all := referenceTokens(content)

		for parts := 1; parts <= 7; parts++ {
			for window := 0; window <= 3; window++ {
				streams, err := Partitions(path, parts, nil, window)
				require.NoError(t, err)

				var joined []Token
				for _, s := range streams {
					s.chunkSize = int64(1 + rng.IntN(40))
					got := drain(t, s)
					require.Equal(t, expectedPartition(all, s.Range(), window), got,
						"round %d parts %d window %d range %s", round, parts, window, s.Range())
					require.LessOrEqual(t, s.WentBack(), window)
					require.LessOrEqual(t, s.WentPast(), window)
					joined = append(joined, owned(got)...)
				}
				require.Equal(t, len(all), len(joined), "round %d parts %d window %d", round, parts, window)
				if len(all) > 0 {
					require.Equal(t, all, joined)
				}
			}
		}
	}
}

func TestPartitions_WindowSaturates(t *testing.T) {
	t.Parallel()

	content := strings.Repeat("w0 w1 w2 w3 w4\n", 20)
	path := writeCorpus(t, content)

	streams, err := Partitions(path, 4, nil, 3)
	require.NoError(t, err)
	require.Len(t, streams, 4)

	for i, s := range streams {
		drain(t, s)
		if i > 0 {
			assert.Equal(t, 3, s.WentBack(), "partition %d", i)
		}
		if i < len(streams)-1 {
			assert.Equal(t, 3, s.WentPast(), "partition %d", i)
		}
	}
	assert.Equal(t, 0, streams[0].WentBack())
	assert.Equal(t, 0, streams[3].WentPast())
}

func TestPartitions_SubRangeAndBySize(t *testing.T) {
	t.Parallel()

	content := "aa bb cc\ndd ee ff\ngg hh\n"
	path := writeCorpus(t, content)
	all := referenceTokens(content)
	sub := ByteRange{Start: 4, Stop: 19}

	streams, err := Partitions(path, 3, &sub, 1)
	require.NoError(t, err)
	var joined []Token
	for _, s := range streams {
		joined = append(joined, owned(drain(t, s))...)
	}
	assert.Equal(t, expectedPartition(all, sub, 0), joined)

	streams, err = PartitionsBySize(path, 4, nil, 0)
	require.NoError(t, err)
	require.Len(t, streams, 6)
	joined = nil
	for _, s := range streams {
		assert.LessOrEqual(t, s.Range().Len(), int64(4))
		joined = append(joined, drain(t, s)...)
	}
	assert.Equal(t, all, joined)

	_, err = Partitions(path, 2, &ByteRange{Start: 3, Stop: 100}, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = Partitions(path, 0, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
}
