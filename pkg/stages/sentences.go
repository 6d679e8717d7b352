package stages

import (
	"errors"
	"fmt"

	"github.com/ib-77/wordpipe/pkg/pipe"
	"github.com/ib-77/wordpipe/pkg/wordio"
)

const DefaultMaxSentenceLength = 1000

var ErrUnexpectedPayload = errors.New("stages: unexpected payload")

// Sentence is a run of words between two sentence boundaries. Words[First:Last] are
// owned by the partition that produced it; the rest is context from its neighbours.
type Sentence struct {
	Words []string
	First int
	Last  int
}

func (s Sentence) Owned() []string {
	return s.Words[s.First:s.Last]
}

// Sentences is the first stage of a pipeline: it reads a partition's stream and submits
// one task per sentence that holds at least one owned word. Sentences longer than
// MaxLength words are cut.
type Sentences struct {
	pipe.Base
	MaxLength int
}

func NewSentences(maxLength int) pipe.Factory {
	return func(id int, c pipe.Coordinator) pipe.Pipe {
		return &Sentences{Base: pipe.NewBase(id, c), MaxLength: maxLength}
	}
}

func (s *Sentences) Build() error {
	if s.MaxLength <= 0 {
		s.MaxLength = DefaultMaxSentenceLength
	}
	return nil
}

func (s *Sentences) Feed(_ int, task *pipe.Task) error {
	stream, ok := task.Payload.(*wordio.WordStream)
	if !ok {
		return fmt.Errorf("sentences: %T: %w", task.Payload, ErrUnexpectedPayload)
	}
	defer stream.Close()

	var cur Sentence
	reset := func() {
		cur = Sentence{Words: make([]string, 0, 16)}
	}
	emit := func() error {
		defer reset()
		if cur.Last == cur.First {
			return nil
		}
		return s.Submit(task.Derive(cur))
	}
	reset()

	for tok := range stream.All() {
		if tok.IsBoundary() {
			if err := emit(); err != nil {
				return err
			}
			continue
		}

		switch tok.Side {
		case wordio.Before:
			// leading context only precedes owned words
			cur.First++
			cur.Last++
		case wordio.Owned:
			cur.Last++
		}
		cur.Words = append(cur.Words, tok.Text)

		if len(cur.Words) >= s.MaxLength {
			if err := emit(); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}
	return emit()
}
