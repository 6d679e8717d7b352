// Package config loads the YAML description of a training run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/ib-77/wordpipe/pkg/learner"
	"github.com/ib-77/wordpipe/pkg/stages"
	"github.com/ib-77/wordpipe/pkg/wordio"
)

var ErrInvalid = errors.New("config: invalid")

// Range is an optional byte window of the input file.
type Range struct {
	Start int64 `yaml:"start"`
	Stop  int64 `yaml:"stop"`
}

type Run struct {
	Input          string `yaml:"input"`
	Range          *Range `yaml:"range,omitempty"`
	Workers        int    `yaml:"workers,omitempty"`
	WindowSize     int    `yaml:"window_size,omitempty"`
	Iterations     int    `yaml:"iterations,omitempty"`
	Split          bool   `yaml:"split,omitempty"`
	TaskIDs        []int  `yaml:"task_ids,omitempty"`
	QueueLimit     int    `yaml:"queue_limit,omitempty"`
	MaxSentenceLen int    `yaml:"max_sentence_length,omitempty"`
	LogLevel       string `yaml:"log_level,omitempty"`
}

func Load(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a run description, rejecting unknown fields, and fills in defaults.
func Parse(data []byte) (Run, error) {
	var r Run

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return Run{}, fmt.Errorf("config: %w", err)
	}

	if r.Workers == 0 {
		r.Workers = runtime.NumCPU()
	}
	if r.Iterations == 0 {
		r.Iterations = 1
	}
	if r.MaxSentenceLen == 0 {
		r.MaxSentenceLen = stages.DefaultMaxSentenceLength
	}
	if r.LogLevel == "" {
		r.LogLevel = "info"
	}

	return r, r.Validate()
}

func (r Run) Validate() error {
	switch {
	case r.Input == "":
		return fmt.Errorf("%w: input is required", ErrInvalid)
	case r.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalid, r.Workers)
	case r.WindowSize < 0:
		return fmt.Errorf("%w: window_size must not be negative, got %d", ErrInvalid, r.WindowSize)
	case r.Iterations < 1:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalid, r.Iterations)
	case r.QueueLimit < 0:
		return fmt.Errorf("%w: queue_limit must not be negative, got %d", ErrInvalid, r.QueueLimit)
	case r.MaxSentenceLen < 1:
		return fmt.Errorf("%w: max_sentence_length must be positive, got %d", ErrInvalid, r.MaxSentenceLen)
	}
	if r.Range != nil {
		if err := r.byteRange().Validate(-1); err != nil {
			return fmt.Errorf("%w: range: %w", ErrInvalid, err)
		}
	}
	if _, err := r.Level(); err != nil {
		return err
	}
	return nil
}

func (r Run) byteRange() wordio.ByteRange {
	return wordio.ByteRange{Start: r.Range.Start, Stop: r.Range.Stop}
}

func (r Run) Learner() learner.Config {
	cfg := learner.Config{
		Input:      r.Input,
		Workers:    r.Workers,
		WindowSize: r.WindowSize,
		Iterations: r.Iterations,
		Split:      r.Split,
		TaskIDs:    r.TaskIDs,
		QueueLimit: r.QueueLimit,
	}
	if r.Range != nil {
		br := r.byteRange()
		cfg.InputRange = &br
	}
	return cfg
}
