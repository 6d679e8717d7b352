package config

import (
	"fmt"
	"log/slog"
)

// Level maps log_level to a slog level.
func (r Run) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(r.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, r.LogLevel)
	}
	return lvl, nil
}
