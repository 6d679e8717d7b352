package learner

import (
	"time"

	"github.com/ib-77/wordpipe/pkg/wordio"
)

// Report is the outcome of one partition in one iteration.
type Report struct {
	Worker    int
	Iteration int
	Range     wordio.ByteRange
	// Tasks counts every task fed to a stage, the root task included.
	Tasks    int
	WentBack int
	WentPast int
	Duration time.Duration
}

// outcome is what a finished line reduces to.
type outcome struct {
	report Report
	err    error
}
