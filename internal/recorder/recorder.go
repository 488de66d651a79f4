package recorder

import (
	"context"
	"time"
)

// Run status values.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Run is one recorded report job execution.
type Run struct {
	ID        int64  `db:"id"`
	RunID     string `db:"run_id"`
	Job       string `db:"job"`
	Started   int64  `db:"started"`
	Finished  int64  `db:"finished"`
	Countries string `db:"countries"`
	Series    string `db:"series"`
	Files     int    `db:"files"`
	Errors    int    `db:"errors"`
	Status    string `db:"status"`
	Message   string `db:"message"`
}

// StartedAt returns Started as a UTC time.
func (r Run) StartedAt() time.Time { return time.Unix(r.Started, 0).UTC() }

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return time.Duration(r.Finished-r.Started) * time.Second
}

// Recorder keeps the history of report job runs. It never stores series data.
type Recorder interface {
	RecordRun(ctx context.Context, run *Run) error
	// RecentRuns returns the newest runs first; an empty job matches all jobs.
	RecentRuns(ctx context.Context, job string, limit int) ([]Run, error)
	Close() error
}
