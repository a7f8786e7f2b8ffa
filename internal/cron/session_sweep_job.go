package cron

import (
	"context"
	"fmt"

	"github.com/restockhq/restock-backend/pkg/logger"
)

type sessionSweeper interface {
	Sweep() int
}

type sessionSweepJob struct {
	logg  *logger.Logger
	store sessionSweeper
}

// NewSessionSweepJob builds the job that evicts expired count sessions so
// abandoned workflows do not pin memory between requests.
func NewSessionSweepJob(logg *logger.Logger, store sessionSweeper) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	return &sessionSweepJob{logg: logg, store: store}, nil
}

func (j *sessionSweepJob) Name() string { return "session_sweep" }

func (j *sessionSweepJob) Run(ctx context.Context) error {
	removed := j.store.Sweep()
	if removed > 0 {
		j.logg.Info(j.logg.WithField(ctx, "removed", removed), "expired count sessions swept")
	}
	return nil
}
