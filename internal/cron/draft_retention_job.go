package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/restockhq/restock-backend/pkg/logger"
)

// draftStore is the slice of the purchase order repository the job needs.
type draftStore interface {
	ExpireStaleDrafts(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeDeletedDrafts(ctx context.Context, cutoff time.Time) (int64, error)
}

// DraftRetentionJobParams configure the draft retention job.
type DraftRetentionJobParams struct {
	Logger     *logger.Logger
	Store      draftStore
	Retention  time.Duration
	PurgeAfter time.Duration
	Now        func() time.Time
}

type draftRetentionJob struct {
	logg       *logger.Logger
	store      draftStore
	retention  time.Duration
	purgeAfter time.Duration
	now        func() time.Time
}

// NewDraftRetentionJob builds the job that expires abandoned draft orders
// and later purges the soft-deleted ones.
func NewDraftRetentionJob(params DraftRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	if params.PurgeAfter <= 0 {
		return nil, fmt.Errorf("purge window must be positive")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &draftRetentionJob{
		logg:       params.Logger,
		store:      params.Store,
		retention:  params.Retention,
		purgeAfter: params.PurgeAfter,
		now:        now,
	}, nil
}

func (j *draftRetentionJob) Name() string { return "draft_retention" }

func (j *draftRetentionJob) Run(ctx context.Context) error {
	now := j.now()

	expired, err := j.store.ExpireStaleDrafts(ctx, now.Add(-j.retention))
	if err != nil {
		return fmt.Errorf("expiring stale drafts: %w", err)
	}
	if expired > 0 {
		j.logg.Info(j.logg.WithField(ctx, "expired", expired), "stale drafts expired")
	}

	purged, err := j.store.PurgeDeletedDrafts(ctx, now.Add(-j.purgeAfter))
	if err != nil {
		return fmt.Errorf("purging deleted drafts: %w", err)
	}
	if purged > 0 {
		j.logg.Info(j.logg.WithField(ctx, "purged", purged), "deleted drafts purged")
	}
	return nil
}
