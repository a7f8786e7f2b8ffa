package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/restockhq/restock-backend/pkg/logger"
	"github.com/restockhq/restock-backend/pkg/metrics"
)

type fakeLock struct {
	acquired bool
	acquires int
	releases int
	err      error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	return f.acquired, f.err
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	return nil
}

type recordedJob struct {
	name string
	runs int
	err  error
}

func (j *recordedJob) Name() string { return j.name }

func (j *recordedJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test"})
}

func TestRunCycleSkipsWithoutLock(t *testing.T) {
	job := &recordedJob{name: "noop"}
	svc, err := NewService(ServiceParams{
		Logger: testLogger(),
		Lock:   &fakeLock{acquired: false},
		Jobs:   []Job{job},
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no runs without the lock, got %d", job.runs)
	}
}

func TestRunCycleExecutesJobsAndReleases(t *testing.T) {
	lock := &fakeLock{acquired: true}
	first := &recordedJob{name: "first", err: errors.New("boom")}
	second := &recordedJob{name: "second"}
	svc, err := NewService(ServiceParams{
		Logger:  testLogger(),
		Lock:    lock,
		Metrics: metrics.NewCronJobMetrics(nil),
		Jobs:    []Job{first, second},
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if first.runs != 1 || second.runs != 1 {
		t.Fatalf("expected one run each, got %d and %d", first.runs, second.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected one release, got %d", lock.releases)
	}
}

type fakeDraftStore struct {
	expireCutoff time.Time
	purgeCutoff  time.Time
	expireErr    error
}

func (f *fakeDraftStore) ExpireStaleDrafts(_ context.Context, cutoff time.Time) (int64, error) {
	f.expireCutoff = cutoff
	return 2, f.expireErr
}

func (f *fakeDraftStore) PurgeDeletedDrafts(_ context.Context, cutoff time.Time) (int64, error) {
	f.purgeCutoff = cutoff
	return 1, nil
}

func TestDraftRetentionJobUsesConfiguredWindows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeDraftStore{}
	job, err := NewDraftRetentionJob(DraftRetentionJobParams{
		Logger:     testLogger(),
		Store:      store,
		Retention:  30 * 24 * time.Hour,
		PurgeAfter: 7 * 24 * time.Hour,
		Now:        func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewDraftRetentionJob returned error: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got, want := store.expireCutoff, now.Add(-30*24*time.Hour); !got.Equal(want) {
		t.Fatalf("expected expire cutoff %v, got %v", want, got)
	}
	if got, want := store.purgeCutoff, now.Add(-7*24*time.Hour); !got.Equal(want) {
		t.Fatalf("expected purge cutoff %v, got %v", want, got)
	}
}

func TestDraftRetentionJobStopsOnExpireError(t *testing.T) {
	store := &fakeDraftStore{expireErr: errors.New("db down")}
	job, err := NewDraftRetentionJob(DraftRetentionJobParams{
		Logger:     testLogger(),
		Store:      store,
		Retention:  time.Hour,
		PurgeAfter: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewDraftRetentionJob returned error: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when expiry fails")
	}
	if !store.purgeCutoff.IsZero() {
		t.Fatal("purge should not run after expiry failure")
	}
}

type fakeSweeper struct{ removed int }

func (f fakeSweeper) Sweep() int { return f.removed }

func TestSessionSweepJobReportsRemovals(t *testing.T) {
	job, err := NewSessionSweepJob(testLogger(), fakeSweeper{removed: 3})
	if err != nil {
		t.Fatalf("NewSessionSweepJob returned error: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}
