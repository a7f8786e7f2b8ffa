package upstream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type stubTokenSource struct {
	calls   atomic.Int64
	token   string
	err     error
	release chan struct{} // when set, Refresh blocks until closed
	block   bool          // when set, Refresh blocks until ctx is done
}

func (s *stubTokenSource) Refresh(ctx context.Context, refreshToken string) (string, error) {
	n := s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("%s-%d", s.token, n), nil
}

func (c *refreshCoordinator) waitForWaiters(t *testing.T, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		got := len(c.waiters)
		c.mu.Unlock()
		if got >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d queued callers", want)
}

func (c *refreshCoordinator) waitForLeader(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		leading := c.leading
		c.mu.Unlock()
		if leading {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for a refresh leader")
}

func TestRefreshSingleFlight(t *testing.T) {
	source := &stubTokenSource{token: "fresh", release: make(chan struct{})}
	coord := newRefreshCoordinator(source, "refresh-token", "stale", 0, nil, nil)

	const callers = 12
	results := make(chan refreshResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := coord.Refresh(context.Background(), "stale")
			results <- refreshResult{token: token, err: err}
		}()
	}

	// every non-leader must be queued before the round resolves
	coord.waitForWaiters(t, callers-1)
	close(source.release)
	wg.Wait()
	close(results)

	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one refresh call, got %d", got)
	}
	for res := range results {
		if res.err != nil {
			t.Fatalf("expected all callers to succeed, got %v", res.err)
		}
		if res.token != "fresh-1" {
			t.Fatalf("expected every caller to receive fresh-1, got %q", res.token)
		}
	}
	if coord.Token() != "fresh-1" {
		t.Fatalf("expected installed token fresh-1, got %q", coord.Token())
	}
}

func TestRefreshFailureFailsAllCallers(t *testing.T) {
	source := &stubTokenSource{err: errors.New("refresh rejected"), release: make(chan struct{})}
	var invalidated atomic.Int64
	coord := newRefreshCoordinator(source, "refresh-token", "stale", 0, func(context.Context) {
		invalidated.Add(1)
	}, nil)

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := coord.Refresh(context.Background(), "stale")
			errs <- err
		}()
	}

	coord.waitForWaiters(t, callers-1)
	close(source.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err == nil {
			t.Fatal("expected every caller to fail when the refresh fails")
		}
	}
	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one refresh call, got %d", got)
	}
	if got := invalidated.Load(); got != 1 {
		t.Fatalf("expected exactly one session invalidation, got %d", got)
	}
	if coord.Token() != "stale" {
		t.Fatalf("expected token to stay stale after failure, got %q", coord.Token())
	}
}

func TestRefreshTimeoutBoundsHungSource(t *testing.T) {
	source := &stubTokenSource{block: true}
	coord := newRefreshCoordinator(source, "refresh-token", "stale", 25*time.Millisecond, nil, nil)

	start := time.Now()
	_, err := coord.Refresh(context.Background(), "stale")
	if err == nil {
		t.Fatal("expected a hung refresh to fail")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("expected the timeout to bound the refresh, took %s", elapsed)
	}
}

func TestSequentialRefreshRounds(t *testing.T) {
	source := &stubTokenSource{token: "fresh"}
	coord := newRefreshCoordinator(source, "refresh-token", "stale", 0, nil, nil)

	first, err := coord.Refresh(context.Background(), "stale")
	if err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	second, err := coord.Refresh(context.Background(), first)
	if err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if first == second {
		t.Fatalf("expected sequential rounds to issue separate refreshes, got %q twice", first)
	}
	if got := source.calls.Load(); got != 2 {
		t.Fatalf("expected two refresh calls, got %d", got)
	}
}

func TestWaiterCancellationDoesNotAbortRound(t *testing.T) {
	source := &stubTokenSource{token: "fresh", release: make(chan struct{})}
	coord := newRefreshCoordinator(source, "refresh-token", "stale", 0, nil, nil)

	leaderDone := make(chan error, 1)
	go func() {
		_, err := coord.Refresh(context.Background(), "stale")
		leaderDone <- err
	}()

	// the cancellable caller must join as a waiter, not win the leader race
	coord.waitForLeader(t)

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		_, err := coord.Refresh(ctx, "stale")
		waiterDone <- err
	}()

	coord.waitForWaiters(t, 1)
	cancel()
	if err := <-waiterDone; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the cancelled waiter to see context.Canceled, got %v", err)
	}

	close(source.release)
	if err := <-leaderDone; err != nil {
		t.Fatalf("expected the leader to finish despite the cancelled waiter, got %v", err)
	}
	if coord.Token() != "fresh-1" {
		t.Fatalf("expected the round to install fresh-1, got %q", coord.Token())
	}
}

func TestRefreshSkipsRoundAfterTokenReplaced(t *testing.T) {
	source := &stubTokenSource{token: "fresh"}
	coord := newRefreshCoordinator(source, "refresh-token", "stale", 0, nil, nil)

	installed, err := coord.Refresh(context.Background(), "stale")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	// a straggler rejected with the old credential arrives after the round
	token, err := coord.Refresh(context.Background(), "stale")
	if err != nil {
		t.Fatalf("late refresh failed: %v", err)
	}
	if token != installed {
		t.Fatalf("expected the installed token %q, got %q", installed, token)
	}
	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected the straggler to reuse the round, got %d refresh calls", got)
	}
}
