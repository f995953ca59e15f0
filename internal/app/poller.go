package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/ladle/internal/api"
	"github.com/five82/ladle/internal/store"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// PollStatus describes the poller's recent history.
type PollStatus struct {
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s PollStatus) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// PollerOptions configure StartPoller.
type PollerOptions struct {
	Interval time.Duration
	Query    api.RecipeQuery
	Logger   *zap.Logger
	// OnUpdate is called after every refresh attempt.
	OnUpdate func(PollStatus)
}

// StartPoller launches a background goroutine that refreshes the store's
// recipes, categories, and (when signed in) favorites. Failures back off
// exponentially up to maxBackoff. The returned channel closes once ctx is
// done and the goroutine has exited.
func StartPoller(ctx context.Context, st *store.Store, opts PollerOptions) <-chan struct{} {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var status PollStatus
		for {
			err := refresh(ctx, st, opts.Query)
			if ctx.Err() != nil {
				return
			}
			status.LastUpdated = time.Now()
			if err != nil {
				status.LastError = err
				status.ConsecutiveFailures++
				logger.Warn("refresh failed", zap.Int("failures", status.ConsecutiveFailures), zap.Error(err))
			} else {
				status.LastError = nil
				status.ConsecutiveFailures = 0
			}
			if opts.OnUpdate != nil {
				opts.OnUpdate(status)
			}

			timer := time.NewTimer(calculateBackoff(status.ConsecutiveFailures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return done
}

// refresh loads the polled resources concurrently. Superseded fetches count
// as success since newer data already landed.
func refresh(ctx context.Context, st *store.Store, q api.RecipeQuery) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreSuperseded(st.FetchRecipes(gctx, q)) })
	g.Go(func() error { return ignoreSuperseded(st.FetchCategories(gctx)) })
	if st.IsAuthenticated() {
		g.Go(func() error { return ignoreSuperseded(st.FetchFavorites(gctx)) })
	}
	return g.Wait()
}

func ignoreSuperseded(err error) error {
	if errors.Is(err, store.ErrSuperseded) {
		return nil
	}
	return err
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff (or base, if base is already larger).
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	limit := max(maxBackoff, base)
	if failures > 30 {
		return limit
	}
	backoff := base << failures
	if backoff <= 0 || backoff > limit {
		return limit
	}
	return backoff
}
