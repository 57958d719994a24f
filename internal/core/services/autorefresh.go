package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	portssvc "github.com/SscSPs/stack_budget/internal/core/ports/services"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/SscSPs/stack_budget/internal/metrics"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// DefaultRefreshInterval is the minimum time between two auto-refreshes.
const DefaultRefreshInterval = 5 * time.Second

const refreshLimiterKey = "auto-refresh"

// Reasons an auto-refresh did not pull.
const (
	SkipNotPersisted = "not_persisted"
	SkipUnknownEvent = "unknown_event"
	SkipSaving       = "saving"
	SkipUnconfigured = "unconfigured"
	SkipRateLimited  = "rate_limited"
	SkipLoadFailed   = "load_failed"
)

// RefreshTarget is the part of the sync layer the auto-refresher drives.
type RefreshTarget interface {
	SaveInFlight() bool
	HasCredentials(ctx context.Context) bool
	Load(ctx context.Context, opts dto.LoadOptions) error
}

// AutoRefresher pulls the remote document when the app regains attention.
// It never pulls while a push is outstanding, and at most once per interval.
type AutoRefresher struct {
	BaseService
	target  RefreshTarget
	limiter *limiter.Limiter
}

// NewAutoRefresher creates the refresher. The first interval starts now, so
// an event right after start-up does not pull again.
func NewAutoRefresher(ctx context.Context, target RefreshTarget, interval time.Duration, m *metrics.Metrics) (*AutoRefresher, error) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	rate := limiter.Rate{Period: interval, Limit: 1}
	r := &AutoRefresher{
		target:  target,
		limiter: limiter.New(memory.NewStore(), rate),
	}
	r.Metrics = m
	if _, err := r.limiter.Get(ctx, refreshLimiterKey); err != nil {
		return nil, fmt.Errorf("failed to start refresh window: %w", err)
	}
	return r, nil
}

var _ portssvc.RefreshSvc = (*AutoRefresher)(nil)

// Trigger handles one lifecycle event.
func (r *AutoRefresher) Trigger(ctx context.Context, event dto.RefreshEvent) dto.RefreshResult {
	switch event.Kind {
	case dto.EventVisible, dto.EventFocus:
	case dto.EventPageShow:
		if !event.Persisted {
			return r.skip(ctx, event, SkipNotPersisted)
		}
	default:
		return r.skip(ctx, event, SkipUnknownEvent)
	}

	if r.target.SaveInFlight() {
		return r.skip(ctx, event, SkipSaving)
	}
	if !r.target.HasCredentials(ctx) {
		return r.skip(ctx, event, SkipUnconfigured)
	}

	window, err := r.limiter.Get(ctx, refreshLimiterKey)
	if err != nil {
		r.LogError(ctx, err, "Failed to check refresh interval")
		return r.skip(ctx, event, SkipRateLimited)
	}
	if window.Reached {
		return r.skip(ctx, event, SkipRateLimited)
	}

	if err := r.target.Load(ctx, dto.LoadOptions{Silent: true}); err != nil {
		r.LogWarn(ctx, "Auto-refresh failed", slog.String("event", string(event.Kind)), slog.String("error", err.Error()))
		return r.skip(ctx, event, SkipLoadFailed)
	}
	r.LogDebug(ctx, "Auto-refreshed from remote", slog.String("event", string(event.Kind)))
	return dto.RefreshResult{Refreshed: true}
}

func (r *AutoRefresher) skip(ctx context.Context, event dto.RefreshEvent, reason string) dto.RefreshResult {
	r.Metrics.ObserveRefreshSkip(reason)
	r.LogDebug(ctx, "Auto-refresh skipped", slog.String("event", string(event.Kind)), slog.String("reason", reason))
	return dto.RefreshResult{SkipReason: reason}
}
