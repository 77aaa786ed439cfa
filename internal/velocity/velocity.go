// Package velocity limits how often a merchant can submit reports for
// analysis.
package velocity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/telemetry"
)

// ErrThrottled is returned when a merchant has used up its window.
var ErrThrottled = errors.New("submission rate exceeded")

// Limiter counts submissions per tenant and merchant in fixed windows kept
// in the cache, so the limit holds across replicas when the cache is Redis.
type Limiter struct {
	cache domain.Cache
	cfg   domain.ThrottleConfig
}

// NewLimiter creates a limiter. A disabled config or nil cache allows
// everything.
func NewLimiter(cache domain.Cache, cfg domain.ThrottleConfig) *Limiter {
	return &Limiter{cache: cache, cfg: cfg}
}

// Enabled reports whether submissions are being counted.
func (l *Limiter) Enabled() bool {
	return l != nil && l.cfg.Enabled && l.cache != nil && l.cfg.MaxPerWindow > 0 && l.cfg.Window > 0
}

// Allow records one submission and returns ErrThrottled once the merchant
// exceeds MaxPerWindow. Cache failures let the submission through.
func (l *Limiter) Allow(ctx context.Context, tenantID, merchantID string) (int64, error) {
	if !l.Enabled() {
		return 0, nil
	}
	if tenantID == "" || merchantID == "" {
		return 0, fmt.Errorf("tenantID and merchantID are required")
	}

	count, err := l.cache.IncrementCounter(ctx, tenantID, submissionKey(merchantID), l.cfg.Window)
	if err != nil {
		slog.Warn("submission counter unavailable, allowing request",
			"tenant_id", tenantID,
			"merchant_id", merchantID,
			"error", err,
		)
		return 0, nil
	}

	if count > l.cfg.MaxPerWindow {
		telemetry.SubmissionsThrottledTotal.Inc()
		return count, fmt.Errorf("%w: %d submissions in %s", ErrThrottled, count, l.cfg.Window)
	}
	return count, nil
}

func submissionKey(merchantID string) string {
	return "submissions:" + merchantID
}
