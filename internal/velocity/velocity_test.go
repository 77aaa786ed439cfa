package velocity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/urbanking/DA4U-bigcontest-sub000/internal/cache"
	"github.com/urbanking/DA4U-bigcontest-sub000/internal/domain"
)

func TestLimiter(t *testing.T) {
	lruCache := cache.NewLRUCache(100)
	defer lruCache.Close()

	limiter := NewLimiter(lruCache, domain.ThrottleConfig{
		Enabled:      true,
		MaxPerWindow: 3,
		Window:       100 * time.Millisecond,
	})

	ctx := context.Background()
	tenantID := "tenant-001"

	t.Run("UnderLimit", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			count, err := limiter.Allow(ctx, tenantID, "m-001")
			if err != nil {
				t.Fatalf("submission %d: unexpected error: %v", i, err)
			}
			if count != int64(i) {
				t.Errorf("expected count %d, got %d", i, count)
			}
		}
	})

	t.Run("OverLimit", func(t *testing.T) {
		count, err := limiter.Allow(ctx, tenantID, "m-001")
		if !errors.Is(err, ErrThrottled) {
			t.Fatalf("expected ErrThrottled, got %v", err)
		}
		if count != 4 {
			t.Errorf("expected count 4, got %d", count)
		}
	})

	t.Run("MerchantsAreIndependent", func(t *testing.T) {
		if _, err := limiter.Allow(ctx, tenantID, "m-002"); err != nil {
			t.Errorf("expected m-002 to be allowed, got %v", err)
		}
		if _, err := limiter.Allow(ctx, "tenant-002", "m-001"); err != nil {
			t.Errorf("expected other tenant to be allowed, got %v", err)
		}
	})

	t.Run("WindowResets", func(t *testing.T) {
		time.Sleep(150 * time.Millisecond)

		count, err := limiter.Allow(ctx, tenantID, "m-001")
		if err != nil {
			t.Fatalf("expected reset window to allow, got %v", err)
		}
		if count != 1 {
			t.Errorf("expected count 1 after reset, got %d", count)
		}
	})

	t.Run("RequiresIDs", func(t *testing.T) {
		if _, err := limiter.Allow(ctx, tenantID, ""); err == nil {
			t.Error("expected error for empty merchantID")
		}
	})
}

func TestLimiterDisabled(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		limiter *Limiter
	}{
		{"Nil", nil},
		{"NoCache", NewLimiter(nil, domain.ThrottleConfig{Enabled: true, MaxPerWindow: 1, Window: time.Minute})},
		{"Off", NewLimiter(cache.NewLRUCache(10), domain.ThrottleConfig{Enabled: false, MaxPerWindow: 1, Window: time.Minute})},
		{"ZeroWindow", NewLimiter(cache.NewLRUCache(10), domain.ThrottleConfig{Enabled: true, MaxPerWindow: 1})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.limiter.Enabled() {
				t.Fatal("expected limiter to be disabled")
			}
			for i := 0; i < 5; i++ {
				if _, err := tt.limiter.Allow(ctx, "tenant-001", "m-001"); err != nil {
					t.Fatalf("expected disabled limiter to allow, got %v", err)
				}
			}
		})
	}
}

type failingCache struct {
	domain.Cache
}

func (failingCache) IncrementCounter(ctx context.Context, tenantID, key string, window time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestLimiterFailsOpen(t *testing.T) {
	limiter := NewLimiter(failingCache{}, domain.ThrottleConfig{Enabled: true, MaxPerWindow: 1, Window: time.Minute})

	for i := 0; i < 3; i++ {
		if _, err := limiter.Allow(context.Background(), "tenant-001", "m-001"); err != nil {
			t.Fatalf("expected cache errors to allow the submission, got %v", err)
		}
	}
}
