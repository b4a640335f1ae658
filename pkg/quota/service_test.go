package quota_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvboost/cvboost/pkg/account"
	"github.com/cvboost/cvboost/pkg/quota"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRemaining(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("counts against today's usage", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		rec := account.NewRecord("uid-1", "u@example.com", now)
		rec.Usage = account.Usage{Date: account.DayKey(now), Count: 2}
		require.NoError(t, store.Create(ctx, rec))

		svc := quota.NewService(store, quota.Config{FreeDailyLimit: 3}, quota.WithClock(fixedClock(now)))

		allowance, err := svc.Remaining(ctx, "uid-1")
		require.NoError(t, err)
		assert.False(t, allowance.Unlimited)
		assert.Equal(t, 1, allowance.Left)
		assert.Equal(t, 3, allowance.Limit)
	})

	t.Run("stale counter from yesterday grants the full limit", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		rec := account.NewRecord("uid-1", "u@example.com", now)
		rec.Usage = account.Usage{Date: account.DayKey(now.AddDate(0, 0, -1)), Count: 3}
		require.NoError(t, store.Create(ctx, rec))

		svc := quota.NewService(store, quota.Config{FreeDailyLimit: 3}, quota.WithClock(fixedClock(now)))

		allowance, err := svc.Remaining(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, 3, allowance.Left)
	})

	t.Run("active subscription is unlimited", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		rec := account.NewRecord("uid-1", "u@example.com", now)
		rec.Status = account.StatusActive
		rec.Usage = account.Usage{Date: account.DayKey(now), Count: 99}
		require.NoError(t, store.Create(ctx, rec))

		svc := quota.NewService(store, quota.Config{FreeDailyLimit: 3}, quota.WithClock(fixedClock(now)))

		allowance, err := svc.Remaining(ctx, "uid-1")
		require.NoError(t, err)
		assert.True(t, allowance.Unlimited)
	})

	t.Run("never reports negative", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		rec := account.NewRecord("uid-1", "u@example.com", now)
		rec.Usage = account.Usage{Date: account.DayKey(now), Count: 7}
		require.NoError(t, store.Create(ctx, rec))

		svc := quota.NewService(store, quota.Config{FreeDailyLimit: 3}, quota.WithClock(fixedClock(now)))

		allowance, err := svc.Remaining(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, 0, allowance.Left)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		svc := quota.NewService(account.NewMemoryStore(), quota.Config{FreeDailyLimit: 3})

		_, err := svc.Remaining(ctx, "uid-ghost")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})
}

func TestConsume(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("spends the allowance then rejects", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		require.NoError(t, store.Create(ctx, account.NewRecord("uid-1", "u@example.com", now)))

		svc := quota.NewService(store, quota.Config{FreeDailyLimit: 3}, quota.WithClock(fixedClock(now)))

		for i := 0; i < 3; i++ {
			require.NoError(t, svc.Consume(ctx, "uid-1"))
		}
		assert.ErrorIs(t, svc.Consume(ctx, "uid-1"), quota.ErrExhausted)
	})

	t.Run("day roll resets the counter", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		yesterday := now.AddDate(0, 0, -1)
		rec := account.NewRecord("uid-1", "u@example.com", yesterday)
		rec.Usage = account.Usage{Date: account.DayKey(yesterday), Count: 3}
		require.NoError(t, store.Create(ctx, rec))

		svc := quota.NewService(store, quota.Config{FreeDailyLimit: 3}, quota.WithClock(fixedClock(now)))

		require.NoError(t, svc.Consume(ctx, "uid-1"))

		stored, err := store.Get(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, account.DayKey(now), stored.Usage.Date)
		assert.Equal(t, 1, stored.Usage.Count)
	})

	t.Run("paid access never touches the counter", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		rec := account.NewRecord("uid-1", "u@example.com", now)
		rec.Status = account.StatusActive
		require.NoError(t, store.Create(ctx, rec))

		svc := quota.NewService(store, quota.Config{FreeDailyLimit: 3}, quota.WithClock(fixedClock(now)))

		for i := 0; i < 10; i++ {
			require.NoError(t, svc.Consume(ctx, "uid-1"))
		}

		stored, err := store.Get(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, 0, stored.Usage.Count)
	})

	t.Run("canceled access lasts until the period end", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		rec := account.NewRecord("uid-1", "u@example.com", now)
		rec.Status = account.StatusCanceled
		end := now.Add(24 * time.Hour)
		rec.SubscriptionEnd = &end
		require.NoError(t, store.Create(ctx, rec))

		svc := quota.NewService(store, quota.Config{FreeDailyLimit: 1}, quota.WithClock(fixedClock(now)))

		require.NoError(t, svc.Consume(ctx, "uid-1"))
		require.NoError(t, svc.Consume(ctx, "uid-1"))

		// Past the period end the free limit applies again.
		after := end.Add(time.Hour)
		expired := quota.NewService(store, quota.Config{FreeDailyLimit: 1}, quota.WithClock(fixedClock(after)))
		require.NoError(t, expired.Consume(ctx, "uid-1"))
		assert.ErrorIs(t, expired.Consume(ctx, "uid-1"), quota.ErrExhausted)
	})

	t.Run("concurrent consumers never exceed the limit", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		require.NoError(t, store.Create(ctx, account.NewRecord("uid-1", "u@example.com", now)))

		limit := 5
		svc := quota.NewService(store, quota.Config{FreeDailyLimit: limit}, quota.WithClock(fixedClock(now)))

		var wg sync.WaitGroup
		granted := make(chan struct{}, 50)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if svc.Consume(ctx, "uid-1") == nil {
					granted <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(granted)

		assert.Equal(t, limit, len(granted))

		stored, err := store.Get(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, limit, stored.Usage.Count)
	})

	t.Run("concurrent consumers across a day roll never exceed the limit", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		yesterday := now.AddDate(0, 0, -1)
		rec := account.NewRecord("uid-1", "u@example.com", yesterday)
		rec.Usage = account.Usage{Date: account.DayKey(yesterday), Count: 3}
		require.NoError(t, store.Create(ctx, rec))

		// Every consumer reads the stale counter and tries to roll the day,
		// so a late reset must not wipe an earlier consumer's increment.
		limit := 1
		svc := quota.NewService(store, quota.Config{FreeDailyLimit: limit}, quota.WithClock(fixedClock(now)))

		var wg sync.WaitGroup
		granted := make(chan struct{}, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if svc.Consume(ctx, "uid-1") == nil {
					granted <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(granted)

		assert.Equal(t, limit, len(granted))

		stored, err := store.Get(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, account.DayKey(now), stored.Usage.Date)
		assert.Equal(t, limit, stored.Usage.Count)
	})

	t.Run("missing user id", func(t *testing.T) {
		t.Parallel()

		svc := quota.NewService(account.NewMemoryStore(), quota.Config{FreeDailyLimit: 3})
		assert.ErrorIs(t, svc.Consume(ctx, ""), quota.ErrMissingUserID)
	})
}
