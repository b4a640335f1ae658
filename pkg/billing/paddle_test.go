package billing

import (
	"errors"
	"fmt"
	"testing"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSubscription(t *testing.T) {
	t.Parallel()

	t.Run("maps id, status, price and billing period", func(t *testing.T) {
		t.Parallel()

		items := []paddle.SubscriptionItem{{Price: paddle.Price{ID: "pri_123"}}}
		period := &paddle.TimePeriod{
			StartsAt: "2026-08-01T00:00:00Z",
			EndsAt:   "2026-09-01T00:00:00Z",
		}

		sub, err := mapSubscription("sub_1", "active", items, period)
		require.NoError(t, err)
		assert.Equal(t, "sub_1", sub.ID)
		assert.Equal(t, "active", sub.Status)
		assert.Equal(t, "pri_123", sub.PriceID)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), sub.PeriodStart)
		assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), sub.PeriodEnd)
	})

	t.Run("tolerates missing items and period", func(t *testing.T) {
		t.Parallel()

		sub, err := mapSubscription("sub_1", "canceled", nil, nil)
		require.NoError(t, err)
		assert.Empty(t, sub.PriceID)
		assert.True(t, sub.PeriodStart.IsZero())
		assert.True(t, sub.PeriodEnd.IsZero())
	})

	t.Run("rejects unparseable period timestamps", func(t *testing.T) {
		t.Parallel()

		_, err := mapSubscription("sub_1", "active", nil, &paddle.TimePeriod{
			StartsAt: "yesterday",
			EndsAt:   "2026-09-01T00:00:00Z",
		})
		assert.Error(t, err)
	})
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, isNotFound(paddle.ErrNotFound))
	assert.True(t, isNotFound(fmt.Errorf("get customer: %w", paddle.ErrNotFound)))
	assert.False(t, isNotFound(errors.New("paddle is down")))
	assert.False(t, isNotFound(nil))
}
