package resume_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resumehttp "github.com/cvboost/cvboost/modules/resume"
	"github.com/cvboost/cvboost/pkg/account"
	"github.com/cvboost/cvboost/pkg/ai"
	"github.com/cvboost/cvboost/pkg/quota"
)

type stubOptimizer struct {
	result *ai.OptimizeResult
	err    error
	calls  int
}

func (s *stubOptimizer) Optimize(_ context.Context, _ ai.OptimizeRequest) (*ai.OptimizeResult, error) {
	s.calls++
	return s.result, s.err
}

func setup(t *testing.T, opt *stubOptimizer, limit int) (http.Handler, *account.MemoryStore) {
	t.Helper()

	store := account.NewMemoryStore()
	quotaSvc := quota.NewService(store, quota.Config{FreeDailyLimit: limit})
	return resumehttp.Router(opt, quotaSvc, nil), store
}

func postOptimize(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestOptimize(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	t.Run("returns the rewritten content and counts usage", func(t *testing.T) {
		t.Parallel()

		opt := &stubOptimizer{result: &ai.OptimizeResult{Content: "better CV", Model: "gpt-4o-mini"}}
		router, store := setup(t, opt, 3)
		require.NoError(t, store.Create(context.Background(), account.NewRecord("uid-1", "u@example.com", now)))

		rec := postOptimize(t, router, `{"userid":"uid-1","resume":"my cv"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var got map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "better CV", got["content"])

		stored, err := store.Get(context.Background(), "uid-1")
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Usage.Count)
	})

	t.Run("rejects once the allowance is spent, before the AI call", func(t *testing.T) {
		t.Parallel()

		opt := &stubOptimizer{result: &ai.OptimizeResult{Content: "ok"}}
		router, store := setup(t, opt, 2)
		require.NoError(t, store.Create(context.Background(), account.NewRecord("uid-1", "u@example.com", now)))

		for range 2 {
			rec := postOptimize(t, router, `{"userid":"uid-1","resume":"my cv"}`)
			require.Equal(t, http.StatusOK, rec.Code)
		}
		callsBefore := opt.calls

		rec := postOptimize(t, router, `{"userid":"uid-1","resume":"my cv"}`)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, callsBefore, opt.calls)
	})

	t.Run("failed completion does not cost a slot", func(t *testing.T) {
		t.Parallel()

		opt := &stubOptimizer{err: assert.AnError}
		router, store := setup(t, opt, 3)
		require.NoError(t, store.Create(context.Background(), account.NewRecord("uid-1", "u@example.com", now)))

		rec := postOptimize(t, router, `{"userid":"uid-1","resume":"my cv"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		stored, err := store.Get(context.Background(), "uid-1")
		require.NoError(t, err)
		assert.Equal(t, 0, stored.Usage.Count)
	})

	t.Run("paid user bypasses the counter", func(t *testing.T) {
		t.Parallel()

		opt := &stubOptimizer{result: &ai.OptimizeResult{Content: "ok"}}
		router, store := setup(t, opt, 1)
		rec := account.NewRecord("uid-1", "u@example.com", now)
		rec.Status = account.StatusActive
		require.NoError(t, store.Create(context.Background(), rec))

		for range 5 {
			res := postOptimize(t, router, `{"userid":"uid-1","resume":"my cv"}`)
			require.Equal(t, http.StatusOK, res.Code)
		}

		stored, err := store.Get(context.Background(), "uid-1")
		require.NoError(t, err)
		assert.Equal(t, 0, stored.Usage.Count)
	})

	t.Run("unknown user is a 404", func(t *testing.T) {
		t.Parallel()

		router, _ := setup(t, &stubOptimizer{}, 3)

		rec := postOptimize(t, router, `{"userid":"uid-ghost","resume":"my cv"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing user id is a 400", func(t *testing.T) {
		t.Parallel()

		router, _ := setup(t, &stubOptimizer{}, 3)

		rec := postOptimize(t, router, `{"resume":"my cv"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty resume is a 400", func(t *testing.T) {
		t.Parallel()

		opt := &stubOptimizer{err: ai.ErrMissingResume}
		router, store := setup(t, opt, 3)
		require.NoError(t, store.Create(context.Background(), account.NewRecord("uid-1", "u@example.com", now)))

		rec := postOptimize(t, router, `{"userid":"uid-1","resume":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAllowance(t *testing.T) {
	t.Parallel()

	router, store := setup(t, &stubOptimizer{}, 3)
	now := time.Now().UTC()
	rec := account.NewRecord("uid-1", "u@example.com", now)
	rec.Usage = account.Usage{Date: account.DayKey(now), Count: 2}
	require.NoError(t, store.Create(context.Background(), rec))

	req := httptest.NewRequest(http.MethodGet, "/allowance/uid-1", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var got quota.Allowance
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Left)
	assert.Equal(t, 3, got.Limit)
	assert.False(t, got.Unlimited)
}
