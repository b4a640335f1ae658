package auth_test

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

	authhttp "github.com/cvboost/cvboost/modules/auth"
	"github.com/cvboost/cvboost/pkg/account"
	authsvc "github.com/cvboost/cvboost/pkg/auth"
)

type stubAuth struct {
	sendErr   error
	verifyErr error
	record    *account.Record
	sentTo    []string
}

func (s *stubAuth) SendSignInLink(_ context.Context, email string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sentTo = append(s.sentTo, email)
	return nil
}

func (s *stubAuth) Verify(_ context.Context, _ string) (*account.Record, error) {
	return s.record, s.verifyErr
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSendEmail(t *testing.T) {
	t.Parallel()

	t.Run("sends the link", func(t *testing.T) {
		t.Parallel()

		svc := &stubAuth{}
		router := authhttp.Router(svc, nil)

		rec := postJSON(t, router, "/send-email", `{"email":"user@example.com"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"user@example.com"}, svc.sentTo)
	})

	t.Run("missing email is a 400", func(t *testing.T) {
		t.Parallel()

		router := authhttp.Router(&stubAuth{}, nil)

		rec := postJSON(t, router, "/send-email", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid email is a 400", func(t *testing.T) {
		t.Parallel()

		router := authhttp.Router(&stubAuth{sendErr: authsvc.ErrInvalidEmail}, nil)

		rec := postJSON(t, router, "/send-email", `{"email":"nope"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("send failure is a 500", func(t *testing.T) {
		t.Parallel()

		router := authhttp.Router(&stubAuth{sendErr: assert.AnError}, nil)

		rec := postJSON(t, router, "/send-email", `{"email":"user@example.com"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestVerifyLink(t *testing.T) {
	t.Parallel()

	t.Run("returns the account record", func(t *testing.T) {
		t.Parallel()

		rec := account.NewRecord("uid-1", "user@example.com", time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
		router := authhttp.Router(&stubAuth{record: rec}, nil)

		req := httptest.NewRequest(http.MethodGet, "/verify-link?token=abc", nil)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)

		require.Equal(t, http.StatusOK, res.Code)
		var got account.Record
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
		assert.Equal(t, "uid-1", got.UserID)
		assert.Equal(t, account.PlanFree, got.Plan)
	})

	t.Run("missing token is a 400", func(t *testing.T) {
		t.Parallel()

		router := authhttp.Router(&stubAuth{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/verify-link", nil)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)

		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("invalid token is a 400", func(t *testing.T) {
		t.Parallel()

		router := authhttp.Router(&stubAuth{verifyErr: authsvc.ErrTokenInvalid}, nil)

		req := httptest.NewRequest(http.MethodGet, "/verify-link?token=abc", nil)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)

		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}
