package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cvboost/cvboost/pkg/logger"
)

// HealthCheckHandler returns an HTTP handler usable for liveness and
// readiness probes.
//
//   - Liveness: with no dependency functions it returns 200 "ALIVE".
//   - Readiness: each dependency function is executed; all passing returns
//     200 "READY", any failure returns 500 "NOT_READY".
func HealthCheckHandler(log *slog.Logger, funcs ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(funcs) == 0 {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ALIVE"))
			return
		}

		for _, f := range funcs {
			if err := f(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	}
}
