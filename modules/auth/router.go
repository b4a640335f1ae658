// Package auth exposes the passwordless sign-in endpoints.
package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/cvboost/cvboost/pkg/auth"
	"github.com/cvboost/cvboost/pkg/binder"
	"github.com/cvboost/cvboost/pkg/logger"
	"github.com/cvboost/cvboost/pkg/respond"
)

type handlers struct {
	svc authsvc.Service
	log *slog.Logger
}

// Router mounts the sign-in endpoints.
func Router(svc authsvc.Service, log *slog.Logger) chi.Router {
	if svc == nil {
		panic("auth: sign-in service is required")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &handlers{svc: svc, log: log}

	r := chi.NewRouter()
	r.Post("/send-email", h.sendEmail)
	r.Get("/verify-link", h.verifyLink)
	return r
}

type sendEmailRequest struct {
	Email string `json:"email"`
}

func (h *handlers) sendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := binder.JSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" {
		respond.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.svc.SendSignInLink(r.Context(), req.Email); err != nil {
		if errors.Is(err, authsvc.ErrInvalidEmail) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.ErrorContext(r.Context(), "failed to send sign-in email", logger.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to send sign-in email")
		return
	}
	respond.Message(w, "sign-in link sent")
}

func (h *handlers) verifyLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respond.Error(w, http.StatusBadRequest, "token is required")
		return
	}

	rec, err := h.svc.Verify(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrTokenInvalid), errors.Is(err, authsvc.ErrTokenExpired):
			respond.Error(w, http.StatusBadRequest, err.Error())
		default:
			h.log.ErrorContext(r.Context(), "failed to verify sign-in link", logger.Error(err))
			respond.Error(w, http.StatusInternalServerError, "failed to verify sign-in link")
		}
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}
