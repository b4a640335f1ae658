// Package resume exposes the AI CV-optimization endpoint, gated by the
// daily free-tier allowance.
package resume

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cvboost/cvboost/pkg/account"
	"github.com/cvboost/cvboost/pkg/ai"
	"github.com/cvboost/cvboost/pkg/binder"
	"github.com/cvboost/cvboost/pkg/logger"
	"github.com/cvboost/cvboost/pkg/quota"
	"github.com/cvboost/cvboost/pkg/respond"
)

type handlers struct {
	optimizer ai.Optimizer
	quota     quota.Service
	log       *slog.Logger
}

// Router mounts the resume endpoints.
func Router(optimizer ai.Optimizer, quotaSvc quota.Service, log *slog.Logger) chi.Router {
	if optimizer == nil {
		panic("resume: optimizer is required")
	}
	if quotaSvc == nil {
		panic("resume: quota service is required")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &handlers{optimizer: optimizer, quota: quotaSvc, log: log}

	r := chi.NewRouter()
	r.Post("/optimize", h.optimize)
	r.Get("/allowance/{userID}", h.allowance)
	return r
}

type optimizeRequest struct {
	UserID         string `json:"userid"`
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription"`
	Instructions   string `json:"instructions"`
}

type optimizeResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// optimize checks the remaining allowance before the AI call and counts the
// request only after the call succeeds, so a failed completion never costs
// a free slot.
func (h *handlers) optimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := binder.JSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" {
		respond.Error(w, http.StatusBadRequest, "userid is required")
		return
	}

	allowance, err := h.quota.Remaining(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user record not found")
			return
		}
		h.log.ErrorContext(r.Context(), "failed to check allowance", logger.Error(err), logger.UserID(req.UserID))
		respond.Error(w, http.StatusInternalServerError, "failed to check allowance")
		return
	}
	if !allowance.Unlimited && allowance.Left <= 0 {
		respond.Error(w, http.StatusTooManyRequests, "daily request limit reached")
		return
	}

	result, err := h.optimizer.Optimize(r.Context(), ai.OptimizeRequest{
		Resume:         req.Resume,
		JobDescription: req.JobDescription,
		Instructions:   req.Instructions,
	})
	if err != nil {
		if errors.Is(err, ai.ErrMissingResume) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.ErrorContext(r.Context(), "optimization failed", logger.Error(err), logger.UserID(req.UserID))
		respond.Error(w, http.StatusInternalServerError, "optimization failed: "+err.Error())
		return
	}

	if err := h.quota.Consume(r.Context(), req.UserID); err != nil && !errors.Is(err, quota.ErrExhausted) {
		// The completion already succeeded; losing the count is better than
		// failing the response.
		h.log.WarnContext(r.Context(), "failed to count usage", logger.Error(err), logger.UserID(req.UserID))
	}

	respond.JSON(w, http.StatusOK, optimizeResponse{Content: result.Content, Model: result.Model})
}

func (h *handlers) allowance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	allowance, err := h.quota.Remaining(r.Context(), userID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user record not found")
			return
		}
		h.log.ErrorContext(r.Context(), "failed to check allowance", logger.Error(err), logger.UserID(userID))
		respond.Error(w, http.StatusInternalServerError, "failed to check allowance")
		return
	}
	respond.JSON(w, http.StatusOK, allowance)
}
