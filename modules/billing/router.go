// Package billing exposes the payment endpoints consumed by the web client
// and the payment provider's webhook.
package billing

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cvboost/cvboost/pkg/account"
	payments "github.com/cvboost/cvboost/pkg/billing"
	"github.com/cvboost/cvboost/pkg/binder"
	"github.com/cvboost/cvboost/pkg/logger"
	"github.com/cvboost/cvboost/pkg/respond"
	"github.com/cvboost/cvboost/pkg/subscription"
)

// maxWebhookBody caps the webhook payload read. Provider events are a few KB.
const maxWebhookBody = 1 << 20

type handlers struct {
	svc subscription.Service
	log *slog.Logger
}

// Router mounts the billing endpoints.
func Router(svc subscription.Service, log *slog.Logger) chi.Router {
	if svc == nil {
		panic("billing: subscription service is required")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &handlers{svc: svc, log: log}

	r := chi.NewRouter()
	r.Post("/get-customer-id", h.getCustomerID)
	r.Post("/create-checkout-session", h.createCheckout)
	r.Post("/switch-subscription", h.switchSubscription)
	r.Post("/cancel-subscription", h.cancelSubscription)
	r.Post("/webhook", h.webhook)
	r.Get("/invoice/{invoiceID}", h.invoice)
	return r
}

type getCustomerIDRequest struct {
	Email      string `json:"email"`
	CustomerID string `json:"customerId"`
}

func (h *handlers) getCustomerID(w http.ResponseWriter, r *http.Request) {
	var req getCustomerIDRequest
	if err := binder.JSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	customerID, err := h.svc.ResolveCustomer(r.Context(), req.Email, req.CustomerID)
	if err != nil {
		h.fail(w, r, "failed to resolve billing customer", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"customerId": customerID})
}

type createCheckoutRequest struct {
	PriceID    string `json:"priceId"`
	Email      string `json:"email"`
	CustomerID string `json:"customerId"`
	UserID     string `json:"userid"`
	PlanName   string `json:"planName"`
	SuccessURL string `json:"successUrl"`
}

func (h *handlers) createCheckout(w http.ResponseWriter, r *http.Request) {
	var req createCheckoutRequest
	if err := binder.JSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	url, err := h.svc.Checkout(r.Context(), subscription.CheckoutParams{
		PriceID:    req.PriceID,
		Email:      req.Email,
		CustomerID: req.CustomerID,
		UserID:     req.UserID,
		Plan:       account.Plan(req.PlanName),
		SuccessURL: req.SuccessURL,
	})
	if err != nil {
		h.fail(w, r, "failed to create checkout session", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"url": url})
}

type switchSubscriptionRequest struct {
	UserID   string `json:"userid"`
	PriceID  string `json:"priceId"`
	PlanName string `json:"planName"`
}

func (h *handlers) switchSubscription(w http.ResponseWriter, r *http.Request) {
	var req switchSubscriptionRequest
	if err := binder.JSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Switch(r.Context(), req.UserID, req.PriceID); err != nil {
		h.fail(w, r, "failed to switch subscription", err)
		return
	}
	respond.Message(w, "subscription updated")
}

type cancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId"`
	UserID         string `json:"firebaseUid"`
	PlanName       string `json:"planName"`
}

func (h *handlers) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	var req cancelSubscriptionRequest
	if err := binder.JSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Cancel(r.Context(), req.UserID, req.SubscriptionID); err != nil {
		h.fail(w, r, "failed to cancel subscription", err)
		return
	}
	respond.Message(w, "subscription canceled")
}

// webhook acknowledges the provider only after the event is fully applied.
// Signature and parse failures get a plain-text 400; store or provider
// failures get a 500 so the provider retries the delivery.
func (h *handlers) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	err = h.svc.HandleWebhook(r.Context(), payload, r.Header.Get("Paddle-Signature"))
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, payments.ErrWebhookVerificationFailed),
		errors.Is(err, payments.ErrMalformedEvent):
		h.log.WarnContext(r.Context(), "webhook rejected", logger.Error(err))
		http.Error(w, "invalid webhook signature", http.StatusBadRequest)
	default:
		h.log.ErrorContext(r.Context(), "webhook processing failed", logger.Error(err))
		http.Error(w, "webhook processing failed", http.StatusInternalServerError)
	}
}

func (h *handlers) invoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "invoiceID")

	url, err := h.svc.InvoiceURL(r.Context(), invoiceID)
	if err != nil {
		h.fail(w, r, "failed to fetch invoice", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"invoice": invoiceID, "pdfUrl": url})
}

// fail maps service errors to status codes: missing records are 404,
// validation failures 400, everything else 500 with the provider message
// embedded so the client sees what the upstream reported.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, account.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "user record not found")
	case errors.Is(err, subscription.ErrMissingUserID),
		errors.Is(err, subscription.ErrMissingEmail),
		errors.Is(err, subscription.ErrMissingPriceID),
		errors.Is(err, subscription.ErrMissingSubscriptionID),
		errors.Is(err, subscription.ErrNoSubscription),
		errors.Is(err, payments.ErrUnknownPlan):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.log.ErrorContext(r.Context(), msg, logger.Error(err))
		respond.Error(w, http.StatusInternalServerError, msg+": "+err.Error())
	}
}
