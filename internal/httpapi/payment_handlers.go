package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"kulturabooking.org/internal/audit"
	"kulturabooking.org/internal/payment"
	"kulturabooking.org/internal/payment/stripe"
	"kulturabooking.org/internal/stream"
)

type createSessionRequest struct {
	Package      string `json:"package"`
	BillingCycle string `json:"billing_cycle"`
}

func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	tx, url, err := a.payment.CreateSession(r.Context(), id, req.Package, req.BillingCycle)
	if err != nil {
		handlePaymentError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "payment.session.created", map[string]any{
		"session_id":    tx.SessionID,
		"package":       tx.Package,
		"billing_cycle": tx.BillingCycle,
		"amount":        tx.Amount,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"url":        url,
		"session_id": tx.SessionID,
	})
}

func (a *API) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/api/payments/status/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id, ok := a.identity(w, r)
	if !ok {
		return
	}

	tx, err := a.payment.Status(r.Context(), id, sessionID)
	if err != nil {
		handlePaymentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// handleStripeWebhook reads the raw body before any parsing; the signature
// covers the exact bytes sent.
func (a *API) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unreadable body")
		return
	}

	tx, err := a.payment.HandleWebhook(r.Context(), payload, r.Header.Get(stripe.HeaderName))
	if err != nil {
		handleWebhookError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "payment.webhook.processed", map[string]any{
		"session_id":     tx.SessionID,
		"payment_status": string(tx.PaymentStatus),
	})
	if a.stream != nil {
		a.stream.Publish(stream.Event{
			Type:          stream.EventPaymentStatusChanged,
			InstitutionID: tx.InstitutionID,
			Payload:       tx,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func handlePaymentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, payment.ErrUnknownPackage):
		writeError(w, r, http.StatusBadRequest, "Invalid package selected")
	case errors.Is(err, payment.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, payment.ErrProvider), errors.Is(err, payment.ErrUnknownStatus):
		writeError(w, r, http.StatusBadGateway, "payment provider error")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// handleWebhookError maps provider push failures. Signature and parse
// failures are the caller's fault; an unknown session means the push raced
// ahead of the creation path and the provider should retry.
func handleWebhookError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, payment.ErrSignatureInvalid):
		writeError(w, r, http.StatusBadRequest, "invalid signature")
	case errors.Is(err, payment.ErrUnknownStatus):
		writeError(w, r, http.StatusBadRequest, "unknown payment status")
	case errors.Is(err, payment.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "unknown session")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
