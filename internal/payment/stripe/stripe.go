// Package stripe implements payment.Provider against the Stripe Checkout
// REST API. Only this package knows Stripe's wire formats; the reconciliation
// engine depends solely on the capability interface.
package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kulturabooking.org/internal/payment"
)

const (
	defaultBaseURL     = "https://api.stripe.com"
	defaultTolerance   = 5 * time.Minute
	signatureHeaderKey = "Stripe-Signature"
)

// HeaderName is the request header carrying the webhook signature.
const HeaderName = signatureHeaderKey

var _ payment.Provider = (*Client)(nil)

// Client talks to the Stripe API over HTTPS with a bounded timeout.
type Client struct {
	apiKey        string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
	tolerance     time.Duration
	now           func() time.Time
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests against httptest).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClock overrides the time source used for signature tolerance checks.
func WithClock(fn func() time.Time) Option {
	return func(c *Client) {
		if fn != nil {
			c.now = fn
		}
	}
}

// New constructs a client. The webhook secret is distinct from the API key;
// both come from configuration at startup.
func New(apiKey, webhookSecret string, opts ...Option) *Client {
	c := &Client{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		tolerance:     defaultTolerance,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type checkoutSessionPayload struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

// CreateSession opens a hosted Checkout session.
func (c *Client) CreateSession(ctx context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", req.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.Amount, 10))
	form.Set("line_items[0][price_data][product_data][name]", "KulturaBooking subscription")
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var payload checkoutSessionPayload
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &payload); err != nil {
		return payment.CheckoutSession{}, err
	}
	if payload.ID == "" || payload.URL == "" {
		return payment.CheckoutSession{}, fmt.Errorf("stripe: malformed session response")
	}
	return payment.CheckoutSession{SessionID: payload.ID, URL: payload.URL}, nil
}

// SessionStatus fetches the provider's current answer for a session.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (payment.CheckoutStatus, error) {
	var payload checkoutSessionPayload
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return payment.CheckoutStatus{}, err
	}
	return payment.CheckoutStatus{
		SessionStatus: payload.Status,
		PaymentStatus: payload.PaymentStatus,
	}, nil
}

type webhookEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string `json:"id"`
			PaymentStatus string `json:"payment_status"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks the Stripe-Signature header (scheme: t=<unix>,v1=<hex
// HMAC-SHA256 over "<t>.<payload>">) against the webhook secret before any
// payload field is trusted. Timestamps outside the tolerance window are
// rejected to blunt replay.
func (c *Client) VerifyWebhook(payload []byte, signatureHeader string) (payment.WebhookEvent, error) {
	ts, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return payment.WebhookEvent{}, fmt.Errorf("%w: %v", payment.ErrSignatureInvalid, err)
	}
	age := c.now().UTC().Sub(time.Unix(ts, 0))
	if age > c.tolerance || age < -c.tolerance {
		return payment.WebhookEvent{}, fmt.Errorf("%w: timestamp outside tolerance", payment.ErrSignatureInvalid)
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	verified := false
	for _, sig := range signatures {
		raw, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			verified = true
			break
		}
	}
	if !verified {
		return payment.WebhookEvent{}, fmt.Errorf("%w: no matching v1 signature", payment.ErrSignatureInvalid)
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return payment.WebhookEvent{}, fmt.Errorf("%w: malformed payload: %v", payment.ErrSignatureInvalid, err)
	}
	if envelope.Data.Object.ID == "" {
		return payment.WebhookEvent{}, fmt.Errorf("%w: event has no session id", payment.ErrSignatureInvalid)
	}
	return payment.WebhookEvent{
		ID:            envelope.ID,
		Type:          envelope.Type,
		SessionID:     envelope.Data.Object.ID,
		PaymentStatus: envelope.Data.Object.PaymentStatus,
	}, nil
}

// SignPayload produces a valid Stripe-Signature header value for payload at
// the given time. Exported for tests that exercise the webhook path.
func (c *Client) SignPayload(payload []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (int64, []string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, nil, fmt.Errorf("missing signature header")
	}
	var (
		ts         int64
		tsSeen     bool
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("bad timestamp")
			}
			ts = parsed
			tsSeen = true
		case "v1":
			signatures = append(signatures, v)
		}
	}
	if !tsSeen || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("signature header incomplete")
	}
	return ts, signatures, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("stripe: %s %s returned %d", method, path, resp.StatusCode)
	}
	return json.Unmarshal(data, out)
}
