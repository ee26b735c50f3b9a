package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"kulturabooking.org/internal/auth"
	"kulturabooking.org/internal/booking"
	"kulturabooking.org/internal/obs"
	"kulturabooking.org/internal/payment"
	"kulturabooking.org/internal/stream"
)

// ReadyProbe checks backing-store readiness for /readyz.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries everything the HTTP layer needs; nothing is read from
// globals after construction.
type Config struct {
	Auth        *auth.Service
	Booking     *booking.Service
	Payment     *payment.Service
	Stream      *stream.Stream
	ReadyProbe  ReadyProbe
	Version     string
	CORSOrigins []string
}

// API is the HTTP layer.
type API struct {
	mux         *http.ServeMux
	auth        *auth.Service
	booking     *booking.Service
	payment     *payment.Service
	stream      *stream.Stream
	readyProbe  ReadyProbe
	version     string
	corsOrigins []string
}

func New(cfg Config) *API {
	a := &API{
		mux:         http.NewServeMux(),
		auth:        cfg.Auth,
		booking:     cfg.Booking,
		payment:     cfg.Payment,
		stream:      cfg.Stream,
		readyProbe:  cfg.ReadyProbe,
		version:     cfg.Version,
		corsOrigins: cfg.CORSOrigins,
	}

	// health/ready/metrics
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/api/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/verify", a.handleVerify)
	a.mux.HandleFunc("/api/auth/forgot-password", a.handleForgotPassword)

	// programs
	a.mux.HandleFunc("/api/programs", a.handleProgramsCollection)
	a.mux.HandleFunc("/api/programs/", a.handleProgramResource)

	// bookings
	a.mux.HandleFunc("/api/bookings", a.handleBookingsCollection)
	a.mux.HandleFunc("/api/bookings/", a.handleBookingResource)

	// schools
	a.mux.HandleFunc("/api/schools", a.handleSchools)

	// theme
	a.mux.HandleFunc("/api/settings/theme", a.handleTheme)
	a.mux.HandleFunc("/api/settings/theme/public/", a.handlePublicTheme)

	// dashboard + statistics
	a.mux.HandleFunc("/api/dashboard/stats", a.handleDashboardStats)
	a.mux.HandleFunc("/api/statistics/bookings-over-time", a.handleBookingsOverTime)
	a.mux.HandleFunc("/api/statistics/popular-programs", a.handlePopularPrograms)

	// payments
	a.mux.HandleFunc("/api/payments/create-session", a.handleCreateSession)
	a.mux.HandleFunc("/api/payments/status/", a.handlePaymentStatus)
	a.mux.HandleFunc("/api/webhook/stripe", a.handleStripeWebhook)

	// live admin feed
	a.mux.HandleFunc("/api/events", a.Events)

	// banner at /api/, 404 elsewhere
	a.mux.HandleFunc("/api/", a.handleAPIRoot)
	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the full middleware-wrapped handler chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 30, 15)
	h = CORS(h, a.corsOrigins)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) handleAPIRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/" && r.URL.Path != "/api" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "KulturaBooking API",
		"version": a.version,
	})
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "kultura-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// identity returns the authenticated identity or answers 401 itself.
func (a *API) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
	}
	return id, ok
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
