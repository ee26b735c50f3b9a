package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/jackc/pgx/v5/stdlib"

	"kulturabooking.org/internal/auth"
	"kulturabooking.org/internal/booking"
	"kulturabooking.org/internal/httpapi"
	"kulturabooking.org/internal/notify"
	"kulturabooking.org/internal/obs"
	"kulturabooking.org/internal/payment"
	"kulturabooking.org/internal/payment/stripe"
	"kulturabooking.org/internal/stream"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("KULTURA_AUTH_SECRET")
	if secret == "" {
		log.Fatal("KULTURA_AUTH_SECRET is required")
	}
	addr := os.Getenv("KULTURA_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	baseURL := os.Getenv("KULTURA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	// Stores: PostgreSQL when a DSN is configured, in-memory otherwise so the
	// service still comes up for local development.
	var (
		db           *sql.DB
		authStore    auth.Store
		bookingStore booking.Store
		paymentStore payment.Store
	)
	if dsn := os.Getenv("KULTURA_PG_DSN"); dsn != "" {
		var err error
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		authStore = auth.NewPGStore(db)
		bookingStore = booking.NewPGStore(db)
		paymentStore = payment.NewPGStore(db)
	} else {
		log.Print("KULTURA_PG_DSN not set, using in-memory stores")
		authStore = auth.NewInMemoryStore()
		bookingStore = booking.NewInMemoryStore()
		paymentStore = payment.NewInMemoryStore()
	}

	tokens, err := auth.NewTokens(secret)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	authSvc := auth.NewService(authStore, tokens)
	bookingSvc := booking.NewService(bookingStore, notify.LogMailer{})

	provider := stripe.New(
		os.Getenv("STRIPE_API_KEY"),
		os.Getenv("STRIPE_WEBHOOK_SECRET"),
	)
	paymentSvc := payment.NewService(paymentStore, provider, baseURL)

	events := stream.New()

	api := httpapi.New(httpapi.Config{
		Auth:        authSvc,
		Booking:     bookingSvc,
		Payment:     paymentSvc,
		Stream:      events,
		ReadyProbe:  httpapi.ReadyProbe{DB: db},
		Version:     version,
		CORSOrigins: splitOrigins(os.Getenv("CORS_ORIGINS")),
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0, // SSE connections stay open
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting kultura-api %s on %s", version, addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
