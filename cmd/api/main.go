// cmd/api is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/karan-ksrk/fitness-booking-api/internal/clock"
	"github.com/karan-ksrk/fitness-booking-api/internal/database"
	"github.com/karan-ksrk/fitness-booking-api/internal/handler"
	"github.com/karan-ksrk/fitness-booking-api/internal/logger"
	"github.com/karan-ksrk/fitness-booking-api/internal/repository"
	"github.com/karan-ksrk/fitness-booking-api/internal/service"
	"github.com/karan-ksrk/fitness-booking-api/migrations"
)

func main() {
	log := logger.New(logger.Config{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
		Service: "fitness-booking-api",
	})

	ctx := context.Background()

	defaultZone := getEnv("DEFAULT_TZ", clock.DefaultZone)
	loc, err := clock.LocationFor(defaultZone)
	if err != nil {
		log.Fatal("invalid DEFAULT_TZ", "zone", defaultZone, "error", err)
	}

	// ── 1. Connect to PostgreSQL and apply migrations ─────────────────────
	pool, err := database.NewPool(ctx, database.ConfigFromEnv())
	if err != nil {
		log.Fatal("database connect failed", "error", err)
	}
	defer pool.Close()
	log.Info("connected to postgres")

	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatal("apply migrations failed", "error", err)
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	classRepo := repository.NewClassRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	if d, err := time.ParseDuration(os.Getenv("LOCK_TIMEOUT")); err == nil {
		bookingRepo.WithLockTimeout(d)
	}

	clk := clock.NewSystem()
	classSvc := service.NewClassService(classRepo, clk, defaultZone)
	bookingSvc := service.NewBookingService(bookingRepo, clk, loc)
	querySvc := service.NewBookingQueryService(bookingRepo, loc)
	h := handler.NewBookingHandler(classSvc, bookingSvc, querySvc, log)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.RequestLogger(log))

	r.Get("/health", handler.HealthCheck)
	r.Get("/classes", h.ListClasses)
	r.Post("/book", h.CreateBooking)
	r.Get("/bookings", h.ListBookings)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
