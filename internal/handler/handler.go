// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer. The response bodies
// here are part of the client contract and must not be reworded.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/karan-ksrk/fitness-booking-api/internal/clock"
	"github.com/karan-ksrk/fitness-booking-api/internal/logger"
	"github.com/karan-ksrk/fitness-booking-api/internal/model"
	"github.com/karan-ksrk/fitness-booking-api/internal/repository"
	"github.com/karan-ksrk/fitness-booking-api/internal/service"
)

// BookingHandler holds all HTTP handlers for the booking API.
type BookingHandler struct {
	classes  *service.ClassService
	bookings *service.BookingService
	queries  *service.BookingQueryService
	log      *logger.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(
	classes *service.ClassService,
	bookings *service.BookingService,
	queries *service.BookingQueryService,
	log *logger.Logger,
) *BookingHandler {
	return &BookingHandler{classes: classes, bookings: bookings, queries: queries, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// writeFieldError emits the per-field error-array shape, e.g.
// {"class_id": ["Invalid pk \"999\" - object does not exist."]}.
func writeFieldError(w http.ResponseWriter, status int, field, msg string) {
	writeJSON(w, status, map[string][]string{field: {msg}})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// ListClasses handles GET /classes
// Returns upcoming classes ordered by start time, with start times
// rendered in the timezone named by the optional tz query parameter.
func (h *BookingHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	tz := r.URL.Query().Get("tz")

	views, err := h.classes.ListUpcoming(r.Context(), tz)
	if err != nil {
		if errors.Is(err, clock.ErrUnknownTimezone) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("list classes failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list classes")
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// CreateBooking handles POST /book
// Performs the concurrency-safe booking transaction for the given class.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.BookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	receipt, err := h.bookings.Book(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Missing fields")
		case errors.Is(err, service.ErrInvalidEmail):
			writeFieldError(w, http.StatusBadRequest, "client_email", "Enter a valid email address.")
		case errors.Is(err, repository.ErrClassNotFound):
			writeFieldError(w, http.StatusBadRequest, "class_id",
				fmt.Sprintf("Invalid pk %q - object does not exist.", fmt.Sprint(req.ClassID)))
		case errors.Is(err, repository.ErrNoSlots):
			writeError(w, http.StatusBadRequest, "No available slots for this class")
		case errors.Is(err, repository.ErrDuplicateBooking):
			writeError(w, http.StatusBadRequest, "Booking already exists for this class")
		default:
			h.log.Error("create booking failed", "class_id", req.ClassID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.log.Info("booking created",
		"booking_id", receipt.BookingID,
		"class_id", receipt.Class.ID,
		"available_slots", receipt.Class.AvailableSlots,
	)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Booking created successfully",
		"booking": receipt,
	})
}

// ListBookings handles GET /bookings
// Returns all bookings made with the email named by the required email
// query parameter.
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	views, err := h.queries.ListByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			writeFieldError(w, http.StatusBadRequest, "client_email", "Enter a valid email address.")
			return
		}
		h.log.Error("list bookings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
