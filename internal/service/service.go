// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/karan-ksrk/fitness-booking-api/internal/clock"
	"github.com/karan-ksrk/fitness-booking-api/internal/model"
)

// ErrMissingFields is returned when a booking request lacks any of its
// required fields.
var ErrMissingFields = errors.New("missing fields")

// ErrInvalidEmail is returned when a client email fails syntax validation.
var ErrInvalidEmail = errors.New("invalid email address")

var validate = validator.New()

// ClassStore is the persistence surface the class services need.
type ClassStore interface {
	ListUpcoming(ctx context.Context, from time.Time) ([]model.FitnessClass, error)
}

// BookingStore is the persistence surface the booking services need.
// Book must be atomic: either the booking row and the capacity decrement
// both persist, or neither does.
type BookingStore interface {
	Book(ctx context.Context, classID int64, clientName, clientEmail string, now time.Time) (*model.Booking, *model.FitnessClass, error)
	ListByEmail(ctx context.Context, clientEmail string) ([]model.BookingWithClass, error)
}

// BookingService validates booking requests and delegates the
// concurrency-safe transaction to the store.
type BookingService struct {
	bookings BookingStore
	clock    clock.Clock
	loc      *time.Location
}

// NewBookingService constructs a BookingService. loc is the timezone
// used to render timestamps in receipts.
func NewBookingService(bookings BookingStore, clk clock.Clock, loc *time.Location) *BookingService {
	return &BookingService{bookings: bookings, clock: clk, loc: loc}
}

// Book runs the cheap pre-checks and then the atomic booking
// transaction. The pre-checks reject malformed input before any storage
// access; capacity and duplicate enforcement happen inside the
// transaction where they are authoritative.
func (s *BookingService) Book(ctx context.Context, req model.BookRequest) (*model.BookingReceipt, error) {
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientEmail = strings.TrimSpace(strings.ToLower(req.ClientEmail))
	if req.ClassID == 0 || req.ClientName == "" || req.ClientEmail == "" {
		return nil, ErrMissingFields
	}
	if err := validate.Var(req.ClientEmail, "email"); err != nil {
		return nil, ErrInvalidEmail
	}

	booking, cls, err := s.bookings.Book(ctx, req.ClassID, req.ClientName, req.ClientEmail, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("book class: %w", err)
	}

	return &model.BookingReceipt{
		BookingID:       booking.ID,
		ClientName:      booking.ClientName,
		ClientEmail:     booking.ClientEmail,
		ClassName:       cls.Name,
		ClassInstructor: cls.Instructor,
		CreatedAt:       clock.Format(booking.CreatedAt, s.loc),
		Class: model.ClassSummary{
			ID:             cls.ID,
			Name:           cls.Name,
			AvailableSlots: cls.AvailableSlots,
		},
	}, nil
}

// ClassService reads upcoming classes with timezone-converted start times.
type ClassService struct {
	classes     ClassStore
	clock       clock.Clock
	defaultZone string
}

// NewClassService constructs a ClassService. defaultZone is used when a
// request does not name a timezone.
func NewClassService(classes ClassStore, clk clock.Clock, defaultZone string) *ClassService {
	return &ClassService{classes: classes, clock: clk, defaultZone: defaultZone}
}

// ListUpcoming returns classes starting at or after the current time,
// ordered ascending by start time, each with its start time rendered in
// the requested timezone. An unknown timezone name fails before the
// store is queried.
func (s *ClassService) ListUpcoming(ctx context.Context, tzName string) ([]model.ClassView, error) {
	if tzName == "" {
		tzName = s.defaultZone
	}
	loc, err := clock.LocationFor(tzName)
	if err != nil {
		return nil, err
	}

	classes, err := s.classes.ListUpcoming(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("list upcoming classes: %w", err)
	}

	views := make([]model.ClassView, 0, len(classes))
	for _, c := range classes {
		views = append(views, model.ClassView{
			ID:             c.ID,
			Name:           c.Name,
			Instructor:     c.Instructor,
			StartTime:      clock.Format(c.StartTime, loc),
			AvailableSlots: c.AvailableSlots,
		})
	}
	return views, nil
}

// BookingQueryService reads bookings filtered by client email.
type BookingQueryService struct {
	bookings BookingStore
	loc      *time.Location
}

// NewBookingQueryService constructs a BookingQueryService. loc is the
// timezone used to render creation times.
func NewBookingQueryService(bookings BookingStore, loc *time.Location) *BookingQueryService {
	return &BookingQueryService{bookings: bookings, loc: loc}
}

// ListByEmail returns the bookings made with the given email, ordered by
// creation time. An empty result is valid, not an error.
func (s *BookingQueryService) ListByEmail(ctx context.Context, clientEmail string) ([]model.BookingView, error) {
	clientEmail = strings.TrimSpace(strings.ToLower(clientEmail))
	if err := validate.Var(clientEmail, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}

	bookings, err := s.bookings.ListByEmail(ctx, clientEmail)
	if err != nil {
		return nil, fmt.Errorf("list bookings by email: %w", err)
	}

	views := make([]model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, model.BookingView{
			ID:           b.ID,
			FitnessClass: b.FitnessClassID,
			ClientName:   b.ClientName,
			ClientEmail:  b.ClientEmail,
			CreatedAt:    clock.Format(b.CreatedAt, s.loc),
		})
	}
	return views, nil
}
