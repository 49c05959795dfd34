package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/karan-ksrk/fitness-booking-api/internal/clock"
	"github.com/karan-ksrk/fitness-booking-api/internal/model"
	"github.com/karan-ksrk/fitness-booking-api/internal/repository"
)

// fakeStore implements ClassStore and BookingStore in memory with the
// same serialisation guarantee the real repository gets from row
// locking: Book holds a mutex across its check-then-write.
type fakeStore struct {
	mu       sync.Mutex
	classes  map[int64]*model.FitnessClass
	bookings []model.Booking
	nextID   int64
	bookErr  error
}

func newFakeStore(classes ...model.FitnessClass) *fakeStore {
	s := &fakeStore{classes: make(map[int64]*model.FitnessClass)}
	for i := range classes {
		c := classes[i]
		s.classes[c.ID] = &c
	}
	return s
}

func (s *fakeStore) ListUpcoming(ctx context.Context, from time.Time) ([]model.FitnessClass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.FitnessClass
	for _, c := range s.classes {
		if !c.StartTime.Before(from) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (s *fakeStore) Book(ctx context.Context, classID int64, clientName, clientEmail string, now time.Time) (*model.Booking, *model.FitnessClass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bookErr != nil {
		return nil, nil, s.bookErr
	}
	cls, ok := s.classes[classID]
	if !ok {
		return nil, nil, repository.ErrClassNotFound
	}
	if cls.AvailableSlots <= 0 {
		return nil, nil, repository.ErrNoSlots
	}
	for _, b := range s.bookings {
		if b.FitnessClassID == classID && b.ClientEmail == clientEmail {
			return nil, nil, repository.ErrDuplicateBooking
		}
	}

	s.nextID++
	booking := model.Booking{
		ID:             s.nextID,
		FitnessClassID: classID,
		ClientName:     clientName,
		ClientEmail:    clientEmail,
		CreatedAt:      now,
	}
	s.bookings = append(s.bookings, booking)
	cls.AvailableSlots--

	snapshot := *cls
	return &booking, &snapshot, nil
}

func (s *fakeStore) ListByEmail(ctx context.Context, clientEmail string) ([]model.BookingWithClass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.BookingWithClass
	for _, b := range s.bookings {
		if b.ClientEmail != clientEmail {
			continue
		}
		cls := s.classes[b.FitnessClassID]
		out = append(out, model.BookingWithClass{
			Booking:             b,
			ClassName:           cls.Name,
			ClassInstructor:     cls.Instructor,
			ClassAvailableSlots: cls.AvailableSlots,
		})
	}
	return out, nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func yogaClass() model.FitnessClass {
	return model.FitnessClass{
		ID:             1,
		Name:           "Yoga",
		Instructor:     "Alice",
		StartTime:      time.Date(2025, 6, 15, 2, 30, 0, 0, time.UTC),
		TotalSlots:     5,
		AvailableSlots: 5,
	}
}

func TestBookingService_Book(t *testing.T) {
	t.Parallel()

	makeSvc := func(store *fakeStore) *BookingService {
		return NewBookingService(store, clock.NewFixed(testNow), time.UTC)
	}

	t.Run("creates booking and decrements snapshot", func(t *testing.T) {
		store := newFakeStore(yogaClass())
		svc := makeSvc(store)

		receipt, err := svc.Book(context.Background(), model.BookRequest{
			ClassID:     1,
			ClientName:  "John Doe",
			ClientEmail: "j@example.com",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if receipt.BookingID == 0 {
			t.Fatalf("expected booking id to be set")
		}
		if receipt.ClassName != "Yoga" || receipt.ClassInstructor != "Alice" {
			t.Fatalf("unexpected class snapshot: %+v", receipt)
		}
		if receipt.Class.AvailableSlots != 4 {
			t.Fatalf("expected 4 remaining slots, got %d", receipt.Class.AvailableSlots)
		}
		if receipt.CreatedAt != "2025-06-01 12:00:00" {
			t.Fatalf("unexpected created_at %q", receipt.CreatedAt)
		}
		if store.classes[1].AvailableSlots != 4 {
			t.Fatalf("expected store counter 4, got %d", store.classes[1].AvailableSlots)
		}
	})

	t.Run("missing fields fail before storage", func(t *testing.T) {
		tests := []struct {
			name string
			req  model.BookRequest
		}{
			{name: "no class id", req: model.BookRequest{ClientName: "John Doe", ClientEmail: "j@example.com"}},
			{name: "no name", req: model.BookRequest{ClassID: 1, ClientEmail: "j@example.com"}},
			{name: "blank name", req: model.BookRequest{ClassID: 1, ClientName: "   ", ClientEmail: "j@example.com"}},
			{name: "no email", req: model.BookRequest{ClassID: 1, ClientName: "John Doe"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				store := newFakeStore(yogaClass())
				svc := makeSvc(store)

				_, err := svc.Book(context.Background(), tt.req)
				if !errors.Is(err, ErrMissingFields) {
					t.Fatalf("expected ErrMissingFields, got %v", err)
				}
				if len(store.bookings) != 0 || store.classes[1].AvailableSlots != 5 {
					t.Fatalf("store touched on validation failure")
				}
			})
		}
	})

	t.Run("invalid email fails before storage", func(t *testing.T) {
		store := newFakeStore(yogaClass())
		svc := makeSvc(store)

		_, err := svc.Book(context.Background(), model.BookRequest{
			ClassID:     1,
			ClientName:  "John Doe",
			ClientEmail: "not-an-email",
		})
		if !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail, got %v", err)
		}
		if len(store.bookings) != 0 {
			t.Fatalf("store touched on validation failure")
		}
	})

	t.Run("email is normalised", func(t *testing.T) {
		store := newFakeStore(yogaClass())
		svc := makeSvc(store)

		receipt, err := svc.Book(context.Background(), model.BookRequest{
			ClassID:     1,
			ClientName:  "John Doe",
			ClientEmail: "  J@Example.COM ",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if receipt.ClientEmail != "j@example.com" {
			t.Fatalf("expected normalised email, got %q", receipt.ClientEmail)
		}
	})

	t.Run("duplicate booking", func(t *testing.T) {
		store := newFakeStore(yogaClass())
		svc := makeSvc(store)
		req := model.BookRequest{ClassID: 1, ClientName: "John Doe", ClientEmail: "j@example.com"}

		if _, err := svc.Book(context.Background(), req); err != nil {
			t.Fatalf("first booking failed: %v", err)
		}
		_, err := svc.Book(context.Background(), req)
		if !errors.Is(err, repository.ErrDuplicateBooking) {
			t.Fatalf("expected ErrDuplicateBooking, got %v", err)
		}
		if store.classes[1].AvailableSlots != 4 {
			t.Fatalf("duplicate attempt changed counter: %d", store.classes[1].AvailableSlots)
		}
	})

	t.Run("exhausted class never goes negative", func(t *testing.T) {
		cls := yogaClass()
		cls.AvailableSlots = 0
		store := newFakeStore(cls)
		svc := makeSvc(store)

		_, err := svc.Book(context.Background(), model.BookRequest{
			ClassID: 1, ClientName: "John Doe", ClientEmail: "j@example.com",
		})
		if !errors.Is(err, repository.ErrNoSlots) {
			t.Fatalf("expected ErrNoSlots, got %v", err)
		}
		if store.classes[1].AvailableSlots != 0 {
			t.Fatalf("counter went below zero: %d", store.classes[1].AvailableSlots)
		}
	})

	t.Run("unknown class", func(t *testing.T) {
		store := newFakeStore(yogaClass())
		svc := makeSvc(store)

		_, err := svc.Book(context.Background(), model.BookRequest{
			ClassID: 999, ClientName: "John Doe", ClientEmail: "j@example.com",
		})
		if !errors.Is(err, repository.ErrClassNotFound) {
			t.Fatalf("expected ErrClassNotFound, got %v", err)
		}
	})
}

func TestBookingService_ConcurrentBookings(t *testing.T) {
	t.Parallel()

	store := newFakeStore(yogaClass())
	svc := NewBookingService(store, clock.NewFixed(testNow), time.UTC)

	const attempts = 12 // more than twice the 5 available slots
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = svc.Book(context.Background(), model.BookRequest{
				ClassID:     1,
				ClientName:  fmt.Sprintf("Client %d", n),
				ClientEmail: fmt.Sprintf("client%d@example.com", n),
			})
		}(i)
	}
	wg.Wait()

	var succeeded, exhausted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, repository.ErrNoSlots):
			exhausted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 5 {
		t.Fatalf("expected exactly 5 successful bookings, got %d", succeeded)
	}
	if exhausted != attempts-5 {
		t.Fatalf("expected %d exhausted attempts, got %d", attempts-5, exhausted)
	}
	if store.classes[1].AvailableSlots != 0 {
		t.Fatalf("expected 0 remaining slots, got %d", store.classes[1].AvailableSlots)
	}
	if len(store.bookings) != 5 {
		t.Fatalf("expected 5 booking rows, got %d", len(store.bookings))
	}
}

func TestClassService_ListUpcoming(t *testing.T) {
	t.Parallel()

	past := model.FitnessClass{ID: 9, Name: "Old", Instructor: "Gone", StartTime: testNow.Add(-time.Hour), TotalSlots: 5, AvailableSlots: 5}
	zumba := model.FitnessClass{ID: 2, Name: "Zumba", Instructor: "Bob", StartTime: time.Date(2025, 6, 15, 4, 30, 0, 0, time.UTC), TotalSlots: 8, AvailableSlots: 8}
	store := newFakeStore(yogaClass(), zumba, past)
	svc := NewClassService(store, clock.NewFixed(testNow), clock.DefaultZone)

	t.Run("orders ascending and converts to requested zone", func(t *testing.T) {
		views, err := svc.ListUpcoming(context.Background(), "UTC")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(views) != 2 {
			t.Fatalf("expected 2 upcoming classes, got %d", len(views))
		}
		if views[0].Name != "Yoga" || views[1].Name != "Zumba" {
			t.Fatalf("unexpected order: %+v", views)
		}
		if views[0].StartTime != "2025-06-15 02:30:00" {
			t.Fatalf("unexpected start time %q", views[0].StartTime)
		}
	})

	t.Run("defaults to the configured zone", func(t *testing.T) {
		views, err := svc.ListUpcoming(context.Background(), "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		// 02:30 UTC is 08:00 in Asia/Kolkata.
		if views[0].StartTime != "2025-06-15 08:00:00" {
			t.Fatalf("unexpected start time %q", views[0].StartTime)
		}
	})

	t.Run("unknown timezone", func(t *testing.T) {
		_, err := svc.ListUpcoming(context.Background(), "Mars/Olympus")
		if !errors.Is(err, clock.ErrUnknownTimezone) {
			t.Fatalf("expected ErrUnknownTimezone, got %v", err)
		}
	})

	t.Run("repeated reads are identical", func(t *testing.T) {
		first, err := svc.ListUpcoming(context.Background(), "UTC")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		second, err := svc.ListUpcoming(context.Background(), "UTC")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(first) != len(second) {
			t.Fatalf("result changed between reads: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Fatalf("result changed between reads at %d: %+v vs %+v", i, first[i], second[i])
			}
		}
	})
}

func TestBookingQueryService_ListByEmail(t *testing.T) {
	t.Parallel()

	store := newFakeStore(yogaClass())
	booker := NewBookingService(store, clock.NewFixed(testNow), time.UTC)
	if _, err := booker.Book(context.Background(), model.BookRequest{
		ClassID: 1, ClientName: "John Doe", ClientEmail: "j@example.com",
	}); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	svc := NewBookingQueryService(store, time.UTC)

	t.Run("returns bookings for the email", func(t *testing.T) {
		views, err := svc.ListByEmail(context.Background(), "j@example.com")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(views) != 1 {
			t.Fatalf("expected 1 booking, got %d", len(views))
		}
		if views[0].FitnessClass != 1 || views[0].ClientName != "John Doe" {
			t.Fatalf("unexpected view: %+v", views[0])
		}
		if views[0].CreatedAt != "2025-06-01 12:00:00" {
			t.Fatalf("unexpected created_at %q", views[0].CreatedAt)
		}
	})

	t.Run("no matches is an empty result, not an error", func(t *testing.T) {
		views, err := svc.ListByEmail(context.Background(), "nobody@example.com")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(views) != 0 {
			t.Fatalf("expected empty result, got %d", len(views))
		}
	})

	t.Run("malformed email", func(t *testing.T) {
		if _, err := svc.ListByEmail(context.Background(), "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail, got %v", err)
		}
	})
}
