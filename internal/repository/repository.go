// Package repository implements all database queries for the booking
// service. It uses pgx directly (no ORM) for transparency and
// performance.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/karan-ksrk/fitness-booking-api/internal/model"
)

// ErrClassNotFound is returned when a referenced class does not exist.
var ErrClassNotFound = errors.New("fitness class not found")

// ErrNoSlots is returned when a class has no remaining capacity.
var ErrNoSlots = errors.New("no available slots")

// ErrDuplicateBooking is returned when the same email books the same
// class twice.
var ErrDuplicateBooking = errors.New("booking already exists")

// ErrLockTimeout is returned when the booking transaction gave up
// waiting for the class row lock.
var ErrLockTimeout = errors.New("lock wait timeout")

const defaultLockTimeout = 5 * time.Second

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}

// ClassRepository handles persistence for fitness classes.
type ClassRepository struct {
	db *pgxpool.Pool
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{db: db}
}

// Create inserts a new class and returns it with its generated id.
func (r *ClassRepository) Create(ctx context.Context, class model.FitnessClass) (*model.FitnessClass, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO fitness_classes (name, instructor, start_time, total_slots, available_slots)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		class.Name, class.Instructor, class.StartTime, class.TotalSlots, class.AvailableSlots,
	).Scan(&class.ID)
	if err != nil {
		return nil, fmt.Errorf("insert class: %w", err)
	}
	return &class, nil
}

// ListUpcoming returns classes starting at or after the given instant,
// ordered by start time with id as a stable tie-break.
func (r *ClassRepository) ListUpcoming(ctx context.Context, from time.Time) ([]model.FitnessClass, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, instructor, start_time, total_slots, available_slots
		 FROM fitness_classes
		 WHERE start_time >= $1
		 ORDER BY start_time, id`,
		from,
	)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var classes []model.FitnessClass
	for rows.Next() {
		var c model.FitnessClass
		if err := rows.Scan(&c.ID, &c.Name, &c.Instructor, &c.StartTime, &c.TotalSlots, &c.AvailableSlots); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// GetByID returns a single class or ErrClassNotFound.
func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*model.FitnessClass, error) {
	var c model.FitnessClass
	err := r.db.QueryRow(ctx,
		`SELECT id, name, instructor, start_time, total_slots, available_slots
		 FROM fitness_classes WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Instructor, &c.StartTime, &c.TotalSlots, &c.AvailableSlots)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("get class: %w", err)
	}
	return &c, nil
}

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db, lockTimeout: defaultLockTimeout}
}

// WithLockTimeout overrides how long Book waits for the class row lock.
func (r *BookingRepository) WithLockTimeout(d time.Duration) *BookingRepository {
	if d > 0 {
		r.lockTimeout = d
	}
	return r
}

// Book performs a concurrency-safe booking inside a single transaction.
//
// Two concurrent requests that both read available_slots before either
// writes would both see free capacity and overbook the class. The row
// lock taken by SELECT ... FOR UPDATE serialises the read-then-write per
// class id: a second booker for the same class blocks until the first
// commits or rolls back, then re-reads the already-decremented counter.
// Bookings for other classes are unaffected.
//
// The duplicate check runs inside the same transaction, and the bookings
// table additionally carries a UNIQUE (fitness_class_id, client_email)
// constraint, so a duplicate that races past the check still surfaces as
// ErrDuplicateBooking rather than a second row.
//
// On success it returns the created booking together with the
// post-decrement class snapshot. On any failure nothing is written.
func (r *BookingRepository) Book(ctx context.Context, classID int64, clientName, clientEmail string, now time.Time) (*model.Booking, *model.FitnessClass, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	// Ensure the transaction is always resolved.
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Bound the lock wait so a stuck booker fails instead of queueing
	// forever. SET LOCAL scopes the setting to this transaction.
	_, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds()))
	if err != nil {
		return nil, nil, fmt.Errorf("set lock timeout: %w", err)
	}

	// Step 1: acquire an exclusive row-level lock on the class.
	var cls model.FitnessClass
	err = tx.QueryRow(ctx,
		`SELECT id, name, instructor, start_time, total_slots, available_slots
		 FROM fitness_classes
		 WHERE id = $1
		 FOR UPDATE`,
		classID,
	).Scan(&cls.ID, &cls.Name, &cls.Instructor, &cls.StartTime, &cls.TotalSlots, &cls.AvailableSlots)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrClassNotFound
			return nil, nil, err
		}
		if isLockNotAvailable(err) {
			err = fmt.Errorf("%w: class %d", ErrLockTimeout, classID)
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("lock class row: %w", err)
	}

	// Step 2: re-check capacity under the lock. Any pre-check done
	// outside the transaction read stale data and is not authoritative.
	if cls.AvailableSlots <= 0 {
		err = ErrNoSlots
		return nil, nil, err
	}

	// Step 3: duplicate check in the same transaction scope.
	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE fitness_class_id = $1 AND client_email = $2)`,
		classID, clientEmail,
	).Scan(&exists)
	if err != nil {
		return nil, nil, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		err = ErrDuplicateBooking
		return nil, nil, err
	}

	// Step 4: create the booking record.
	booking := &model.Booking{
		FitnessClassID: classID,
		ClientName:     clientName,
		ClientEmail:    clientEmail,
		CreatedAt:      now.UTC(),
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO bookings (fitness_class_id, client_name, client_email, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		booking.FitnessClassID, booking.ClientName, booking.ClientEmail, booking.CreatedAt,
	).Scan(&booking.ID)
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicateBooking
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("insert booking: %w", err)
	}

	// Step 5: decrement the counter. The available_slots > 0 guard and
	// the CHECK constraint keep the counter from ever going negative.
	tag, err := tx.Exec(ctx,
		`UPDATE fitness_classes SET available_slots = available_slots - 1 WHERE id = $1 AND available_slots > 0`,
		classID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("decrement available slots: %w", err)
	}
	if tag.RowsAffected() != 1 {
		err = ErrNoSlots
		return nil, nil, err
	}
	cls.AvailableSlots--

	// Step 6: commit, releasing the row lock.
	if err = tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	return booking, &cls, nil
}

// ListByEmail returns all bookings made with the given email, each with
// a read-time snapshot of its class, ordered by creation time.
func (r *BookingRepository) ListByEmail(ctx context.Context, clientEmail string) ([]model.BookingWithClass, error) {
	rows, err := r.db.Query(ctx,
		`SELECT b.id, b.fitness_class_id, b.client_name, b.client_email, b.created_at,
		        c.name, c.instructor, c.available_slots
		 FROM bookings b
		 JOIN fitness_classes c ON c.id = b.fitness_class_id
		 WHERE b.client_email = $1
		 ORDER BY b.created_at, b.id`,
		clientEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.BookingWithClass
	for rows.Next() {
		var b model.BookingWithClass
		if err := rows.Scan(
			&b.ID, &b.FitnessClassID, &b.ClientName, &b.ClientEmail, &b.CreatedAt,
			&b.ClassName, &b.ClassInstructor, &b.ClassAvailableSlots,
		); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
