// cmd/seed loads sample classes and bookings into the database for
// local development. Bookings go through the regular booking
// transaction so the slot counters stay consistent with the booking
// rows.
package main

import (
	"context"
	"os"
	"time"

	"github.com/karan-ksrk/fitness-booking-api/internal/clock"
	"github.com/karan-ksrk/fitness-booking-api/internal/database"
	"github.com/karan-ksrk/fitness-booking-api/internal/logger"
	"github.com/karan-ksrk/fitness-booking-api/internal/model"
	"github.com/karan-ksrk/fitness-booking-api/internal/repository"
	"github.com/karan-ksrk/fitness-booking-api/migrations"
)

type sampleBooking struct {
	className   string
	clientName  string
	clientEmail string
}

func main() {
	log := logger.New(logger.Config{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  "text",
		Service: "fitness-booking-seed",
	})

	ctx := context.Background()

	pool, err := database.NewPool(ctx, database.ConfigFromEnv())
	if err != nil {
		log.Fatal("database connect failed", "error", err)
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatal("apply migrations failed", "error", err)
	}

	ist, err := clock.LocationFor(clock.DefaultZone)
	if err != nil {
		log.Fatal("load default zone failed", "error", err)
	}

	classes := []model.FitnessClass{
		{Name: "Yoga", Instructor: "Alice", StartTime: time.Date(2025, 6, 15, 8, 0, 0, 0, ist), TotalSlots: 5, AvailableSlots: 5},
		{Name: "Zumba", Instructor: "Bob", StartTime: time.Date(2025, 6, 15, 10, 0, 0, 0, ist), TotalSlots: 8, AvailableSlots: 8},
		{Name: "HIIT", Instructor: "Charlie", StartTime: time.Date(2025, 6, 16, 7, 0, 0, 0, ist), TotalSlots: 6, AvailableSlots: 6},
	}

	classRepo := repository.NewClassRepository(pool)
	byName := make(map[string]int64, len(classes))
	for _, c := range classes {
		created, err := classRepo.Create(ctx, c)
		if err != nil {
			log.Fatal("insert class failed", "name", c.Name, "error", err)
		}
		byName[created.Name] = created.ID
		log.Info("class created", "id", created.ID, "name", created.Name)
	}

	bookings := []sampleBooking{
		{className: "Yoga", clientName: "John Doe", clientEmail: "VXg9y@example.com"},
		{className: "Zumba", clientName: "Jane Smith", clientEmail: "VXg9y@example.com"},
	}

	bookingRepo := repository.NewBookingRepository(pool)
	clk := clock.NewSystem()
	for _, b := range bookings {
		booking, _, err := bookingRepo.Book(ctx, byName[b.className], b.clientName, b.clientEmail, clk.Now())
		if err != nil {
			log.Fatal("insert booking failed", "class", b.className, "error", err)
		}
		log.Info("booking created", "id", booking.ID, "class", b.className)
	}

	log.Info("sample data added successfully")
}
