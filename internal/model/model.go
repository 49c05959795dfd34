// Package model defines the core domain types for the fitness class
// booking system.
package model

import "time"

// FitnessClass represents a scheduled class with a fixed number of slots.
// StartTime is stored as an absolute instant; timezone rendering happens
// at the read path.
type FitnessClass struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Instructor     string    `json:"instructor"`
	StartTime      time.Time `json:"start_time"`
	TotalSlots     int       `json:"total_slots"`
	AvailableSlots int       `json:"available_slots"`
}

// IsFull returns true when no slots remain.
func (c *FitnessClass) IsFull() bool {
	return c.AvailableSlots <= 0
}

// Booked returns the number of slots already taken.
func (c *FitnessClass) Booked() int {
	return c.TotalSlots - c.AvailableSlots
}

// Booking represents a client's claim on one slot of a class.
// A (class, email) pair holds at most one booking; rows are never
// mutated after creation.
type Booking struct {
	ID             int64     `json:"id"`
	FitnessClassID int64     `json:"fitness_class_id"`
	ClientName     string    `json:"client_name"`
	ClientEmail    string    `json:"client_email"`
	CreatedAt      time.Time `json:"created_at"`
}

// BookingWithClass is a booking joined with a read-time snapshot of its
// class (name, instructor, remaining slots as of the query).
type BookingWithClass struct {
	Booking
	ClassName           string
	ClassInstructor     string
	ClassAvailableSlots int
}

// ClassView is a class annotated with its start time rendered in the
// requested timezone, as returned by the listing endpoint.
type ClassView struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Instructor     string `json:"instructor"`
	StartTime      string `json:"start_time"`
	AvailableSlots int    `json:"available_slots"`
}

// BookRequest is the payload for creating a booking.
type BookRequest struct {
	ClassID     int64  `json:"class_id" validate:"required"`
	ClientName  string `json:"client_name" validate:"required"`
	ClientEmail string `json:"client_email" validate:"required,email"`
}

// ClassSummary is the nested class block in a booking receipt,
// carrying the post-decrement slot count.
type ClassSummary struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	AvailableSlots int    `json:"available_slots"`
}

// BookingReceipt is the confirmation returned after a successful booking.
type BookingReceipt struct {
	BookingID       int64        `json:"booking_id"`
	ClientName      string       `json:"client_name"`
	ClientEmail     string       `json:"client_email"`
	ClassName       string       `json:"fitness_class_name"`
	ClassInstructor string       `json:"fitness_class_instructor"`
	CreatedAt       string       `json:"created_at"`
	Class           ClassSummary `json:"fitness_class"`
}

// BookingView is a booking as returned by the query endpoint. The
// FitnessClass field carries the class id; CreatedAt is rendered in the
// service's default timezone.
type BookingView struct {
	ID           int64  `json:"id"`
	FitnessClass int64  `json:"fitness_class"`
	ClientName   string `json:"client_name"`
	ClientEmail  string `json:"client_email"`
	CreatedAt    string `json:"created_at"`
}

// ErrorResponse is the generic JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
