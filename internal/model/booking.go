package model

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "Booked"
	BookingStatusCompleted BookingStatus = "Completed"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

// ParseBookingStatus validates a raw status string.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case BookingStatusBooked, BookingStatusCompleted, BookingStatusCancelled:
		return BookingStatus(s), nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

type BookingType string

const (
	BookingTypePickup BookingType = "Pickup"
	BookingTypeReturn BookingType = "Return"
)

// ParseBookingType validates a raw type string.
func ParseBookingType(s string) (BookingType, error) {
	switch BookingType(s) {
	case BookingTypePickup, BookingTypeReturn:
		return BookingType(s), nil
	}
	return "", fmt.Errorf("unknown booking type %q", s)
}

// Booking is one reservation of a time slot for a calendar date.
type Booking struct {
	ID            int64         `json:"id"`
	AccountID     int64         `json:"account_id"`
	PartnerID     int64         `json:"partner_id"`
	TimeSlotID    int64         `json:"time_slot_id"`
	OrderPlatform string        `json:"order_platform"` // denormalized partner display name
	OrderIDText   string        `json:"order_id_text"`
	CollegeRegNo  string        `json:"college_reg_no"`
	Name          string        `json:"name"`
	Phone         string        `json:"phone"`
	Type          BookingType   `json:"type"`
	Status        BookingStatus `json:"status"`
	BookingDate   time.Time     `json:"booking_date"` // date only, midnight UTC
	CreatedAt     time.Time     `json:"created_at"`
}
