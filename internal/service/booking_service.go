package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/delivery_slots/internal/apperr"
	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/Freeeeeet/delivery_slots/internal/repository"
	"github.com/Freeeeeet/delivery_slots/internal/repository/base"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// BookingService allocates slot capacity: availability queries and
// booking creation against the shared ledger.
type BookingService struct {
	partners PartnerStore
	slots    SlotStore
	bookings BookingStore
	logger   *zap.Logger

	// countCancelled keeps cancelled bookings counted against
	// capacity, the ledger's historical behavior.
	countCancelled bool
	maxRetries     uint64
}

func NewBookingService(
	partners PartnerStore,
	slots SlotStore,
	bookings BookingStore,
	countCancelled bool,
	maxRetries int,
	logger *zap.Logger,
) *BookingService {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &BookingService{
		partners:       partners,
		slots:          slots,
		bookings:       bookings,
		countCancelled: countCancelled,
		maxRetries:     uint64(maxRetries),
		logger:         logger,
	}
}

// DateOnly truncates t to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ListAvailability returns the partner's slots recurring on the
// requested date's weekday that still have room on that date, with the
// remaining capacity for each.
func (s *BookingService) ListAvailability(ctx context.Context, partnerID int64, date time.Time) ([]model.SlotAvailability, error) {
	partner, err := s.partners.GetByID(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("lookup partner: %w", err)
	}
	if partner == nil {
		return nil, apperr.NotFound("partner not found")
	}

	date = DateOnly(date)
	slots, err := s.slots.GetByPartnerAndDay(ctx, partner.ID, date.Weekday().String())
	if err != nil {
		return nil, fmt.Errorf("get slots: %w", err)
	}

	available := make([]model.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		count, err := s.bookings.CountForSlotDate(ctx, slot.ID, date, s.countCancelled)
		if err != nil {
			return nil, fmt.Errorf("count bookings: %w", err)
		}
		if count < slot.MaxCapacity {
			available = append(available, model.SlotAvailability{
				SlotID:            slot.ID,
				StartTime:         slot.StartTime,
				EndTime:           slot.EndTime,
				AvailableCapacity: slot.MaxCapacity - count,
			})
		}
	}

	return available, nil
}

// CreateBookingInput carries one booking request.
type CreateBookingInput struct {
	PartnerID    int64
	TimeSlotID   int64
	Date         time.Time
	OrderIDText  string
	CollegeRegNo string
	Name         string
	Phone        string
	Type         string
}

// Create books a slot for the caller. The capacity check is performed
// before field validation, matching the request flow the ledger has
// always had, and then re-checked atomically inside the reserving
// transaction. Transient transaction conflicts are retried a bounded
// number of times before surfacing as Conflict.
func (s *BookingService) Create(ctx context.Context, caller model.Identity, in CreateBookingInput) (*model.Booking, error) {
	partner, err := s.partners.GetByID(ctx, in.PartnerID)
	if err != nil {
		return nil, fmt.Errorf("lookup partner: %w", err)
	}
	if partner == nil {
		return nil, apperr.NotFound("partner not found")
	}

	slot, err := s.slots.GetByID(ctx, in.TimeSlotID)
	if err != nil {
		return nil, fmt.Errorf("lookup slot: %w", err)
	}
	if slot == nil || slot.PartnerID != partner.ID {
		return nil, apperr.InvalidInput("invalid time slot selection")
	}

	date := DateOnly(in.Date)
	count, err := s.bookings.CountForSlotDate(ctx, slot.ID, date, s.countCancelled)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	if count >= slot.MaxCapacity {
		return nil, apperr.Conflict("selected time slot is full")
	}

	if in.OrderIDText == "" || in.CollegeRegNo == "" || in.Name == "" || in.Phone == "" || in.Type == "" {
		return nil, apperr.InvalidInput("all fields are required")
	}
	bookingType, err := model.ParseBookingType(in.Type)
	if err != nil {
		return nil, apperr.InvalidInput("invalid booking type")
	}

	booking := &model.Booking{
		AccountID:     caller.AccountID,
		PartnerID:     partner.ID,
		TimeSlotID:    slot.ID,
		OrderPlatform: partner.PlatformName,
		OrderIDText:   in.OrderIDText,
		CollegeRegNo:  in.CollegeRegNo,
		Name:          in.Name,
		Phone:         in.Phone,
		Type:          bookingType,
		Status:        model.BookingStatusBooked,
		BookingDate:   date,
	}

	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewFibonacci(10*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.bookings.Reserve(ctx, booking, s.countCancelled)
		if err != nil && base.IsSerializationFailure(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotFull):
			return nil, apperr.Conflict("selected time slot is full")
		case errors.Is(err, repository.ErrSlotMissing):
			return nil, apperr.InvalidInput("invalid time slot selection")
		case base.IsSerializationFailure(err):
			return nil, apperr.Wrap(apperr.KindConflict, "selected time slot is contended, try again", err)
		default:
			return nil, fmt.Errorf("reserve booking: %w", err)
		}
	}

	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("account_id", caller.AccountID),
		zap.Int64("slot_id", slot.ID),
		zap.String("date", date.Format("2006-01-02")),
		zap.String("platform", partner.PlatformName),
	)

	return booking, nil
}

// ListOwn returns the caller's bookings, newest first.
func (s *BookingService) ListOwn(ctx context.Context, caller model.Identity) ([]*model.Booking, error) {
	return s.bookings.GetByAccountID(ctx, caller.AccountID)
}

// ListForPartner returns the bookings referencing the caller's partner
// profile, newest first.
func (s *BookingService) ListForPartner(ctx context.Context, caller model.Identity) ([]*model.Booking, error) {
	if caller.Role != model.RolePartner {
		return nil, apperr.Forbidden("partner access required")
	}

	partner, err := s.partners.GetByAccountID(ctx, caller.AccountID)
	if err != nil {
		return nil, fmt.Errorf("lookup partner profile: %w", err)
	}
	if partner == nil {
		return nil, apperr.NotFound("partner profile not found")
	}

	return s.bookings.GetByPartnerID(ctx, partner.ID)
}

// ListAll returns every booking, for the admin dashboard.
func (s *BookingService) ListAll(ctx context.Context, caller model.Identity) ([]*model.Booking, error) {
	if caller.Role != model.RoleAdmin {
		return nil, apperr.Forbidden("admin access required")
	}
	return s.bookings.List(ctx)
}

// UpdateStatus moves a booking from Booked to Completed or Cancelled.
// Admins may update any booking; partners only those referencing their
// own profile.
func (s *BookingService) UpdateStatus(ctx context.Context, caller model.Identity, bookingID int64, status string) error {
	target, err := model.ParseBookingStatus(status)
	if err != nil || target == model.BookingStatusBooked {
		return apperr.InvalidInput("invalid status")
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("lookup booking: %w", err)
	}
	if booking == nil {
		return apperr.NotFound("booking not found")
	}

	switch caller.Role {
	case model.RoleAdmin:
		// any booking
	case model.RolePartner:
		partner, err := s.partners.GetByAccountID(ctx, caller.AccountID)
		if err != nil {
			return fmt.Errorf("lookup partner profile: %w", err)
		}
		if partner == nil || booking.PartnerID != partner.ID {
			return apperr.Forbidden("no permission to update this booking")
		}
	default:
		return apperr.Forbidden("no permission to update this booking")
	}

	if booking.Status != model.BookingStatusBooked {
		return apperr.Conflict("booking is not active")
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, target); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	s.logger.Info("Booking status updated",
		zap.Int64("booking_id", bookingID),
		zap.String("status", string(target)),
		zap.Int64("caller_id", caller.AccountID),
	)

	return nil
}

// ParseDate parses a YYYY-MM-DD date string; an empty string defaults to
// the current server date. Strings are trimmed first.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateOnly(time.Now()), nil
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperr.InvalidInput("invalid date, expected YYYY-MM-DD")
	}

	return DateOnly(t), nil
}
