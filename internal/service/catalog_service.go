package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/delivery_slots/internal/apperr"
	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/Freeeeeet/delivery_slots/internal/repository/base"
	"go.uber.org/zap"
)

// CatalogService manages a partner's recurring time-slot inventory.
type CatalogService struct {
	partners PartnerStore
	slots    SlotStore
	bookings BookingStore
	logger   *zap.Logger
}

func NewCatalogService(partners PartnerStore, slots SlotStore, bookings BookingStore, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		partners: partners,
		slots:    slots,
		bookings: bookings,
		logger:   logger,
	}
}

// callerPartner resolves the profile owned by the caller. Only
// partner-role callers may manage slots, and only their own.
func (s *CatalogService) callerPartner(ctx context.Context, caller model.Identity) (*model.Partner, error) {
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

	return partner, nil
}

// CreateSlot adds a recurring weekly slot to the caller's inventory.
// A capacity of zero is allowed and leaves the slot disabled. Duplicate
// definitions for the same day and labels are permitted.
func (s *CatalogService) CreateSlot(ctx context.Context, caller model.Identity, dayOfWeek, startTime, endTime string, maxCapacity int) (*model.TimeSlot, error) {
	partner, err := s.callerPartner(ctx, caller)
	if err != nil {
		return nil, err
	}

	if dayOfWeek == "" || startTime == "" || endTime == "" {
		return nil, apperr.InvalidInput("all slot fields are required")
	}
	if maxCapacity < 0 {
		return nil, apperr.InvalidInput("max capacity must not be negative")
	}

	slot := &model.TimeSlot{
		PartnerID:   partner.ID,
		DayOfWeek:   dayOfWeek,
		StartTime:   startTime,
		EndTime:     endTime,
		MaxCapacity: maxCapacity,
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info("Time slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("partner_id", partner.ID),
		zap.String("day", dayOfWeek),
		zap.Int("max_capacity", maxCapacity),
	)

	return slot, nil
}

// DeleteSlot removes a slot from the caller's inventory. Any dependent
// booking, on any date and in any status, blocks the deletion.
func (s *CatalogService) DeleteSlot(ctx context.Context, caller model.Identity, slotID int64) error {
	partner, err := s.callerPartner(ctx, caller)
	if err != nil {
		return err
	}

	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("lookup slot: %w", err)
	}
	if slot == nil || slot.PartnerID != partner.ID {
		return apperr.NotFound("slot not found")
	}

	has, err := s.bookings.ExistsForSlot(ctx, slotID)
	if err != nil {
		return fmt.Errorf("check bookings: %w", err)
	}
	if has {
		return apperr.Conflict("cannot delete slot with existing bookings")
	}

	if err := s.slots.Delete(ctx, slotID); err != nil {
		// a booking inserted after the check above trips the FK
		if base.IsForeignKeyViolation(err) {
			return apperr.Conflict("cannot delete slot with existing bookings")
		}
		return fmt.Errorf("delete slot: %w", err)
	}

	s.logger.Info("Time slot deleted",
		zap.Int64("slot_id", slotID),
		zap.Int64("partner_id", partner.ID),
	)

	return nil
}

// ListSlots returns the caller's own slot inventory.
func (s *CatalogService) ListSlots(ctx context.Context, caller model.Identity) ([]*model.TimeSlot, error) {
	partner, err := s.callerPartner(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.slots.GetByPartnerID(ctx, partner.ID)
}
