package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/delivery_slots/internal/model"
)

// Store interfaces consumed by the services. The pgx repositories in
// internal/repository satisfy them; tests substitute in-memory fakes.

type AccountStore interface {
	Create(ctx context.Context, account *model.Account) error
	CreateWithPartner(ctx context.Context, account *model.Account, partner *model.Partner) error
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	List(ctx context.Context) ([]*model.Account, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	UpdateRole(ctx context.Context, id int64, role model.Role) error
	DeleteCascade(ctx context.Context, id int64) error
}

type PartnerStore interface {
	GetByID(ctx context.Context, id int64) (*model.Partner, error)
	GetByAccountID(ctx context.Context, accountID int64) (*model.Partner, error)
	List(ctx context.Context) ([]*model.Partner, error)
}

type SlotStore interface {
	Create(ctx context.Context, slot *model.TimeSlot) error
	GetByID(ctx context.Context, id int64) (*model.TimeSlot, error)
	GetByPartnerID(ctx context.Context, partnerID int64) ([]*model.TimeSlot, error)
	GetByPartnerAndDay(ctx context.Context, partnerID int64, dayOfWeek string) ([]*model.TimeSlot, error)
	Delete(ctx context.Context, id int64) error
}

type BookingStore interface {
	// Reserve atomically checks remaining capacity for the booking's
	// (slot, date) pair and inserts the row, returning
	// repository.ErrSlotFull when the slot is at capacity.
	Reserve(ctx context.Context, booking *model.Booking, countCancelled bool) error
	CountForSlotDate(ctx context.Context, slotID int64, date time.Time, countCancelled bool) (int, error)
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	GetByAccountID(ctx context.Context, accountID int64) ([]*model.Booking, error)
	GetByPartnerID(ctx context.Context, partnerID int64) ([]*model.Booking, error)
	List(ctx context.Context) ([]*model.Booking, error)
	ExistsForSlot(ctx context.Context, slotID int64) (bool, error)
	ExistsForAccount(ctx context.Context, accountID int64) (bool, error)
	ExistsForPartner(ctx context.Context, partnerID int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) error
}
