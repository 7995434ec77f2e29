package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/delivery_slots/internal/apperr"
	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/Freeeeeet/delivery_slots/internal/service/servicetest"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type catalogFixture struct {
	stores  *servicetest.Stores
	svc     *CatalogService
	partner *model.Partner
	ident   model.Identity
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	ctx := context.Background()
	stores := servicetest.New()

	owner := &model.Account{Username: "amazon_manager", PasswordHash: "x", Role: model.RolePartner}
	partner := &model.Partner{PlatformName: "Amazon"}
	require.NoError(t, stores.Accounts().CreateWithPartner(ctx, owner, partner))

	return &catalogFixture{
		stores:  stores,
		svc:     NewCatalogService(stores.Partners(), stores.Slots(), stores.Bookings(), zap.NewNop()),
		partner: partner,
		ident:   model.Identity{AccountID: owner.ID, Role: model.RolePartner},
	}
}

func TestCreateSlot(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	slot, err := f.svc.CreateSlot(ctx, f.ident, "Monday", "9:00 AM", "9:30 AM", 5)
	require.NoError(t, err)
	assert.Equal(t, f.partner.ID, slot.PartnerID)
	assert.Equal(t, 5, slot.MaxCapacity)

	// duplicate definitions are allowed
	_, err = f.svc.CreateSlot(ctx, f.ident, "Monday", "9:00 AM", "9:30 AM", 5)
	assert.NoError(t, err)

	// zero capacity defines a disabled slot
	_, err = f.svc.CreateSlot(ctx, f.ident, "Tuesday", "10:00 AM", "10:30 AM", 0)
	assert.NoError(t, err)

	_, err = f.svc.CreateSlot(ctx, f.ident, "Monday", "", "9:30 AM", 5)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

	_, err = f.svc.CreateSlot(ctx, f.ident, "Monday", "9:00 AM", "9:30 AM", -1)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

	slots, err := f.svc.ListSlots(ctx, f.ident)
	require.NoError(t, err)
	assert.Len(t, slots, 3)
}

func TestCreateSlotRequiresPartnerRole(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	student := model.Identity{AccountID: 99, Role: model.RoleUser}
	_, err := f.svc.CreateSlot(ctx, student, "Monday", "9:00 AM", "9:30 AM", 5)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	// partner role without a profile row
	orphan := model.Identity{AccountID: 98, Role: model.RolePartner}
	_, err = f.svc.CreateSlot(ctx, orphan, "Monday", "9:00 AM", "9:30 AM", 5)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDeleteSlot(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	slot, err := f.svc.CreateSlot(ctx, f.ident, "Monday", "9:00 AM", "9:30 AM", 5)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSlot(ctx, f.ident, slot.ID))

	slots, err := f.svc.ListSlots(ctx, f.ident)
	require.NoError(t, err)
	assert.Empty(t, slots)

	err = f.svc.DeleteSlot(ctx, f.ident, slot.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDeleteSlotBlockedByBookings(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	slot, err := f.svc.CreateSlot(ctx, f.ident, "Monday", "9:00 AM", "9:30 AM", 5)
	require.NoError(t, err)

	booking := &model.Booking{
		AccountID:   42,
		PartnerID:   f.partner.ID,
		TimeSlotID:  slot.ID,
		Status:      model.BookingStatusCancelled,
		BookingDate: DateOnly(time.Now()),
	}
	require.NoError(t, f.stores.Bookings().Reserve(ctx, booking, true))

	// even a cancelled booking pins the slot
	err = f.svc.DeleteSlot(ctx, f.ident, slot.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

// fkFailingSlotStore simulates a delete that loses the race with a
// concurrent booking insert and hits the foreign key.
type fkFailingSlotStore struct {
	*servicetest.SlotStore
}

func (s *fkFailingSlotStore) Delete(context.Context, int64) error {
	return &pgconn.PgError{Code: "23503"}
}

func TestDeleteSlotForeignKeyRace(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	slot, err := f.svc.CreateSlot(ctx, f.ident, "Monday", "9:00 AM", "9:30 AM", 5)
	require.NoError(t, err)

	svc := NewCatalogService(
		f.stores.Partners(),
		&fkFailingSlotStore{f.stores.Slots()},
		f.stores.Bookings(),
		zap.NewNop(),
	)

	err = svc.DeleteSlot(ctx, f.ident, slot.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestDeleteSlotOfOtherPartner(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	slot, err := f.svc.CreateSlot(ctx, f.ident, "Monday", "9:00 AM", "9:30 AM", 5)
	require.NoError(t, err)

	otherOwner := &model.Account{Username: "flipkart_manager", PasswordHash: "x", Role: model.RolePartner}
	otherPartner := &model.Partner{PlatformName: "Flipkart"}
	require.NoError(t, f.stores.Accounts().CreateWithPartner(ctx, otherOwner, otherPartner))

	otherIdent := model.Identity{AccountID: otherOwner.ID, Role: model.RolePartner}
	err = f.svc.DeleteSlot(ctx, otherIdent, slot.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
