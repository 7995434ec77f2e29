// Package servicetest provides in-memory implementations of the service
// store interfaces for tests that should not need a database.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/Freeeeeet/delivery_slots/internal/repository"
)

// Stores is a shared in-memory data set backing all four store fakes.
// A single mutex guards every operation, so Reserve's check-then-insert
// is atomic exactly like the row-locked transaction it stands in for.
type Stores struct {
	mu sync.Mutex

	accounts map[int64]*model.Account
	partners map[int64]*model.Partner
	slots    map[int64]*model.TimeSlot
	bookings map[int64]*model.Booking

	nextID int64
}

func New() *Stores {
	return &Stores{
		accounts: make(map[int64]*model.Account),
		partners: make(map[int64]*model.Partner),
		slots:    make(map[int64]*model.TimeSlot),
		bookings: make(map[int64]*model.Booking),
	}
}

func (s *Stores) id() int64 {
	s.nextID++
	return s.nextID
}

// Accounts / Partners / Slots / Bookings return the store views that the
// service constructors expect.
func (s *Stores) Accounts() *AccountStore { return &AccountStore{s} }
func (s *Stores) Partners() *PartnerStore { return &PartnerStore{s} }
func (s *Stores) Slots() *SlotStore       { return &SlotStore{s} }
func (s *Stores) Bookings() *BookingStore { return &BookingStore{s} }

type AccountStore struct{ s *Stores }

func (a *AccountStore) Create(_ context.Context, account *model.Account) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return a.s.createAccountLocked(account)
}

func (a *AccountStore) CreateWithPartner(_ context.Context, account *model.Account, partner *model.Partner) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if err := a.s.createAccountLocked(account); err != nil {
		return err
	}

	partner.ID = a.s.id()
	partner.AccountID = account.ID
	cp := *partner
	a.s.partners[partner.ID] = &cp
	return nil
}

func (s *Stores) createAccountLocked(account *model.Account) error {
	for _, existing := range s.accounts {
		if existing.Username == account.Username {
			return fmt.Errorf("duplicate username")
		}
		if existing.Email != nil && account.Email != nil && strings.EqualFold(*existing.Email, *account.Email) {
			return fmt.Errorf("duplicate email")
		}
	}

	account.ID = s.id()
	account.CreatedAt = time.Now()
	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

func (a *AccountStore) GetByID(_ context.Context, id int64) (*model.Account, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if account, ok := a.s.accounts[id]; ok {
		cp := *account
		return &cp, nil
	}
	return nil, nil
}

func (a *AccountStore) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	for _, account := range a.s.accounts {
		if account.Username == username {
			cp := *account
			return &cp, nil
		}
	}
	return nil, nil
}

func (a *AccountStore) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	for _, account := range a.s.accounts {
		if account.Email != nil && strings.EqualFold(*account.Email, email) {
			cp := *account
			return &cp, nil
		}
	}
	return nil, nil
}

func (a *AccountStore) List(_ context.Context) ([]*model.Account, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	out := make([]*model.Account, 0, len(a.s.accounts))
	for _, account := range a.s.accounts {
		cp := *account
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *AccountStore) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	account, ok := a.s.accounts[id]
	if !ok {
		return fmt.Errorf("account not found")
	}
	account.PasswordHash = hash
	return nil
}

func (a *AccountStore) UpdateRole(_ context.Context, id int64, role model.Role) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	account, ok := a.s.accounts[id]
	if !ok {
		return fmt.Errorf("account not found")
	}
	account.Role = role
	return nil
}

func (a *AccountStore) DeleteCascade(_ context.Context, id int64) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if _, ok := a.s.accounts[id]; !ok {
		return fmt.Errorf("account not found")
	}

	for pid, partner := range a.s.partners {
		if partner.AccountID != id {
			continue
		}
		for sid, slot := range a.s.slots {
			if slot.PartnerID == pid {
				delete(a.s.slots, sid)
			}
		}
		delete(a.s.partners, pid)
	}

	delete(a.s.accounts, id)
	return nil
}

type PartnerStore struct{ s *Stores }

func (p *PartnerStore) GetByID(_ context.Context, id int64) (*model.Partner, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if partner, ok := p.s.partners[id]; ok {
		cp := *partner
		return &cp, nil
	}
	return nil, nil
}

func (p *PartnerStore) GetByAccountID(_ context.Context, accountID int64) (*model.Partner, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	for _, partner := range p.s.partners {
		if partner.AccountID == accountID {
			cp := *partner
			return &cp, nil
		}
	}
	return nil, nil
}

func (p *PartnerStore) List(_ context.Context) ([]*model.Partner, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	out := make([]*model.Partner, 0, len(p.s.partners))
	for _, partner := range p.s.partners {
		cp := *partner
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlatformName < out[j].PlatformName })
	return out, nil
}

type SlotStore struct{ s *Stores }

func (st *SlotStore) Create(_ context.Context, slot *model.TimeSlot) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	slot.ID = st.s.id()
	cp := *slot
	st.s.slots[slot.ID] = &cp
	return nil
}

func (st *SlotStore) GetByID(_ context.Context, id int64) (*model.TimeSlot, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	if slot, ok := st.s.slots[id]; ok {
		cp := *slot
		return &cp, nil
	}
	return nil, nil
}

func (st *SlotStore) GetByPartnerID(_ context.Context, partnerID int64) ([]*model.TimeSlot, error) {
	return st.list(func(slot *model.TimeSlot) bool { return slot.PartnerID == partnerID })
}

func (st *SlotStore) GetByPartnerAndDay(_ context.Context, partnerID int64, dayOfWeek string) ([]*model.TimeSlot, error) {
	return st.list(func(slot *model.TimeSlot) bool {
		return slot.PartnerID == partnerID && slot.DayOfWeek == dayOfWeek
	})
}

func (st *SlotStore) list(match func(*model.TimeSlot) bool) ([]*model.TimeSlot, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	var out []*model.TimeSlot
	for _, slot := range st.s.slots {
		if match(slot) {
			cp := *slot
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (st *SlotStore) Delete(_ context.Context, id int64) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	if _, ok := st.s.slots[id]; !ok {
		return fmt.Errorf("slot not found")
	}
	delete(st.s.slots, id)
	return nil
}

type BookingStore struct{ s *Stores }

func (b *BookingStore) Reserve(_ context.Context, booking *model.Booking, countCancelled bool) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	slot, ok := b.s.slots[booking.TimeSlotID]
	if !ok {
		return repository.ErrSlotMissing
	}

	if b.s.countLocked(booking.TimeSlotID, booking.BookingDate, countCancelled) >= slot.MaxCapacity {
		return repository.ErrSlotFull
	}

	booking.ID = b.s.id()
	booking.CreatedAt = time.Now()
	cp := *booking
	b.s.bookings[booking.ID] = &cp
	return nil
}

func (s *Stores) countLocked(slotID int64, date time.Time, countCancelled bool) int {
	count := 0
	for _, booking := range s.bookings {
		if booking.TimeSlotID != slotID || !booking.BookingDate.Equal(date) {
			continue
		}
		if !countCancelled && booking.Status == model.BookingStatusCancelled {
			continue
		}
		count++
	}
	return count
}

func (b *BookingStore) CountForSlotDate(_ context.Context, slotID int64, date time.Time, countCancelled bool) (int, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return b.s.countLocked(slotID, date, countCancelled), nil
}

func (b *BookingStore) GetByID(_ context.Context, id int64) (*model.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	if booking, ok := b.s.bookings[id]; ok {
		cp := *booking
		return &cp, nil
	}
	return nil, nil
}

func (b *BookingStore) GetByAccountID(_ context.Context, accountID int64) ([]*model.Booking, error) {
	return b.list(func(booking *model.Booking) bool { return booking.AccountID == accountID })
}

func (b *BookingStore) GetByPartnerID(_ context.Context, partnerID int64) ([]*model.Booking, error) {
	return b.list(func(booking *model.Booking) bool { return booking.PartnerID == partnerID })
}

func (b *BookingStore) List(_ context.Context) ([]*model.Booking, error) {
	return b.list(func(*model.Booking) bool { return true })
}

func (b *BookingStore) list(match func(*model.Booking) bool) ([]*model.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	var out []*model.Booking
	for _, booking := range b.s.bookings {
		if match(booking) {
			cp := *booking
			out = append(out, &cp)
		}
	}
	// newest first, id as tiebreaker like the created_at ordering
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (b *BookingStore) ExistsForSlot(_ context.Context, slotID int64) (bool, error) {
	return b.exists(func(booking *model.Booking) bool { return booking.TimeSlotID == slotID })
}

func (b *BookingStore) ExistsForAccount(_ context.Context, accountID int64) (bool, error) {
	return b.exists(func(booking *model.Booking) bool { return booking.AccountID == accountID })
}

func (b *BookingStore) ExistsForPartner(_ context.Context, partnerID int64) (bool, error) {
	return b.exists(func(booking *model.Booking) bool { return booking.PartnerID == partnerID })
}

func (b *BookingStore) exists(match func(*model.Booking) bool) (bool, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	for _, booking := range b.s.bookings {
		if match(booking) {
			return true, nil
		}
	}
	return false, nil
}

func (b *BookingStore) UpdateStatus(_ context.Context, id int64, status model.BookingStatus) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	booking, ok := b.s.bookings[id]
	if !ok {
		return fmt.Errorf("booking not found")
	}
	booking.Status = status
	return nil
}
