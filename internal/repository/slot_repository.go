package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/Freeeeeet/delivery_slots/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// Create inserts a new time slot.
func (r *SlotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	query := `
		INSERT INTO time_slots (partner_id, day_of_week, start_time, end_time, max_capacity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.pool.QueryRow(
		ctx, query,
		slot.PartnerID,
		slot.DayOfWeek,
		slot.StartTime,
		slot.EndTime,
		slot.MaxCapacity,
	).Scan(&slot.ID)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID returns the slot with the given id, or nil.
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.TimeSlot, error) {
	query := `
		SELECT id, partner_id, day_of_week, start_time, end_time, max_capacity
		FROM time_slots
		WHERE id = $1
	`

	var slot model.TimeSlot
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&slot.ID,
		&slot.PartnerID,
		&slot.DayOfWeek,
		&slot.StartTime,
		&slot.EndTime,
		&slot.MaxCapacity,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return &slot, nil
}

// GetByPartnerID returns all slots belonging to a partner.
func (r *SlotRepository) GetByPartnerID(ctx context.Context, partnerID int64) ([]*model.TimeSlot, error) {
	query := `
		SELECT id, partner_id, day_of_week, start_time, end_time, max_capacity
		FROM time_slots
		WHERE partner_id = $1
		ORDER BY id ASC
	`

	return r.query(ctx, query, partnerID)
}

// GetByPartnerAndDay returns a partner's slots recurring on the given
// weekday name.
func (r *SlotRepository) GetByPartnerAndDay(ctx context.Context, partnerID int64, dayOfWeek string) ([]*model.TimeSlot, error) {
	query := `
		SELECT id, partner_id, day_of_week, start_time, end_time, max_capacity
		FROM time_slots
		WHERE partner_id = $1 AND day_of_week = $2
		ORDER BY id ASC
	`

	return r.query(ctx, query, partnerID, dayOfWeek)
}

func (r *SlotRepository) query(ctx context.Context, query string, args ...any) ([]*model.TimeSlot, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.TimeSlot
	for rows.Next() {
		var slot model.TimeSlot
		err := rows.Scan(
			&slot.ID,
			&slot.PartnerID,
			&slot.DayOfWeek,
			&slot.StartTime,
			&slot.EndTime,
			&slot.MaxCapacity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}

// Delete removes a slot.
func (r *SlotRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM time_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("slot not found")
	}

	return nil
}
