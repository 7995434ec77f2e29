package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/Freeeeeet/delivery_slots/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PartnerRepository struct {
	pool *pgxpool.Pool
}

func NewPartnerRepository(pool *pgxpool.Pool) *PartnerRepository {
	return &PartnerRepository{pool: pool}
}

// GetByID returns the partner profile with the given id, or nil.
func (r *PartnerRepository) GetByID(ctx context.Context, id int64) (*model.Partner, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByAccountID returns the profile owned by the given account, or nil.
func (r *PartnerRepository) GetByAccountID(ctx context.Context, accountID int64) (*model.Partner, error) {
	return r.getOne(ctx, `WHERE account_id = $1`, accountID)
}

func (r *PartnerRepository) getOne(ctx context.Context, where string, arg any) (*model.Partner, error) {
	query := `
		SELECT id, platform_name, contact_email, account_id
		FROM partners
	` + where

	var partner model.Partner
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&partner.ID,
		&partner.PlatformName,
		&partner.ContactEmail,
		&partner.AccountID,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}

	return &partner, nil
}

// List returns all partner profiles ordered by display name.
func (r *PartnerRepository) List(ctx context.Context) ([]*model.Partner, error) {
	query := `
		SELECT id, platform_name, contact_email, account_id
		FROM partners
		ORDER BY platform_name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	var partners []*model.Partner
	for rows.Next() {
		var partner model.Partner
		err := rows.Scan(
			&partner.ID,
			&partner.PlatformName,
			&partner.ContactEmail,
			&partner.AccountID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		partners = append(partners, &partner)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partners: %w", err)
	}

	return partners, nil
}
