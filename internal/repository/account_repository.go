package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/Freeeeeet/delivery_slots/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Role,
	).Scan(&account.ID, &account.CreatedAt)

	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

// CreateWithPartner inserts an account and its partner profile in one
// transaction, so a partner-role account never exists without a profile.
func (r *AccountRepository) CreateWithPartner(ctx context.Context, account *model.Account, partner *model.Partner) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(
		ctx,
		`INSERT INTO accounts (username, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Role,
	).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	partner.AccountID = account.ID
	err = tx.QueryRow(
		ctx,
		`INSERT INTO partners (platform_name, contact_email, account_id)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		partner.PlatformName,
		partner.ContactEmail,
		partner.AccountID,
	).Scan(&partner.ID)
	if err != nil {
		return fmt.Errorf("create partner profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID returns the account with the given id, or nil.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByUsername returns the account with the given username, or nil.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

// GetByEmail returns the account with the given email, or nil. The
// caller is expected to lowercase the email first.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getOne(ctx, `WHERE lower(email) = $1`, email)
}

func (r *AccountRepository) getOne(ctx context.Context, where string, arg any) (*model.Account, error) {
	query := `
		SELECT id, username, email, password_hash, role, created_at
		FROM accounts
	` + where

	var account model.Account
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	return &account, nil
}

// List returns all accounts ordered by id.
func (r *AccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	query := `
		SELECT id, username, email, password_hash, role, created_at
		FROM accounts
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		var account model.Account
		err := rows.Scan(
			&account.ID,
			&account.Username,
			&account.Email,
			&account.PasswordHash,
			&account.Role,
			&account.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// UpdatePasswordHash replaces the credential hash.
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	result, err := r.pool.Exec(ctx, `UPDATE accounts SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account not found")
	}
	return nil
}

// UpdateRole replaces the role tag.
func (r *AccountRepository) UpdateRole(ctx context.Context, id int64, role model.Role) error {
	result, err := r.pool.Exec(ctx, `UPDATE accounts SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account not found")
	}
	return nil
}

// DeleteCascade removes an account together with its partner profile and
// that profile's time slots, children first, in one transaction. The
// caller is responsible for checking dependent bookings beforehand.
func (r *AccountRepository) DeleteCascade(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := deleteAccountTree(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func deleteAccountTree(ctx context.Context, q base.Querier, id int64) error {
	var partnerID int64
	err := q.QueryRow(ctx, `SELECT id FROM partners WHERE account_id = $1`, id).Scan(&partnerID)
	switch {
	case base.IsNotFound(err):
		// no profile to cascade
	case err != nil:
		return fmt.Errorf("find partner profile: %w", err)
	default:
		if _, err := q.Exec(ctx, `DELETE FROM time_slots WHERE partner_id = $1`, partnerID); err != nil {
			return fmt.Errorf("delete time slots: %w", err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM partners WHERE id = $1`, partnerID); err != nil {
			return fmt.Errorf("delete partner profile: %w", err)
		}
	}

	result, err := q.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account not found")
	}

	return nil
}
