package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/delivery_slots/internal/apperr"
	"github.com/Freeeeeet/delivery_slots/internal/auth"
	"github.com/Freeeeeet/delivery_slots/internal/model"
	"github.com/Freeeeeet/delivery_slots/internal/notify"
	"github.com/Freeeeeet/delivery_slots/internal/repository/base"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// IdentityService owns accounts: registration, authentication, password
// changes and resets, and the admin account operations.
type IdentityService struct {
	accounts     AccountStore
	partners     PartnerStore
	bookings     BookingStore
	sender       notify.Sender
	resetTokens  *auth.ResetTokens
	resetURLBase string
	logger       *zap.Logger
}

func NewIdentityService(
	accounts AccountStore,
	partners PartnerStore,
	bookings BookingStore,
	sender notify.Sender,
	resetTokens *auth.ResetTokens,
	resetURLBase string,
	logger *zap.Logger,
) *IdentityService {
	return &IdentityService{
		accounts:     accounts,
		partners:     partners,
		bookings:     bookings,
		sender:       sender,
		resetTokens:  resetTokens,
		resetURLBase: resetURLBase,
		logger:       logger,
	}
}

// Register creates a self-service account. A partner registration also
// creates the partner profile in the same transaction, named after the
// username with the registration email as contact address.
func (s *IdentityService) Register(ctx context.Context, username, email, password, role string) (*model.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" {
		return nil, apperr.InvalidInput("username and email are required")
	}

	parsedRole, err := model.ParseRole(role)
	if err != nil || parsedRole == model.RoleAdmin {
		return nil, apperr.InvalidInput("invalid role")
	}

	if existing, err := s.accounts.GetByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if existing != nil {
		return nil, apperr.Conflict("that username is taken")
	}

	if existing, err := s.accounts.GetByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if existing != nil {
		return nil, apperr.Conflict("that email is taken")
	}

	if err := ValidatePassword(password, username, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		Username:     username,
		Email:        &email,
		PasswordHash: string(hash),
		Role:         parsedRole,
	}

	if parsedRole == model.RolePartner {
		partner := &model.Partner{
			PlatformName: username,
			ContactEmail: &email,
		}
		err = s.accounts.CreateWithPartner(ctx, account, partner)
	} else {
		err = s.accounts.Create(ctx, account)
	}
	if err != nil {
		// a concurrent signup can slip past the pre-checks
		if base.IsUniqueViolation(err) {
			return nil, apperr.Conflict("that username is taken")
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("Account registered",
		zap.Int64("account_id", account.ID),
		zap.String("username", username),
		zap.String("role", string(parsedRole)),
	)

	return account, nil
}

// Authenticate resolves the identifier first as an email
// (case-insensitive), then as a username, and verifies the password.
func (s *IdentityService) Authenticate(ctx context.Context, identifier, password string) (*model.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.ToLower(identifier))
	if err != nil {
		return nil, fmt.Errorf("lookup by email: %w", err)
	}
	if account == nil {
		account, err = s.accounts.GetByUsername(ctx, identifier)
		if err != nil {
			return nil, fmt.Errorf("lookup by username: %w", err)
		}
	}

	if account == nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	return account, nil
}

// ChangePassword requires username, email and old password to all match
// the stored account. Failures are reported with a single generic
// message so the failing field is not revealed.
func (s *IdentityService) ChangePassword(ctx context.Context, username, email, oldPassword, newPassword string) error {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}

	match := account != nil &&
		account.Email != nil &&
		strings.EqualFold(*account.Email, email) &&
		bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(oldPassword)) == nil

	if !match {
		return apperr.InvalidInput("invalid username, email, or password")
	}

	if err := ValidatePassword(newPassword, account.Username, *account.Email); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePasswordHash(ctx, account.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("Password changed", zap.Int64("account_id", account.ID))
	return nil
}

// RequestPasswordReset issues a reset token for the account behind the
// email and mails the reset link. Delivery is best effort: a mail
// failure is logged but does not fail the request.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.accounts.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if account == nil || account.Email == nil {
		return apperr.NotFound("no account found with that email")
	}

	token, err := s.resetTokens.Issue(account.ID)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	body := fmt.Sprintf(
		"To reset your password, visit the following link: %s/%s\n\n"+
			"If you did not make this request then simply ignore this email.",
		s.resetURLBase, token,
	)

	if err := s.sender.Send(ctx, *account.Email, "Password Reset Request", body); err != nil {
		s.logger.Warn("Reset mail delivery failed",
			zap.Int64("account_id", account.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("Password reset requested", zap.Int64("account_id", account.ID))
	return nil
}

// ResetPassword sets a new password for the account named by a valid
// reset token. Only the minimum-length rule applies here.
func (s *IdentityService) ResetPassword(ctx context.Context, token, newPassword string) error {
	accountID, err := s.resetTokens.Verify(token)
	if err != nil {
		return apperr.InvalidInput("invalid or expired token")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if account == nil {
		return apperr.InvalidInput("invalid or expired token")
	}

	if len(newPassword) < passwordMinLength {
		return apperr.InvalidInput("password must be at least 8 characters long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePasswordHash(ctx, account.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("Password reset completed", zap.Int64("account_id", account.ID))
	return nil
}

// CreatePartnerAccount is the admin path for provisioning a partner: an
// account plus a profile whose display name the admin picks directly.
func (s *IdentityService) CreatePartnerAccount(ctx context.Context, caller model.Identity, platformName, contactEmail, username, password string) (*model.Account, error) {
	if caller.Role != model.RoleAdmin {
		return nil, apperr.Forbidden("admin access required")
	}

	platformName = strings.TrimSpace(platformName)
	username = strings.TrimSpace(username)
	if platformName == "" || username == "" || password == "" {
		return nil, apperr.InvalidInput("platform name, username, and password are required")
	}

	if existing, err := s.accounts.GetByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if existing != nil {
		return nil, apperr.Conflict("username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		Username:     username,
		PasswordHash: string(hash),
		Role:         model.RolePartner,
	}
	partner := &model.Partner{PlatformName: platformName}
	if contact := strings.ToLower(strings.TrimSpace(contactEmail)); contact != "" {
		partner.ContactEmail = &contact
	}

	if err := s.accounts.CreateWithPartner(ctx, account, partner); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, apperr.Conflict("username already exists")
		}
		return nil, fmt.Errorf("create partner account: %w", err)
	}

	s.logger.Info("Partner account created",
		zap.Int64("account_id", account.ID),
		zap.String("platform", platformName),
		zap.Int64("admin_id", caller.AccountID),
	)

	return account, nil
}

// DeleteAccount removes an account, cascading to its partner profile and
// that profile's slots. Deletion is blocked while any booking still
// references the account or its partner profile.
func (s *IdentityService) DeleteAccount(ctx context.Context, caller model.Identity, accountID int64) error {
	if caller.Role != model.RoleAdmin {
		return apperr.Forbidden("admin access required")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if account == nil {
		return apperr.NotFound("account not found")
	}

	if has, err := s.bookings.ExistsForAccount(ctx, accountID); err != nil {
		return fmt.Errorf("check bookings: %w", err)
	} else if has {
		return apperr.Conflict("cannot delete account with existing bookings")
	}

	partner, err := s.partners.GetByAccountID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("lookup partner profile: %w", err)
	}
	if partner != nil {
		if has, err := s.bookings.ExistsForPartner(ctx, partner.ID); err != nil {
			return fmt.Errorf("check partner bookings: %w", err)
		} else if has {
			return apperr.Conflict("cannot delete account with existing bookings")
		}
	}

	if err := s.accounts.DeleteCascade(ctx, accountID); err != nil {
		// a booking inserted after the checks above trips the FK
		if base.IsForeignKeyViolation(err) {
			return apperr.Conflict("cannot delete account with existing bookings")
		}
		return fmt.Errorf("delete account: %w", err)
	}

	s.logger.Info("Account deleted",
		zap.Int64("account_id", accountID),
		zap.Int64("admin_id", caller.AccountID),
	)

	return nil
}

// SetRole changes an account's role within the closed role set.
func (s *IdentityService) SetRole(ctx context.Context, caller model.Identity, accountID int64, role string) error {
	if caller.Role != model.RoleAdmin {
		return apperr.Forbidden("admin access required")
	}

	parsedRole, err := model.ParseRole(role)
	if err != nil {
		return apperr.InvalidInput("invalid role")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	if account == nil {
		return apperr.NotFound("account not found")
	}

	if err := s.accounts.UpdateRole(ctx, accountID, parsedRole); err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	s.logger.Info("Role updated",
		zap.Int64("account_id", accountID),
		zap.String("role", string(parsedRole)),
		zap.Int64("admin_id", caller.AccountID),
	)

	return nil
}

// ListAccounts returns every account, for the admin dashboard.
func (s *IdentityService) ListAccounts(ctx context.Context, caller model.Identity) ([]*model.Account, error) {
	if caller.Role != model.RoleAdmin {
		return nil, apperr.Forbidden("admin access required")
	}
	return s.accounts.List(ctx)
}

// ListPartners returns every partner profile ordered by display name.
func (s *IdentityService) ListPartners(ctx context.Context) ([]*model.Partner, error) {
	return s.partners.List(ctx)
}

// GetAccount resolves an account by id, or nil when absent.
func (s *IdentityService) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// EnsureAdmin provisions the bootstrap admin account at startup when the
// configured username does not exist yet.
func (s *IdentityService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	existing, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		Username:     username,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	s.logger.Info("Bootstrap admin account created", zap.String("username", username))
	return nil
}
