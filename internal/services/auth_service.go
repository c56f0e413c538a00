package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/snagadev/workspace-api/internal/codes"
	"github.com/snagadev/workspace-api/internal/constants"
	"github.com/snagadev/workspace-api/internal/mailer"
	"github.com/snagadev/workspace-api/internal/models"
	"github.com/snagadev/workspace-api/internal/repository"
	"github.com/snagadev/workspace-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrThrottled            = errors.New("a code was requested too recently")
	ErrInvalidCode          = errors.New("invalid or expired code")
	ErrInvalidInviteToken   = errors.New("invalid or expired invite token")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles registration, login, password reset and invite
// activation.
type AuthService struct {
	userRepo  repository.UserRepository
	codeStore *codes.Store
	invites   *codes.InviteStore
	mail      mailer.Mailer
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, codeStore *codes.Store, invites *codes.InviteStore, mail mailer.Mailer) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		codeStore: codeStore,
		invites:   invites,
		mail:      mail,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Register creates a new active user.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:        email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user. Inactive
// users (invited but never activated, or deactivated) cannot log in.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(utils.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput holds optional profile fields to change.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
}

// UpdateProfile applies partial profile changes.
func (s *AuthService) UpdateProfile(id uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// RequestPasswordReset issues a one-time code and mails it to the user.
// At most one code per contact per throttle window; delivery is
// fire-and-forget.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	ok, err := s.codeStore.CanIssue(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check throttle: %w", err)
	}
	if !ok {
		return ErrThrottled
	}

	code, err := s.codeStore.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	if err := s.codeStore.StoreCode(ctx, user.ID, code); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	if err := s.mail.Send(ctx, user.Email, mailer.TemplatePasswordReset, map[string]any{"code": code}); err != nil {
		log.Printf("Failed to send password reset email to %s: %v", user.Email, err)
	}

	return nil
}

// CheckResetCode validates a code without consuming it, for the
// intermediate UI step before the final password submit.
func (s *AuthService) CheckResetCode(ctx context.Context, email, code string) error {
	user, err := s.userRepo.FindByEmail(utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	ok, err := s.codeStore.Peek(ctx, user.ID, code)
	if err != nil {
		return fmt.Errorf("failed to check code: %w", err)
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

// ConfirmPasswordReset consumes the code and sets the new password.
// A locked-out or expired code answers exactly like a wrong one.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.FindByEmail(utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	ok, err := s.codeStore.Verify(ctx, user.ID, code)
	if err != nil {
		return fmt.Errorf("failed to verify code: %w", err)
	}
	if !ok {
		return ErrInvalidCode
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// SetPasswordFromInvite activates an invited user: the token from the
// invite email is exchanged for the right to set the first password.
func (s *AuthService) SetPasswordFromInvite(ctx context.Context, token, password string) (*models.User, error) {
	if len(password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	userID, ok, err := s.invites.Consume(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invite token: %w", err)
	}
	if !ok {
		return nil, ErrInvalidInviteToken
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user.PasswordHash = string(hashedPassword)
	user.IsActive = true
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}
	return user, nil
}
