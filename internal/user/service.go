package user

import (
	"context"
	"strings"

	"ai-doc-authoring/auth"
	"ai-doc-authoring/internal/domain"
	"ai-doc-authoring/internal/errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Service defines the interface for user business logic
type Service interface {
	Register(ctx context.Context, user *domain.User) error
	// Login checks the credentials and opens a session; it returns the signed access token.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Logout(ctx context.Context, sessionID string) error
	GetUserByID(ctx context.Context, id uint64) (*domain.User, error)
}

// DefaultService implements Service with bcrypt password hashes and Redis-backed sessions.
type DefaultService struct {
	repository UserRepository
	issuer     *auth.Issuer
	sessions   *auth.Sessions
	logger     zerolog.Logger
}

// NewService creates a new user service
func NewService(repository UserRepository, issuer *auth.Issuer, sessions *auth.Sessions, logger zerolog.Logger) Service {
	return &DefaultService{
		repository: repository,
		issuer:     issuer,
		sessions:   sessions,
		logger:     logger,
	}
}

// Register normalizes the email, hashes the password and stores the user.
// An email that is already taken is a validation error.
func (s *DefaultService) Register(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Name = strings.TrimSpace(user.Name)
	if user.Name == "" {
		return errors.Validation("name is required", nil)
	}

	_, err := s.repository.FindByEmail(ctx, user.Email)
	if err == nil {
		return errors.Validation("User already registered", nil)
	}
	if !errors.IsKind(err, errors.KindNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Validation("Password cannot be used", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.Password = ""
	user.IsActive = true

	if err := s.repository.Create(ctx, user); err != nil {
		return err
	}
	s.logger.Info().Uint64("user_id", user.ID).Msg("user registered")
	return nil
}

func (s *DefaultService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.repository.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.IsKind(err, errors.KindNotFound) {
			return nil, "", errors.Unauthorized("Wrong email or password", err)
		}
		return nil, "", err
	}
	if !user.IsActive {
		return nil, "", errors.Unauthorized("User is not active", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", errors.Unauthorized("Wrong email or password", err)
	}

	token, claims, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, "", errors.Internal(err)
	}
	if err := s.sessions.Save(ctx, claims); err != nil {
		return nil, "", errors.Storage("Cannot open session", err)
	}

	s.logger.Info().Uint64("user_id", user.ID).Str("session_id", claims.ID).Msg("user logged in")
	return user, token, nil
}

func (s *DefaultService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return errors.Storage("Cannot close session", err)
	}
	return nil
}

func (s *DefaultService) GetUserByID(ctx context.Context, id uint64) (*domain.User, error) {
	return s.repository.FindByID(ctx, id)
}
