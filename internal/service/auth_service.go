package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bookreview/internal/auth"
	apperrors "bookreview/internal/errors"
	"bookreview/internal/logger"
	"bookreview/internal/metrics"
	"bookreview/internal/model"
	"bookreview/internal/repository"
)

const bcryptCost = 10

// AuthService handles signup, login and bearer token resolution.
type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
	Logout(ctx context.Context, identity *auth.Identity) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStore
	log        logger.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStore, log logger.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		log:        log.WithFields(map[string]interface{}{"component": "auth_service"}),
	}
}

// Signup registers a user with a bcrypt-hashed password. The returned user never
// carries the hash.
func (s *authService) Signup(ctx context.Context, username, email, password string) (*model.User, error) {
	existing, err := s.userRepo.FindByUsernameOrEmail(ctx, username, email)
	if err == nil && existing != nil {
		metrics.RecordSignup(metrics.OutcomeConflict)
		return nil, apperrors.ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RecordSignup(metrics.OutcomeError)
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		metrics.RecordSignup(metrics.OutcomeError)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same username or email.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.RecordSignup(metrics.OutcomeConflict)
			return nil, apperrors.ErrUserAlreadyExists
		}
		metrics.RecordSignup(metrics.OutcomeError)
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.RecordSignup(metrics.OutcomeSuccess)
	s.log.Info("user signed up", map[string]interface{}{"user_id": user.ID})

	return &model.User{ID: user.ID, Username: user.Username, Email: user.Email}, nil
}

// Login verifies credentials and issues an access token. Unknown email and wrong
// password fail identically.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordLogin(metrics.OutcomeRejected)
			return "", apperrors.ErrInvalidCredentials
		}
		metrics.RecordLogin(metrics.OutcomeError)
		return "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.RecordLogin(metrics.OutcomeRejected)
		return "", apperrors.ErrInvalidCredentials
	}

	token, _, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		metrics.RecordLogin(metrics.OutcomeError)
		return "", fmt.Errorf("generate access token: %w", err)
	}

	metrics.RecordLogin(metrics.OutcomeSuccess)
	return token, nil
}

// Authenticate resolves a bearer token into the calling user.
func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	if token == "" {
		return nil, apperrors.ErrMissingToken
	}

	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	revoked, err := s.tokenStore.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTokenUserNotFound
		}
		return nil, fmt.Errorf("find token user: %w", err)
	}

	identity := &auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// Logout revokes the caller's token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, identity *auth.Identity) error {
	if identity == nil {
		return apperrors.ErrMissingToken
	}

	ttl := time.Until(identity.ExpiresAt)
	if err := s.tokenStore.Revoke(ctx, identity.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	metrics.RecordTokenRevoked()
	s.log.Info("token revoked", map[string]interface{}{"user_id": identity.UserID, "jti": identity.TokenID})
	return nil
}
