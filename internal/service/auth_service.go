// Package service holds the application's use cases. Handlers call services;
// services call repositories and never see HTTP types.
package service

import (
	"context"
	"crypto/rand"
	"fmt"

	"unnest/internal/middleware"
	"unnest/internal/models"
	"unnest/internal/observability"
	"unnest/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// LoginFailedMessage is shown for every failed login, whatever the cause.
const LoginFailedMessage = "Login Unsuccessful. Please check email and password"

type AuthService struct {
	userRepo repository.UserRepository
	cost     int
	// dummyHash keeps unknown-email logins as slow as wrong-password ones.
	dummyHash []byte
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func NewAuthService(userRepo repository.UserRepository, cost int) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	s := &AuthService{userRepo: userRepo, cost: cost}

	seed := make([]byte, 16)
	_, _ = rand.Read(seed)
	s.dummyHash, _ = bcrypt.GenerateFromPassword(seed, cost)
	return s
}

// HashPassword returns the bcrypt hash of plain.
func (s *AuthService) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches hash.
func (s *AuthService) CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Register creates an account with the default avatar and bio. Uniqueness is
// checked by the form first; a race that slips past it surfaces as a field
// error from the repository.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email and password are required")
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:    in.Username,
		Email:       in.Email,
		Password:    hash,
		ImageFile:   models.DefaultProfileImage,
		AboutAuthor: models.DefaultAboutAuthor,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate returns the user for a correct email and password. Unknown
// email and wrong password fail identically.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, s.loginFailed(ctx)
	}
	if !s.CheckPassword(user.Password, password) {
		return nil, s.loginFailed(ctx)
	}
	return user, nil
}

func (s *AuthService) loginFailed(ctx context.Context) error {
	observability.LoginFailures.Inc()
	middleware.Logger.InfoContext(ctx, "login failed")
	return models.NewUnauthorizedError(LoginFailedMessage)
}
