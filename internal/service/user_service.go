package service

import (
	"context"
	"mime/multipart"

	"unnest/internal/middleware"
	"unnest/internal/models"
	"unnest/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	media    *MediaService
}

type UpdateAccountInput struct {
	UserID   uint
	Username string
	Email    string
	Bio      string
	// Picture is optional; when set it replaces the avatar.
	Picture *multipart.FileHeader
}

func NewUserService(userRepo repository.UserRepository, media *MediaService) *UserService {
	return &UserService{userRepo: userRepo, media: media}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetUserByUsername returns a not-found error when nobody has username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// UpdateAccount applies a validated profile edit. A new picture is stored
// before the row is written; the previous file is left in place.
func (s *UserService) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Picture != nil {
		filename, err := s.media.Save(ctx, MediaProfile, in.Picture)
		if err != nil {
			return nil, err
		}
		user.ImageFile = filename
	}

	user.Username = in.Username
	user.Email = in.Email
	user.AboutAuthor = in.Bio

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "account updated", "user_id", user.ID)
	return user, nil
}
