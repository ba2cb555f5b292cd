package repository

import (
	"context"
	"errors"

	"unnest/internal/models"

	"gorm.io/gorm"
)

const (
	usernameTakenMessage = "That username is taken, please choose a different one."
	emailTakenMessage    = "That email is taken, please choose a different one."
)

// UserRepository defines persistence operations for users. Accounts are never deleted.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByEmail and GetByUsername return (nil, nil) when no user matches.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// ExistsUsername and ExistsEmail ignore the user with excludeID (0 excludes nobody).
	ExistsUsername(ctx context.Context, username string, excludeID uint) (bool, error)
	ExistsEmail(ctx context.Context, email string, excludeID uint) (bool, error)
	Create(ctx context.Context, user *models.User) error
	// Update writes the editable profile columns: username, email, about_author and image_file.
	Update(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (user *models.User, err error) {
	ctx, done := instrument(ctx, r.db, "GetUserByID", "user")
	defer func() { done(err) }()

	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "GetUserByEmail", "email = ?", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "GetUserByUsername", "username = ?", username)
}

func (r *userRepository) findOne(ctx context.Context, method, query string, arg string) (user *models.User, err error) {
	ctx, done := instrument(ctx, r.db, method, "user")
	defer func() { done(err) }()

	var u models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &u, nil
}

func (r *userRepository) ExistsUsername(ctx context.Context, username string, excludeID uint) (bool, error) {
	return r.exists(ctx, "ExistsUsername", "username = ?", username, excludeID)
}

func (r *userRepository) ExistsEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	return r.exists(ctx, "ExistsEmail", "email = ?", email, excludeID)
}

func (r *userRepository) exists(ctx context.Context, method, query, arg string, excludeID uint) (found bool, err error) {
	ctx, done := instrument(ctx, r.db, method, "user")
	defer func() { done(err) }()

	q := r.db.WithContext(ctx).Model(&models.User{}).Where(query, arg)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, done := instrument(ctx, r.db, "CreateUser", "user")
	defer func() { done(err) }()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateUserWriteError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) (err error) {
	ctx, done := instrument(ctx, r.db, "UpdateUser", "user")
	defer func() { done(err) }()

	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"username":     user.Username,
			"email":        user.Email,
			"about_author": user.AboutAuthor,
			"image_file":   user.ImageFile,
		})
	if res.Error != nil {
		return translateUserWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", user.ID)
	}
	return nil
}

// translateUserWriteError turns a unique violation that slipped past the
// form checks (a concurrent registration) into the same field error the
// form would have shown.
func translateUserWriteError(err error) error {
	column, ok := uniqueViolation(err)
	if !ok {
		return models.NewInternalError(err)
	}
	switch column {
	case "username":
		return models.NewFieldError("username", usernameTakenMessage)
	case "email":
		return models.NewFieldError("email", emailTakenMessage)
	default:
		return models.NewValidationError("User already exists")
	}
}
