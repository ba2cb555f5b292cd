package validation

import (
	"context"
	"mime/multipart"
	"strings"

	"unnest/internal/models"
)

// RegistrationForm is the sign-up form.
type RegistrationForm struct {
	Username        string `form:"username" validate:"notblank,min=2,max=20"`
	Email           string `form:"email" validate:"notblank,email"`
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// Validate checks the tags, then that username and email are unused.
func (f *RegistrationForm) Validate(ctx context.Context, users UserLookup) (Errors, error) {
	errs, err := check(f)
	if err != nil {
		return nil, err
	}
	if err := checkUnique(ctx, users, errs, f.Username, f.Email, 0); err != nil {
		return nil, err
	}
	return errs, nil
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `form:"email" validate:"notblank,email"`
	Password string `form:"password" validate:"required"`
	// Remember holds the raw checkbox value; browsers send "on", "y" or "true".
	Remember string `form:"remember"`
}

// RememberMe reports whether the checkbox was ticked.
func (f *LoginForm) RememberMe() bool {
	switch strings.ToLower(f.Remember) {
	case "on", "y", "yes", "true", "1":
		return true
	default:
		return false
	}
}

// Validate checks the tags.
func (f *LoginForm) Validate() (Errors, error) {
	return check(f)
}

// UpdateAccountForm edits the logged-in author's profile.
type UpdateAccountForm struct {
	Username string                `form:"username" validate:"notblank,min=2,max=20"`
	Email    string                `form:"email" validate:"notblank,email"`
	Bio      string                `form:"bio" validate:"max=1000"`
	Picture  *multipart.FileHeader `form:"-" validate:"-"`
}

// Validate checks the tags, the picture extension, and that a changed
// username or email is not used by another author.
func (f *UpdateAccountForm) Validate(ctx context.Context, users UserLookup, current *models.User) (Errors, error) {
	errs, err := check(f)
	if err != nil {
		return nil, err
	}
	checkImage(errs, "picture", f.Picture)

	username, email := f.Username, f.Email
	if username == current.Username {
		username = ""
	}
	if email == current.Email {
		email = ""
	}
	if err := checkUnique(ctx, users, errs, username, email, current.ID); err != nil {
		return nil, err
	}
	return errs, nil
}

// PostForm creates or edits a post.
type PostForm struct {
	Title        string                `form:"title" validate:"notblank,max=100"`
	Introduction string                `form:"introduction" validate:"notblank"`
	Content      string                `form:"content" validate:"notblank"`
	Category     string                `form:"category" validate:"required,oneof=Python SQL Concepts Other"`
	ImageTitle   string                `form:"image_title" validate:"notblank,max=120"`
	Image        *multipart.FileHeader `form:"-" validate:"-"`
}

// Validate checks the tags and the image extension.
func (f *PostForm) Validate() (Errors, error) {
	errs, err := check(f)
	if err != nil {
		return nil, err
	}
	checkImage(errs, "image", f.Image)
	return errs, nil
}

// checkUnique skips a field that is empty or already failed, so a value is
// never reported as both malformed and taken.
func checkUnique(ctx context.Context, users UserLookup, errs Errors, username, email string, excludeID uint) error {
	if username != "" && !errs.Has("username") {
		taken, err := users.ExistsUsername(ctx, username, excludeID)
		if err != nil {
			return err
		}
		if taken {
			errs.Add("username", MsgUsernameUsed)
		}
	}
	if email != "" && !errs.Has("email") {
		taken, err := users.ExistsEmail(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			errs.Add("email", MsgEmailUsed)
		}
	}
	return nil
}
