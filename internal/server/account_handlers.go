package server

import (
	"unnest/internal/service"
	"unnest/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AccountPage handles GET /account
func (s *Server) AccountPage(c *fiber.Ctx) error {
	user := currentUser(c)
	form := &validation.UpdateAccountForm{
		Username: user.Username,
		Email:    user.Email,
		Bio:      user.AboutAuthor,
	}
	return s.render(c, fiber.StatusOK, "account", &HTMLData{Title: "Account", Form: form})
}

// UpdateAccount handles POST /account
func (s *Server) UpdateAccount(c *fiber.Ctx) error {
	user := currentUser(c)

	var form validation.UpdateAccountForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	form.Picture = optionalFile(c, "picture")

	errs, err := form.Validate(c.UserContext(), s.userRepo, user)
	if err != nil {
		return err
	}
	if errs.Any() {
		return s.renderAccount(c, &form, errs)
	}

	_, err = s.userService.UpdateAccount(c.UserContext(), service.UpdateAccountInput{
		UserID:   user.ID,
		Username: form.Username,
		Email:    form.Email,
		Bio:      form.Bio,
		Picture:  form.Picture,
	})
	if err != nil {
		if fieldError(errs, err) {
			return s.renderAccount(c, &form, errs)
		}
		return err
	}

	addFlash(c, "success", "Your account has been updated!")
	return redirect(c, "/account")
}

func (s *Server) renderAccount(c *fiber.Ctx, form *validation.UpdateAccountForm, errs validation.Errors) error {
	return s.render(c, fiber.StatusOK, "account", &HTMLData{Title: "Account", Form: form, Errors: errs})
}
