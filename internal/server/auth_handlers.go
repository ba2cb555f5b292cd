package server

import (
	"unnest/internal/middleware"
	"unnest/internal/models"
	"unnest/internal/service"
	"unnest/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// RegisterPage handles GET /register
func (s *Server) RegisterPage(c *fiber.Ctx) error {
	return s.renderRegister(c, &validation.RegistrationForm{}, nil)
}

// Register handles POST /register
func (s *Server) Register(c *fiber.Ctx) error {
	var form validation.RegistrationForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	errs, err := form.Validate(c.UserContext(), s.userRepo)
	if err != nil {
		return err
	}
	if errs.Any() {
		return s.renderRegister(c, &form, errs)
	}

	_, err = s.authService.Register(c.UserContext(), service.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		// Lost a race with another sign-up for the same name or address.
		if fieldError(errs, err) {
			return s.renderRegister(c, &form, errs)
		}
		return err
	}

	addFlash(c, "success", "Your account has been created! You are now able to log in.")
	return redirect(c, "/login")
}

func (s *Server) renderRegister(c *fiber.Ctx, form *validation.RegistrationForm, errs validation.Errors) error {
	form.Password, form.ConfirmPassword = "", ""
	return s.render(c, fiber.StatusOK, "register", &HTMLData{Title: "Register", Form: form, Errors: errs})
}

// LoginPage handles GET /login
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.renderLogin(c, &validation.LoginForm{}, nil)
}

// Login handles POST /login
func (s *Server) Login(c *fiber.Ctx) error {
	var form validation.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	errs, err := form.Validate()
	if err != nil {
		return err
	}
	if errs.Any() {
		return s.renderLogin(c, &form, errs)
	}

	user, err := s.authService.Authenticate(c.UserContext(), form.Email, form.Password)
	if err != nil {
		if models.IsCode(err, models.CodeUnauthorized) {
			addFlash(c, "danger", service.LoginFailedMessage)
			return s.renderLogin(c, &form, nil)
		}
		return err
	}

	token, sess, err := s.sessions.Issue(user.ID, form.RememberMe())
	if err != nil {
		return models.NewInternalError(err)
	}
	s.setSessionCookie(c, token, sess)

	next := safeNext(c.Query("next"))
	if next == "" {
		next = "/home"
	}
	return redirect(c, next)
}

func (s *Server) renderLogin(c *fiber.Ctx, form *validation.LoginForm, errs validation.Errors) error {
	form.Password = ""
	return s.render(c, fiber.StatusOK, "login", &HTMLData{Title: "Login", Form: form, Errors: errs})
}

// Logout handles GET /logout. It always succeeds, logged in or not.
func (s *Server) Logout(c *fiber.Ctx) error {
	if sess := currentSession(c); sess != nil {
		if err := s.sessions.Revoke(c.UserContext(), sess); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "session revocation failed", "error", err.Error())
		}
	}
	s.clearSessionCookie(c)
	return redirect(c, "/home")
}
