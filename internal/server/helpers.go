package server

import (
	"errors"
	"mime/multipart"
	"strconv"

	"unnest/internal/middleware"
	"unnest/internal/models"
	"unnest/internal/validation"

	"github.com/gofiber/fiber/v2"
)

var errorPages = map[int][2]string{
	fiber.StatusBadRequest:            {"Bad request (400)", "The submitted data could not be understood."},
	fiber.StatusForbidden:             {"You don't have permission to do that (403)", "Please check your account and try again."},
	fiber.StatusNotFound:              {"Oops. Page Not Found (404)", "That page does not exist. Please try a different location."},
	fiber.StatusRequestEntityTooLarge: {"Upload too large (413)", "Please choose a smaller image."},
	fiber.StatusTooManyRequests:       {"Slow down (429)", "Too many requests, please try again later."},
	fiber.StatusInternalServerError:   {"Something went wrong (500)", "We're experiencing some trouble on our end. Please try again in the near future."},
}

// ErrorHandler renders every error that escapes a handler as an HTML page.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err.Error(),
		)
	}

	text, ok := errorPages[status]
	if !ok {
		text = [2]string{fiber.ErrInternalServerError.Message, ""}
		if fe != nil {
			text[0] = fe.Message
		}
	}

	data := &HTMLData{Title: text[0], Heading: text[0], Subheading: text[1]}
	if renderErr := s.render(c, status, "errors", data); renderErr != nil {
		return c.Status(status).SendString(text[0])
	}
	return nil
}

// parsePage reads ?page=. Anything that is not a positive integer means page 1.
func parsePage(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// parseID reads a numeric route parameter. Anything else is a missing page.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// optionalFile returns the uploaded file for field, or nil when none was sent.
func optionalFile(c *fiber.Ctx, field string) *multipart.FileHeader {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil || fh.Filename == "" {
		return nil
	}
	return fh
}

// fieldError moves a service-level field error into errs so the form can
// be re-rendered. It reports whether err was such an error.
func fieldError(errs validation.Errors, err error) bool {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation || appErr.Field == "" {
		return false
	}
	errs.Add(appErr.Field, appErr.Message)
	return true
}
