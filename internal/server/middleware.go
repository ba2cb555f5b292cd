package server

import (
	"net/url"
	"strings"
	"time"

	"unnest/internal/middleware"
	"unnest/internal/models"
	"unnest/internal/session"

	"github.com/gofiber/fiber/v2"
)

const (
	localUser    = "user"
	localSession = "session"
)

// LoadUser resolves the session cookie into the current author. Requests
// without a valid session continue anonymously.
func (s *Server) LoadUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(session.CookieName)
		if raw == "" {
			return c.Next()
		}

		sess, err := s.sessions.Parse(c.UserContext(), raw)
		if err != nil {
			s.clearSessionCookie(c)
			return c.Next()
		}

		user, err := s.userService.GetUserByID(c.UserContext(), sess.UserID)
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				s.clearSessionCookie(c)
				return c.Next()
			}
			return err
		}

		c.Locals(localUser, user)
		c.Locals(localSession, sess)
		c.Locals(middleware.LocalUserID, user.ID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
		return c.Next()
	}
}

// LoginRequired sends anonymous visitors to the login page, remembering
// where they were going.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) != nil {
			return c.Next()
		}
		addFlash(c, "info", "Please log in to access this page.")
		return redirect(c, "/login?next="+url.QueryEscape(c.OriginalURL()))
	}
}

// GuestOnly keeps logged-in authors away from the login and register forms.
func (s *Server) GuestOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) != nil {
			return redirect(c, "/home")
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

func currentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(localSession).(*session.Session)
	return sess
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string, sess *session.Session) {
	cookie := &fiber.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	// Without "remember" the cookie dies with the browser session.
	if sess.Remember {
		cookie.Expires = sess.ExpiresAt
	} else {
		cookie.SessionOnly = true
	}
	c.Cookie(cookie)
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// safeNext accepts only local paths, so a crafted link cannot bounce a
// fresh login to another site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
