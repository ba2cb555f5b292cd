package server

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	flashCookie = "unnest_flash"
	localFlash  = "flashes"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// addFlash queues a message for this request. redirect persists the queue
// in a cookie; render shows it directly.
func addFlash(c *fiber.Ctx, category, message string) {
	pending, _ := c.Locals(localFlash).([]Flash)
	c.Locals(localFlash, append(pending, Flash{Category: category, Message: message}))
}

// takeFlashes returns the cookie's messages plus any queued by this request
// and clears the cookie.
func takeFlashes(c *fiber.Ctx) []Flash {
	flashes := readFlashCookie(c)
	if pending, ok := c.Locals(localFlash).([]Flash); ok {
		flashes = append(flashes, pending...)
		c.Locals(localFlash, nil)
	}
	if c.Cookies(flashCookie) != "" {
		c.Cookie(&fiber.Cookie{
			Name:     flashCookie,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return flashes
}

// redirect sends a 302 to location, carrying queued flashes along.
func redirect(c *fiber.Ctx, location string) error {
	pending, _ := c.Locals(localFlash).([]Flash)
	if len(pending) > 0 {
		all := append(readFlashCookie(c), pending...)
		if raw, err := json.Marshal(all); err == nil {
			c.Cookie(&fiber.Cookie{
				Name:     flashCookie,
				Value:    base64.RawURLEncoding.EncodeToString(raw),
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
	}
	return c.Redirect(location, fiber.StatusFound)
}

func readFlashCookie(c *fiber.Ctx) []Flash {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}
