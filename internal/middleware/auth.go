package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionCookieName is the cookie carrying the session token for browser clients.
const SessionCookieName = "bizzy_session"

// BearerToken returns the token from an "Authorization: Bearer <token>"
// header, or "" when the header is missing or malformed.
func BearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// SessionToken returns the caller's token. The Authorization header wins
// over the session cookie.
func SessionToken(c *fiber.Ctx) string {
	if tok := BearerToken(c); tok != "" {
		return tok
	}
	return strings.TrimSpace(c.Cookies(SessionCookieName))
}

// UserID returns the authenticated user ID stored by the auth middleware.
func UserID(c *fiber.Ctx) (string, bool) {
	uid, ok := c.Locals("userID").(string)
	return uid, ok && uid != ""
}
