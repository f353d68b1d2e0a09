// Package session implements the server-side session cookie: a signed JWT
// carrying the remote auth provider's opaque token pair. The cookie is the
// only place the tokens persist between requests; its contents stay opaque to
// everything but the identity resolver.
package session

import (
	"errors"
	"fmt"
	"time"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName is the session cookie's name.
	CookieName = "quill_session"

	issuer   = "quill"
	lifetime = 7 * 24 * time.Hour
)

// ErrNoSession is returned when the request carries no usable session cookie.
var ErrNoSession = errors.New("no session")

// Manager issues and reads session cookies.
type Manager struct {
	secret []byte
	secure bool
}

// NewManager creates a session manager signing with the given secret.
// secure controls the cookie's Secure attribute.
func NewManager(secret string, secure bool) *Manager {
	return &Manager{secret: []byte(secret), secure: secure}
}

// Issue signs the token pair into a session cookie on the response.
func (m *Manager) Issue(c *fiber.Ctx, pair models.TokenPair) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": issuer,
		"iat": now.Unix(),
		"exp": now.Add(lifetime).Unix(),
		"at":  pair.AccessToken,
		"rt":  pair.RefreshToken,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("signing session cookie: %w", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    signed,
		Expires:  now.Add(lifetime),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return nil
}

// Read extracts the token pair from the request's session cookie.
// Missing, malformed, tampered, or expired cookies return ErrNoSession.
func (m *Manager) Read(c *fiber.Ctx) (models.TokenPair, error) {
	raw := c.Cookies(CookieName)
	if raw == "" {
		return models.TokenPair{}, ErrNoSession
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return models.TokenPair{}, ErrNoSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.TokenPair{}, ErrNoSession
	}
	access, _ := claims["at"].(string)
	refresh, _ := claims["rt"].(string)

	pair := models.TokenPair{AccessToken: access, RefreshToken: refresh}
	if !pair.Valid() {
		return models.TokenPair{}, ErrNoSession
	}
	return pair, nil
}

// Clear expires the session cookie on the response.
func (m *Manager) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}
