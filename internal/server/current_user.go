package server

import (
	"context"
	"log/slog"

	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/supabase"

	"github.com/gofiber/fiber/v2"
)

// currentUserKey is the fiber.Locals key holding the resolved identity.
const currentUserKey = "currentUser"

// ResolveCurrentUser returns middleware that resolves the session cookie into
// an identity. It never fails the request: any missing, invalid, or expired
// session yields an absent identity and the chain continues.
//
// When the access token has expired the resolver redeems the refresh token
// and re-issues the session cookie, so the refreshed pair propagates back to
// the browser. The resolved access token is placed on the request context;
// all backend calls made during this request authenticate with it, and no
// shared client state is touched.
func (s *Server) ResolveCurrentUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pair, err := s.sessions.Read(c)
		if err != nil {
			return c.Next()
		}

		user, refreshed, err := s.auth.ResolveIdentity(c.UserContext(), pair)
		if err != nil {
			middleware.Logger.DebugContext(c.UserContext(), "identity resolution failed",
				slog.String("error", err.Error()))
			return c.Next()
		}

		if refreshed != nil {
			pair = *refreshed
			if issueErr := s.sessions.Issue(c, pair); issueErr != nil {
				middleware.Logger.ErrorContext(c.UserContext(), "re-issuing session cookie failed",
					slog.String("error", issueErr.Error()))
			} else {
				observability.SessionRefreshes.Inc()
			}
		}

		c.Locals(currentUserKey, user)
		c.Locals(middleware.LocalUserID, user.ID)

		ctx := supabase.WithAccessToken(c.UserContext(), pair.AccessToken)
		ctx = context.WithValue(ctx, middleware.UserIDKey, user.ID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// currentUser returns the resolved identity for this request, or nil.
func (s *Server) currentUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals(currentUserKey).(*models.User); ok {
		return user
	}
	return nil
}
