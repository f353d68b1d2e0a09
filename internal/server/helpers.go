package server

import (
	"github.com/gofiber/fiber/v2"

	"quill/internal/models"
)

const listPostsLimit = 50

// render renders a view inside the main layout, injecting the current user.
func (s *Server) render(c *fiber.Ctx, name string, bind fiber.Map) error {
	if bind == nil {
		bind = fiber.Map{}
	}
	if _, ok := bind["CurrentUser"]; !ok {
		bind["CurrentUser"] = s.currentUser(c)
	}
	return c.Render(name, bind, "layouts/main")
}

// renderError renders the error page with the given status.
func (s *Server) renderError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).Render("error", fiber.Map{
		"Status":      status,
		"Message":     message,
		"CurrentUser": s.currentUser(c),
	}, "layouts/main")
}

// requireUser returns the resolved identity or commits an Unauthenticated
// response: page GETs redirect to the login form, everything else gets a 401.
// Callers must stop when ok is false.
func (s *Server) requireUser(c *fiber.Ctx) (*models.User, bool) {
	user := s.currentUser(c)
	if user != nil {
		return user, true
	}

	if c.Method() == fiber.MethodGet {
		_ = c.Redirect("/auth/login", fiber.StatusSeeOther)
	} else {
		_ = models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Login required"))
	}
	return nil, false
}

// respondError maps an application error onto the HTTP taxonomy.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	switch models.ErrorCode(err) {
	case models.CodeUnauthenticated:
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	case models.CodeForbidden:
		return models.RespondWithError(c, fiber.StatusForbidden, err)
	case models.CodeNotFound:
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	case models.CodeValidation:
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	case models.CodeBackendUnavailable:
		return models.RespondWithError(c, fiber.StatusBadGateway, err)
	default:
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
}
