package server

import (
	"log/slog"

	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// validateSignupForm front-runs the auth provider's own checks so obviously
// bad input never leaves the server.
func validateSignupForm(email, password, name string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}
	return validation.ValidateDisplayName(name)
}

// SignupPage handles GET /auth/signup
func (s *Server) SignupPage(c *fiber.Ctx) error {
	return s.render(c, "auth/signup", fiber.Map{"Title": "Sign Up"})
}

// Signup handles POST /auth/signup. Account creation is delegated entirely
// to the remote auth provider; on success the user is sent to the login page
// with a confirmation note and no session cookie is set.
func (s *Server) Signup(c *fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")
	name := c.FormValue("name")

	if err := validateSignupForm(email, password, name); err != nil {
		return s.render(c, "auth/signup", fiber.Map{
			"Title": "Sign Up",
			"Error": err.Error(),
			"Email": email,
			"Name":  name,
		})
	}

	if err := s.auth.SignUp(c.UserContext(), email, password, name); err != nil {
		return s.render(c, "auth/signup", fiber.Map{
			"Title": "Sign Up",
			"Error": err.Error(),
			"Email": email,
			"Name":  name,
		})
	}

	return c.Redirect(
		"/auth/login?message=Please check your email to confirm your account",
		fiber.StatusSeeOther)
}

// LoginPage handles GET /auth/login
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.render(c, "auth/login", fiber.Map{
		"Title":   "Login",
		"Message": c.Query("message"),
	})
}

// Login handles POST /auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	pair, err := s.auth.SignInWithPassword(c.UserContext(), email, password)
	if err != nil {
		if models.ErrorCode(err) == models.CodeUnauthenticated {
			return s.render(c, "auth/login", fiber.Map{
				"Title": "Login",
				"Error": "Invalid email or password. Please try again.",
				// Preserve the email for better UX
				"Email": email,
			})
		}
		return s.render(c, "auth/login", fiber.Map{
			"Title": "Login",
			"Error": "An unexpected error occurred. Please try again.",
			"Email": email,
		})
	}

	if err := s.sessions.Issue(c, pair); err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

// Logout handles GET /auth/logout. The local session is always cleared; the
// remote sign-out is best effort.
func (s *Server) Logout(c *fiber.Ctx) error {
	pair, err := s.sessions.Read(c)
	s.sessions.Clear(c)

	if err == nil {
		if signOutErr := s.auth.SignOut(c.UserContext(), pair.AccessToken); signOutErr != nil {
			middleware.Logger.WarnContext(c.UserContext(), "remote sign-out failed",
				slog.String("error", signOutErr.Error()))
		}
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}
