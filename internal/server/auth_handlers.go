package server

import (
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) SignupForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "users/signup", fiber.Map{
		"Title":  "Sign up",
		"Form":   service.SignupInput{},
		"Errors": map[string]string{},
	})
}

// Signup creates the account and sends the new user to the global feed.
func (s *Server) Signup(c *fiber.Ctx) error {
	in := service.SignupInput{
		FirstName:       c.FormValue("first_name"),
		LastName:        c.FormValue("last_name"),
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password1"),
		PasswordConfirm: c.FormValue("password2"),
	}
	_, err := s.userService.Signup(c.UserContext(), in)
	if models.IsValidation(err) {
		in.Password, in.PasswordConfirm = "", ""
		return s.render(c, fiber.StatusOK, "users/signup", fiber.Map{
			"Title":  "Sign up",
			"Form":   in,
			"Errors": models.FieldErrors(err),
		})
	}
	if err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "users/login", fiber.Map{
		"Title":  "Log in",
		"Next":   c.Query("next"),
		"Errors": map[string]string{},
	})
}

// Login checks credentials, sets the session cookie and follows a local next URL.
func (s *Server) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	next := c.FormValue("next")

	user, err := s.userService.Authenticate(c.UserContext(), username, c.FormValue("password"))
	if models.IsValidation(err) {
		return s.render(c, fiber.StatusOK, "users/login", fiber.Map{
			"Title":    "Log in",
			"Next":     next,
			"Username": username,
			"Errors":   models.FieldErrors(err),
		})
	}
	if err != nil {
		return err
	}

	token, claims, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return models.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	middleware.Logger.InfoContext(c.UserContext(), "user logged in", "user_id", user.ID)
	return c.Redirect(safeNext(next), fiber.StatusFound)
}

// Logout revokes the current session token and clears the cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims, ok := c.Locals("session").(*middleware.Claims); ok && claims.ExpiresAt != nil {
		if err := s.sessions.Revoke(c.UserContext(), claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "session revocation failed", "error", err)
		}
	}
	c.ClearCookie(middleware.SessionCookie)
	c.Locals("userID", nil)
	c.Locals("username", nil)
	c.Locals("session", nil)

	return s.render(c, fiber.StatusOK, "users/logged_out", fiber.Map{"Title": "Logged out"})
}
