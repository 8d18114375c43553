package server

import (
	"errors"
	"net/http"

	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// viewer is the signed-in user as seen by templates.
type viewer struct {
	ID       uint
	Username string
}

func currentViewer(c *fiber.Ctx) *viewer {
	id := middleware.ViewerID(c)
	if id == 0 {
		return nil
	}
	username, _ := c.Locals("username").(string)
	return &viewer{ID: id, Username: username}
}

// renderPage executes a template with the viewer added to data.
func (s *Server) renderPage(c *fiber.Ctx, name string, data fiber.Map) ([]byte, error) {
	if data == nil {
		data = fiber.Map{}
	}
	if v := currentViewer(c); v != nil {
		data["Viewer"] = v
	}
	return s.views.Render(name, data)
}

func (s *Server) render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	body, err := s.renderPage(c, name, data)
	if err != nil {
		return err
	}
	return sendHTML(c, status, body)
}

func sendHTML(c *fiber.Ctx, status int, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(body)
}

// errorHandler turns handler errors into pages. Anonymous access to protected
// actions becomes a login redirect.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeAuthentication {
		return redirectToLogin(c)
	}

	status := fiber.StatusInternalServerError
	message := ""
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
	case appErr != nil:
		status = models.HTTPStatus(err)
		message = appErr.Message
	}

	var page string
	switch {
	case status == fiber.StatusNotFound:
		page = "core/404"
	case status == fiber.StatusForbidden:
		page = "core/403"
	case status >= fiber.StatusInternalServerError:
		page = "core/500"
		middleware.Logger.ErrorContext(c.UserContext(), "request error", "path", c.Path(), "error", err)
	default:
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(status).SendString(http.StatusText(status))
	}

	body, renderErr := s.renderPage(c, page, fiber.Map{
		"Title":   http.StatusText(status),
		"Path":    c.Path(),
		"Message": message,
	})
	if renderErr != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "error page rendering failed", "error", renderErr)
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(status).SendString(http.StatusText(status))
	}
	return sendHTML(c, status, body)
}
