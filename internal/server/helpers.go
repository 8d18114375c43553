package server

import (
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"

	"inkwell/internal/media"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// parseID extracts a route parameter as a positive id. Anything else is a missing page.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// parseGroupID reads the optional group choice of the post form.
// Unparsable ids become 0 so they fail the group lookup like unknown ones.
func parseGroupID(raw string) *uint {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		id = 0
	}
	v := uint(id)
	return &v
}

const malformedUploadMessage = "The submitted data was not a file. Check the encoding type on the form."

// readUpload returns the uploaded file of field, or nil when none was sent.
// A body that cannot be parsed as a form is a field error on field.
func readUpload(c *fiber.Ctx, field string) (*media.Upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewFieldErrors(map[string]string{field: malformedUploadMessage})
	}
	if fh.Size == 0 {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &media.Upload{Filename: fh.Filename, Content: content}, nil
}

// safeNext accepts only local absolute paths as a post-login target.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}

func redirectToLogin(c *fiber.Ctx) error {
	return c.Redirect(loginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
}

func profilePath(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postPath(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}
