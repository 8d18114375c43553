// Package validation holds input rules shared by services and the admin CLI.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxGroupTitleLength = 200
	MaxGroupSlugLength  = 50
)

var groupSlugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidateGroupSlug checks that slug is URL-safe.
func ValidateGroupSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug is required")
	}
	if len(slug) > MaxGroupSlugLength {
		return fmt.Errorf("slug must be at most %d characters", MaxGroupSlugLength)
	}
	if !groupSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug may contain only letters, numbers, underscores and hyphens")
	}
	return nil
}

func ValidateGroupTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxGroupTitleLength {
		return fmt.Errorf("title must be at most %d characters", MaxGroupTitleLength)
	}
	return nil
}
