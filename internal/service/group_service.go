package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"gopkg.in/yaml.v3"
)

// GroupService administers groups. Groups have no web form; they come from the admin CLI.
type GroupService struct {
	groupRepo repository.GroupRepository
}

// groupFixtures is the document read by ImportGroups.
type groupFixtures struct {
	Groups []models.Group `yaml:"groups"`
}

func NewGroupService(groupRepo repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

func (s *GroupService) CreateGroup(ctx context.Context, title, slug, description string) (*models.Group, error) {
	group := &models.Group{
		Title:       strings.TrimSpace(title),
		Slug:        strings.TrimSpace(slug),
		Description: strings.TrimSpace(description),
	}
	if err := validateGroup(group); err != nil {
		return nil, err
	}
	if _, err := s.groupRepo.GetBySlug(ctx, group.Slug); err == nil {
		return nil, models.NewFieldErrors(map[string]string{"slug": "Group with this slug already exists."})
	} else if !models.IsNotFound(err) {
		return nil, err
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "group created", "slug", group.Slug)
	return group, nil
}

// ImportGroups reads a YAML document with a top-level "groups" list and upserts
// every entry by slug. Nothing is written unless every entry is valid.
func (s *GroupService) ImportGroups(ctx context.Context, r io.Reader) ([]models.Group, error) {
	var doc groupFixtures
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("invalid group fixture: %v", err))
	}

	seen := map[string]bool{}
	for i := range doc.Groups {
		g := &doc.Groups[i]
		g.Title = strings.TrimSpace(g.Title)
		g.Slug = strings.TrimSpace(g.Slug)
		g.Description = strings.TrimSpace(g.Description)
		if err := validateGroup(g); err != nil {
			return nil, fmt.Errorf("group #%d: %w", i+1, err)
		}
		if seen[g.Slug] {
			return nil, models.NewValidationError(fmt.Sprintf("group #%d: duplicate slug %q", i+1, g.Slug))
		}
		seen[g.Slug] = true
	}

	for i := range doc.Groups {
		if err := s.groupRepo.Upsert(ctx, &doc.Groups[i]); err != nil {
			return nil, err
		}
	}
	middleware.Logger.InfoContext(ctx, "groups imported", "count", len(doc.Groups))
	return doc.Groups, nil
}

// DeleteGroup removes the group; its posts stay and lose their group.
func (s *GroupService) DeleteGroup(ctx context.Context, slug string) error {
	if _, err := s.groupRepo.GetBySlug(ctx, slug); err != nil {
		return err
	}
	return s.groupRepo.DeleteBySlug(ctx, slug)
}

func (s *GroupService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}

func validateGroup(g *models.Group) error {
	fields := map[string]string{}
	if err := validation.ValidateGroupTitle(g.Title); err != nil {
		fields["title"] = err.Error()
	}
	if err := validation.ValidateGroupSlug(g.Slug); err != nil {
		fields["slug"] = err.Error()
	}
	if len(fields) > 0 {
		return models.NewFieldErrors(fields)
	}
	return nil
}
