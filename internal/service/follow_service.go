package service

import (
	"context"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

// FollowService manages follow edges between users.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// Follow makes the viewer follow the named author and returns the author.
// Following yourself or someone already followed changes nothing.
func (s *FollowService) Follow(ctx context.Context, followerID uint, authorUsername string) (*models.User, error) {
	if followerID == 0 {
		return nil, models.NewAuthenticationRequiredError()
	}
	author, err := s.userRepo.GetByUsername(ctx, authorUsername)
	if err != nil {
		return nil, err
	}
	if author.ID == followerID {
		return author, nil
	}

	created, err := s.followRepo.Create(ctx, &models.Follow{UserID: followerID, AuthorID: author.ID})
	if err != nil {
		return nil, err
	}
	if created {
		observability.ContentCreated.WithLabelValues("follow").Inc()
		middleware.Logger.InfoContext(ctx, "follow created", "author_id", author.ID)
	}
	return author, nil
}

// Unfollow removes the viewer's edge to the named author. A missing edge is NotFound.
func (s *FollowService) Unfollow(ctx context.Context, followerID uint, authorUsername string) (*models.User, error) {
	if followerID == 0 {
		return nil, models.NewAuthenticationRequiredError()
	}
	author, err := s.userRepo.GetByUsername(ctx, authorUsername)
	if err != nil {
		return nil, err
	}
	follow, err := s.followRepo.Get(ctx, followerID, author.ID)
	if err != nil {
		return nil, err
	}
	if err := s.followRepo.Delete(ctx, follow.ID); err != nil {
		return nil, err
	}
	return author, nil
}

// IsFollowing is false for anonymous viewers and for self-view.
func (s *FollowService) IsFollowing(ctx context.Context, viewerID, authorID uint) (bool, error) {
	if viewerID == 0 || viewerID == authorID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, viewerID, authorID)
}

func (s *FollowService) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	return s.followRepo.CountFollowers(ctx, authorID)
}
