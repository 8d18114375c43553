package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PostPage is one page of a post listing.
type PostPage = pagination.Page[*models.Post]

// FeedService composes the read-only post listings.
type FeedService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	follows   *FollowService
}

// ProfileFeed is an author's posts plus the viewer's relation to the author.
type ProfileFeed struct {
	Author    *models.User
	Page      PostPage
	Following bool
	IsSelf    bool
	Followers int64
}

func NewFeedService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	follows *FollowService,
) *FeedService {
	return &FeedService{
		postRepo:  postRepo,
		groupRepo: groupRepo,
		userRepo:  userRepo,
		follows:   follows,
	}
}

// Index returns a page of all posts.
func (s *FeedService) Index(ctx context.Context, rawPage string) (PostPage, error) {
	return s.page(ctx, "index", repository.PostFilter{}, rawPage)
}

// Group returns a page of the posts filed under the group with the given slug.
func (s *FeedService) Group(ctx context.Context, slug, rawPage string) (*models.Group, PostPage, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, PostPage{}, err
	}
	page, err := s.page(ctx, "group", repository.PostFilter{GroupID: group.ID}, rawPage)
	if err != nil {
		return nil, PostPage{}, err
	}
	return group, page, nil
}

// Profile returns a page of the named author's posts.
func (s *FeedService) Profile(ctx context.Context, username string, viewerID uint, rawPage string) (*ProfileFeed, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	page, err := s.page(ctx, "profile", repository.PostFilter{AuthorID: author.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.IsFollowing(ctx, viewerID, author.ID)
	if err != nil {
		return nil, err
	}
	followers, err := s.follows.CountFollowers(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileFeed{
		Author:    author,
		Page:      page,
		Following: following,
		IsSelf:    viewerID != 0 && viewerID == author.ID,
		Followers: followers,
	}, nil
}

// Followed returns a page of posts by the authors the viewer follows.
func (s *FeedService) Followed(ctx context.Context, viewerID uint, rawPage string) (PostPage, error) {
	if viewerID == 0 {
		return PostPage{}, models.NewAuthenticationRequiredError()
	}
	return s.page(ctx, "follow", repository.PostFilter{FollowerID: viewerID}, rawPage)
}

func (s *FeedService) page(ctx context.Context, feed string, filter repository.PostFilter, rawPage string) (_ PostPage, err error) {
	ctx, span := observability.StartSpan(ctx, "feed."+feed, attribute.String("feed.page", rawPage))
	defer func() { observability.EndSpan(span, err) }()

	total, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return PostPage{}, err
	}
	p := pagination.New(total, pagination.PostsPerPage)
	number := p.Resolve(rawPage)

	posts, err := s.postRepo.List(ctx, filter, p.PerPage, p.Offset(number))
	if err != nil {
		return PostPage{}, err
	}
	return pagination.NewPage(posts, number, p), nil
}
