// Package service implements the blog's business rules on top of the repositories.
package service

import (
	"context"
	"strings"

	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

const (
	requiredFieldMessage = "This field is required."
	invalidGroupMessage  = "Select a valid choice. That choice is not one of the available choices."
)

// ImageStore persists image attachments and returns their media-relative path.
type ImageStore interface {
	Save(ctx context.Context, up media.Upload) (string, error)
	Remove(rel string) error
}

type PostService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
	images    ImageStore
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	GroupID  *uint
	Image    *media.Upload
}

type UpdatePostInput struct {
	ViewerID   uint
	PostID     uint
	Text       string
	GroupID    *uint
	Image      *media.Upload
	ClearImage bool
}

// EditAccess is the outcome of an authorship check. A denied edit is not an error:
// callers send the viewer back to the post instead.
type EditAccess struct {
	Post    *models.Post
	Allowed bool
}

func NewPostService(postRepo repository.PostRepository, groupRepo repository.GroupRepository, images ImageStore) *PostService {
	return &PostService{
		postRepo:  postRepo,
		groupRepo: groupRepo,
		images:    images,
	}
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// CountByAuthor returns how many posts the author has written.
func (s *PostService) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return s.postRepo.Count(ctx, repository.PostFilter{AuthorID: authorID})
}

// Groups lists the groups a post can be filed under.
func (s *PostService) Groups(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.AuthorID == 0 {
		return nil, models.NewAuthenticationRequiredError()
	}

	text := strings.TrimSpace(in.Text)
	if err := s.validate(ctx, text, in.GroupID); err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     text,
		AuthorID: in.AuthorID,
		GroupID:  in.GroupID,
	}
	if in.Image != nil {
		rel, err := s.images.Save(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = rel
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.releaseImage(ctx, post.Image)
		return nil, err
	}

	observability.ContentCreated.WithLabelValues("post").Inc()
	middleware.Logger.InfoContext(ctx, "post created", "post_id", post.ID, "author_id", post.AuthorID)
	return post, nil
}

// AuthorizeEdit loads the post and checks that the viewer wrote it.
func (s *PostService) AuthorizeEdit(ctx context.Context, viewerID, postID uint) (EditAccess, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return EditAccess{}, err
	}
	return EditAccess{Post: post, Allowed: viewerID != 0 && post.AuthorID == viewerID}, nil
}

// UpdatePost changes text, group and image of a post written by the viewer.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	access, err := s.AuthorizeEdit(ctx, in.ViewerID, in.PostID)
	if err != nil {
		return nil, err
	}
	if !access.Allowed {
		return nil, models.NewForbiddenError("only the author can edit this post")
	}

	text := strings.TrimSpace(in.Text)
	if err := s.validate(ctx, text, in.GroupID); err != nil {
		return nil, err
	}

	post := access.Post
	previousImage := post.Image
	post.Text = text
	post.GroupID = in.GroupID
	switch {
	case in.Image != nil:
		rel, err := s.images.Save(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = rel
	case in.ClearImage:
		post.Image = ""
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if post.Image != previousImage {
			s.releaseImage(ctx, post.Image)
		}
		return nil, err
	}
	if post.Image != previousImage {
		s.releaseImage(ctx, previousImage)
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// releaseImage deletes a stored image once no post refers to it. Stored names
// are content hashes, so identical uploads share one file.
func (s *PostService) releaseImage(ctx context.Context, rel string) {
	if rel == "" {
		return
	}
	n, err := s.postRepo.Count(ctx, repository.PostFilter{Image: rel})
	if err != nil || n > 0 {
		return
	}
	if err := s.images.Remove(rel); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove image", "path", rel, "error", err)
	}
}

func (s *PostService) validate(ctx context.Context, text string, groupID *uint) error {
	fields := map[string]string{}
	if text == "" {
		fields["text"] = requiredFieldMessage
	}
	if groupID != nil {
		if _, err := s.groupRepo.GetByID(ctx, *groupID); err != nil {
			if !models.IsNotFound(err) {
				return err
			}
			fields["group"] = invalidGroupMessage
		}
	}
	if len(fields) > 0 {
		return models.NewFieldErrors(fields)
	}
	return nil
}
