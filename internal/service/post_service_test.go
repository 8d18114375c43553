package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkwell/internal/media"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsValidation(err), "expected validation error, got %v", err)
	assert.Contains(t, models.FieldErrors(err), field)
}

func TestPostService_CreatePost(t *testing.T) {
	var created *models.Post
	repo := &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 11
			created = p
			return nil
		},
	}
	images := &imageStoreStub{saveFn: func(context.Context, media.Upload) (string, error) {
		return "posts/abc.png", nil
	}}
	svc := NewPostService(repo, existingGroups(3), images)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 5,
		Text:     "  hello world  ",
		GroupID:  uintPtr(3),
		Image:    &media.Upload{Filename: "a.png", Content: []byte("png")},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(11), post.ID)
	assert.Equal(t, created, post)
	assert.Equal(t, "hello world", post.Text)
	assert.Equal(t, uint(5), post.AuthorID)
	assert.Equal(t, uint(3), *post.GroupID)
	assert.Equal(t, "posts/abc.png", post.Image)
}

func TestPostService_CreatePostRejectsInvalidInputWithoutWriting(t *testing.T) {
	repo := &postRepoStub{createFn: func(context.Context, *models.Post) error {
		t.Fatal("post must not be written")
		return nil
	}}
	images := &imageStoreStub{saveFn: func(context.Context, media.Upload) (string, error) {
		t.Fatal("image must not be stored")
		return "", nil
	}}
	svc := NewPostService(repo, existingGroups(3), images)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{AuthorID: 5, Text: "   "})
	assertFieldError(t, err, "text")

	_, err = svc.CreatePost(context.Background(), CreatePostInput{AuthorID: 5, Text: "ok", GroupID: uintPtr(99),
		Image: &media.Upload{Content: []byte("x")}})
	assertFieldError(t, err, "group")

	_, err = svc.CreatePost(context.Background(), CreatePostInput{Text: "anonymous"})
	assert.Equal(t, models.CodeAuthentication, models.CodeOf(err))
}

func TestPostService_CreatePostInvalidImage(t *testing.T) {
	repo := &postRepoStub{createFn: func(context.Context, *models.Post) error {
		t.Fatal("post must not be written")
		return nil
	}}
	images := &imageStoreStub{saveFn: func(context.Context, media.Upload) (string, error) {
		return "", models.NewFieldErrors(map[string]string{"image": "bad image"})
	}}
	svc := NewPostService(repo, existingGroups(), images)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{AuthorID: 1, Text: "t", Image: &media.Upload{Content: []byte("x")}})
	assertFieldError(t, err, "image")
}

func TestPostService_CreatePostRemovesImageOnStorageFailure(t *testing.T) {
	repo := &postRepoStub{createFn: func(context.Context, *models.Post) error {
		return models.NewInternalError(errors.New("db down"))
	}}
	images := &imageStoreStub{saveFn: func(context.Context, media.Upload) (string, error) {
		return "posts/x.png", nil
	}}
	svc := NewPostService(repo, existingGroups(), images)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{AuthorID: 1, Text: "t", Image: &media.Upload{Content: []byte("x")}})
	require.Error(t, err)
	assert.Equal(t, []string{"posts/x.png"}, images.removed)
}

func TestPostService_AuthorizeEdit(t *testing.T) {
	repo := &postRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
		if id == 1 {
			return &models.Post{ID: 1, AuthorID: 5}, nil
		}
		return nil, models.NewNotFoundError("Post", id)
	}}
	svc := NewPostService(repo, existingGroups(), nil)

	access, err := svc.AuthorizeEdit(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.True(t, access.Allowed)

	access, err = svc.AuthorizeEdit(context.Background(), 6, 1)
	require.NoError(t, err)
	assert.False(t, access.Allowed)
	assert.Equal(t, uint(1), access.Post.ID)

	access, err = svc.AuthorizeEdit(context.Background(), 0, 1)
	require.NoError(t, err)
	assert.False(t, access.Allowed)

	_, err = svc.AuthorizeEdit(context.Background(), 5, 2)
	assert.True(t, models.IsNotFound(err))
}

func TestPostService_UpdatePost(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := &models.Post{ID: 1, AuthorID: 5, Text: "old", GroupID: uintPtr(3), Image: "posts/old.png", CreatedAt: created}
	var updated models.Post
	repo := &postRepoStub{
		getByIDFn: func(context.Context, uint) (*models.Post, error) {
			cp := *stored
			return &cp, nil
		},
		updateFn: func(_ context.Context, p *models.Post) error {
			updated = *p
			return nil
		},
	}
	images := &imageStoreStub{}
	svc := NewPostService(repo, existingGroups(3), images)

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{ViewerID: 5, PostID: 1, Text: "new", ClearImage: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/old.png"}, images.removed)
	assert.Equal(t, "new", updated.Text)
	assert.Nil(t, updated.GroupID)
	assert.Empty(t, updated.Image)
	assert.Equal(t, uint(5), updated.AuthorID)
	assert.Equal(t, created, updated.CreatedAt)
}

func TestPostService_UpdatePostImageCleanup(t *testing.T) {
	stored := func() *models.Post {
		return &models.Post{ID: 1, AuthorID: 5, Text: "old", Image: "posts/old.png"}
	}
	upload := &media.Upload{Content: []byte("x")}
	saveNew := func(context.Context, media.Upload) (string, error) { return "posts/new.png", nil }

	t.Run("replaced image is removed", func(t *testing.T) {
		repo := &postRepoStub{
			getByIDFn: func(context.Context, uint) (*models.Post, error) { return stored(), nil },
			updateFn:  func(context.Context, *models.Post) error { return nil },
		}
		images := &imageStoreStub{saveFn: saveNew}
		svc := NewPostService(repo, existingGroups(), images)

		_, err := svc.UpdatePost(context.Background(), UpdatePostInput{ViewerID: 5, PostID: 1, Text: "new", Image: upload})
		require.NoError(t, err)
		assert.Equal(t, []string{"posts/old.png"}, images.removed)
	})

	t.Run("failed update removes the new image", func(t *testing.T) {
		repo := &postRepoStub{
			getByIDFn: func(context.Context, uint) (*models.Post, error) { return stored(), nil },
			updateFn: func(context.Context, *models.Post) error {
				return models.NewInternalError(errors.New("db down"))
			},
		}
		images := &imageStoreStub{saveFn: saveNew}
		svc := NewPostService(repo, existingGroups(), images)

		_, err := svc.UpdatePost(context.Background(), UpdatePostInput{ViewerID: 5, PostID: 1, Text: "new", Image: upload})
		require.Error(t, err)
		assert.Equal(t, []string{"posts/new.png"}, images.removed)
	})

	t.Run("image shared with another post is kept", func(t *testing.T) {
		repo := &postRepoStub{
			getByIDFn: func(context.Context, uint) (*models.Post, error) { return stored(), nil },
			updateFn:  func(context.Context, *models.Post) error { return nil },
			countFn: func(_ context.Context, filter repository.PostFilter) (int64, error) {
				if filter.Image == "posts/old.png" {
					return 1, nil
				}
				return 0, nil
			},
		}
		images := &imageStoreStub{saveFn: saveNew}
		svc := NewPostService(repo, existingGroups(), images)

		_, err := svc.UpdatePost(context.Background(), UpdatePostInput{ViewerID: 5, PostID: 1, Text: "new", Image: upload})
		require.NoError(t, err)
		assert.Empty(t, images.removed)
	})
}

func TestPostService_UpdatePostDeniedForOtherUsers(t *testing.T) {
	repo := &postRepoStub{
		getByIDFn: func(context.Context, uint) (*models.Post, error) {
			return &models.Post{ID: 1, AuthorID: 5, Text: "old"}, nil
		},
		updateFn: func(context.Context, *models.Post) error {
			t.Fatal("post must not change")
			return nil
		},
	}
	svc := NewPostService(repo, existingGroups(), nil)

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{ViewerID: 6, PostID: 1, Text: "hijack"})
	assert.Equal(t, models.CodeForbidden, models.CodeOf(err))
}
