package repository

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_ListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "leo")
	posts := createPosts(t, db, author, nil, 13)

	page, err := repo.List(ctx, PostFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, posts[12].ID, page[0].ID)
	assert.Equal(t, "leo", page[0].Author.Username)
	for i := 1; i < len(page); i++ {
		assert.False(t, page[i].CreatedAt.After(page[i-1].CreatedAt))
	}

	rest, err := repo.List(ctx, PostFilter{}, 10, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
	assert.Equal(t, posts[0].ID, rest[2].ID)

	count, err := repo.Count(ctx, PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(13), count)
}

func TestPostRepository_Filters(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	leo := createUser(t, db, "leo")
	anna := createUser(t, db, "anna")
	reader := createUser(t, db, "reader")
	cats := createGroup(t, db, "cats")
	dogs := createGroup(t, db, "dogs")

	createPosts(t, db, leo, cats, 2)
	createPosts(t, db, anna, dogs, 3)
	withImage := createPosts(t, db, anna, nil, 1)
	withImage[0].Image = "posts/cat.png"
	require.NoError(t, repo.Update(ctx, withImage[0]))

	_, err := NewFollowRepository(db).Create(ctx, &models.Follow{UserID: reader.ID, AuthorID: leo.ID})
	require.NoError(t, err)

	tests := []struct {
		name     string
		filter   PostFilter
		expected int64
	}{
		{"all", PostFilter{}, 6},
		{"group cats", PostFilter{GroupID: cats.ID}, 2},
		{"group dogs", PostFilter{GroupID: dogs.ID}, 3},
		{"author anna", PostFilter{AuthorID: anna.ID}, 4},
		{"author without posts", PostFilter{AuthorID: reader.ID}, 0},
		{"followed by reader", PostFilter{FollowerID: reader.ID}, 2},
		{"followed by leo", PostFilter{FollowerID: leo.ID}, 0},
		{"image", PostFilter{Image: "posts/cat.png"}, 1},
		{"unused image", PostFilter{Image: "posts/dog.png"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := repo.Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, count)

			posts, err := repo.List(ctx, tt.filter, 10, 0)
			require.NoError(t, err)
			assert.Len(t, posts, int(tt.expected))
		})
	}
}

func TestPostRepository_UpdateKeepsAuthorAndCreatedAt(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	leo := createUser(t, db, "leo")
	anna := createUser(t, db, "anna")
	cats := createGroup(t, db, "cats")
	post := createPosts(t, db, leo, cats, 1)[0]

	edited := *post
	edited.Text = "edited"
	edited.GroupID = nil
	edited.AuthorID = anna.ID
	edited.CreatedAt = time.Now().Add(48 * time.Hour)
	edited.Image = "posts/abc.png"
	require.NoError(t, repo.Update(ctx, &edited))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Equal(t, "posts/abc.png", got.Image)
	assert.Equal(t, leo.ID, got.AuthorID)
	assert.True(t, got.CreatedAt.Equal(post.CreatedAt))

	err = repo.Update(ctx, &models.Post{ID: 999, Text: "x"})
	assert.True(t, models.IsNotFound(err))
}

func TestPostRepository_GetAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	leo := createUser(t, db, "leo")
	post := createPosts(t, db, leo, nil, 1)[0]

	_, err := repo.GetByID(ctx, 999)
	assert.True(t, models.IsNotFound(err))

	require.NoError(t, repo.Delete(ctx, post.ID))
	_, err = repo.GetByID(ctx, post.ID)
	assert.True(t, models.IsNotFound(err))
	assert.True(t, models.IsNotFound(repo.Delete(ctx, post.ID)))
}

func TestPostRepository_AuthorDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	leo := createUser(t, db, "leo")
	post := createPosts(t, db, leo, nil, 1)[0]
	require.NoError(t, NewCommentRepository(db).Create(ctx, &models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: "hi"}))

	require.NoError(t, db.Delete(&models.User{}, leo.ID).Error)

	var posts, comments int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Zero(t, posts)
	assert.Zero(t, comments)
}
