package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithRedis(t, nil)
}

func newTestEnvWithRedis(t *testing.T, redisClient *redis.Client) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	cfg := &config.Config{
		Env:             "test",
		JWTSecret:       "test-secret",
		SessionTTLHours: 1,
		MediaRoot:       t.TempDir(),
		MaxUploadMB:     5,
	}
	s, err := NewServerWithDeps(cfg, db, redisClient)
	require.NoError(t, err)
	return &testEnv{server: s, app: s.NewApp(), db: db}
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, FirstName: strings.ToUpper(username[:1]) + username[1:], Password: "x"}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createGroup(t *testing.T, slug string) *models.Group {
	t.Helper()
	group := &models.Group{Title: "Group " + slug, Slug: slug, Description: "All about " + slug}
	require.NoError(t, e.db.Create(group).Error)
	return group
}

// createPosts inserts n posts one minute apart, the last one newest.
func (e *testEnv) createPosts(t *testing.T, author *models.User, group *models.Group, n int) []*models.Post {
	t.Helper()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		post := &models.Post{Text: "post number " + string(rune('a'+i)), AuthorID: author.ID, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if group != nil {
			post.GroupID = &group.ID
		}
		require.NoError(t, e.db.Omit("Author", "Group").Create(post).Error)
		posts = append(posts, post)
	}
	return posts
}

// sessionCookie issues a session token for user the same way Login does.
func (e *testEnv) sessionCookie(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	token, _, err := e.server.tokens.Issue(user.ID, user.Username)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookie, Value: token}
}

type response struct {
	status   int
	body     string
	location string
	cookies  []*http.Cookie
}

func (e *testEnv) do(t *testing.T, req *http.Request, cookie *http.Cookie) response {
	t.Helper()
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{
		status:   resp.StatusCode,
		body:     string(body),
		location: resp.Header.Get("Location"),
		cookies:  resp.Cookies(),
	}
}

func (e *testEnv) get(t *testing.T, target string, cookie *http.Cookie) response {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, target, nil), cookie)
}

func (e *testEnv) postForm(t *testing.T, target string, form url.Values, cookie *http.Cookie) response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req, cookie)
}

func countPosts(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.WithContext(context.Background()).Model(&models.Post{}).Count(&n).Error)
	return n
}
