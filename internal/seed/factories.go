// Package seed creates demo data for development databases and tests.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db           *gorm.DB
	rng          *rand.Rand
	passwordHash string
	maxDays      int
	seq          int
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(db *gorm.DB, seed int64) (*Factory, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	return &Factory{
		db:           db,
		rng:          rand.New(rand.NewSource(seed)),
		passwordHash: string(hash),
		maxDays:      90,
	}, nil
}

// CreateUser persists a user with a fake name. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	user := &models.User{
		Username:  fmt.Sprintf("%s.%s%d", strings.ToLower(first), strings.ToLower(last), f.seq),
		FirstName: first,
		LastName:  last,
		Email:     gofakeit.Email(),
		Password:  f.passwordHash,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreateGroup persists a group titled title.
func (f *Factory) CreateGroup(title string) (*models.Group, error) {
	group := &models.Group{
		Title:       title,
		Slug:        slugify(title),
		Description: gofakeit.Paragraph(1, 3, 12, " "),
	}
	if err := f.db.Create(group).Error; err != nil {
		return nil, fmt.Errorf("create group %s: %w", title, err)
	}
	return group, nil
}

// BuildPost constructs an unsaved post by author with a created_at spread over the last months.
func (f *Factory) BuildPost(author *models.User, group *models.Group) *models.Post {
	post := &models.Post{
		Text:     gofakeit.Paragraph(1+f.rng.Intn(3), 3, 10, "\n\n"),
		AuthorID: author.ID,
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	back := time.Duration(f.rng.Intn(f.maxDays*24*60)) * time.Minute
	post.CreatedAt = time.Now().Add(-back)
	return post
}

// CreatePostsBatch persists posts in one statement.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Omit("Author", "Group").Create(&posts).Error
}

func (f *Factory) CreateComment(author *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Text:      gofakeit.Sentence(4 + f.rng.Intn(12)),
		CreatedAt: post.CreatedAt.Add(time.Duration(1+f.rng.Intn(600)) * time.Minute),
	}
	if err := f.db.Omit("Author", "Post").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// Follow links follower to author. Self edges are skipped.
func (f *Factory) Follow(follower, author *models.User) error {
	if follower.ID == author.ID {
		return nil
	}
	return f.db.Omit("User", "Author").Create(&models.Follow{UserID: follower.ID, AuthorID: author.ID}).Error
}

func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
