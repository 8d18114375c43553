package seed

import (
	"fmt"
	"log"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// BulkPostCount is how many posts every seeded author writes: one full page plus a partial second page.
const BulkPostCount = 13

// DefaultGroups are the groups created by Run.
var DefaultGroups = []string{"Travel notes", "Books", "Programming", "Cooking", "Photography"}

// Options configures a seeding run.
type Options struct {
	NumUsers        int
	CommentsPerPost int
	ShouldClean     bool
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Seeder fills a database with demo content.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

func NewSeeder(db *gorm.DB, factory *Factory) *Seeder {
	return &Seeder{db: db, factory: factory}
}

// ClearAll deletes every row, children first.
func (s *Seeder) ClearAll() error {
	tx := s.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Follow{}, &models.Comment{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run creates the default groups, opts.NumUsers authors with BulkPostCount posts each,
// comments on every post and a ring of follow edges.
func (s *Seeder) Run(opts Options) (Summary, error) {
	var sum Summary
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return sum, err
		}
	}

	groups := make([]*models.Group, 0, len(DefaultGroups))
	for _, title := range DefaultGroups {
		g, err := s.factory.CreateGroup(title)
		if err != nil {
			return sum, err
		}
		groups = append(groups, g)
	}
	sum.Groups = len(groups)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return sum, err
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	for i, author := range users {
		posts := make([]*models.Post, 0, BulkPostCount)
		for j := 0; j < BulkPostCount; j++ {
			var group *models.Group
			// Every third post has no group.
			if j%3 != 0 {
				group = groups[(i+j)%len(groups)]
			}
			posts = append(posts, s.factory.BuildPost(author, group))
		}
		if err := s.factory.CreatePostsBatch(posts); err != nil {
			return sum, fmt.Errorf("create posts: %w", err)
		}
		sum.Posts += len(posts)

		if len(users) < 2 {
			continue
		}
		for _, post := range posts {
			for k := 0; k < opts.CommentsPerPost; k++ {
				commenter := users[(i+k+1)%len(users)]
				if _, err := s.factory.CreateComment(commenter, post); err != nil {
					return sum, fmt.Errorf("create comment: %w", err)
				}
				sum.Comments++
			}
		}
		if err := s.factory.Follow(author, users[(i+1)%len(users)]); err != nil {
			return sum, fmt.Errorf("create follow: %w", err)
		}
		sum.Follows++
	}

	log.Printf("seeded %d users, %d groups, %d posts, %d comments, %d follows",
		sum.Users, sum.Groups, sum.Posts, sum.Comments, sum.Follows)
	return sum, nil
}
