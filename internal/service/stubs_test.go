package service

import (
	"context"

	"inkwell/internal/media"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	updateFn  func(context.Context, *models.Post) error
	deleteFn  func(context.Context, uint) error
	listFn    func(context.Context, repository.PostFilter, int, int) ([]*models.Post, error)
	countFn   func(context.Context, repository.PostFilter) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, filter, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context, filter repository.PostFilter) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx, filter)
}

type groupRepoStub struct {
	createFn       func(context.Context, *models.Group) error
	upsertFn       func(context.Context, *models.Group) error
	getByIDFn      func(context.Context, uint) (*models.Group, error)
	getBySlugFn    func(context.Context, string) (*models.Group, error)
	listFn         func(context.Context) ([]models.Group, error)
	deleteBySlugFn func(context.Context, string) error
}

func (s *groupRepoStub) Create(ctx context.Context, group *models.Group) error {
	return s.createFn(ctx, group)
}
func (s *groupRepoStub) Upsert(ctx context.Context, group *models.Group) error {
	return s.upsertFn(ctx, group)
}
func (s *groupRepoStub) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	return s.getByIDFn(ctx, id)
}
func (s *groupRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *groupRepoStub) List(ctx context.Context) ([]models.Group, error) {
	return s.listFn(ctx)
}
func (s *groupRepoStub) DeleteBySlug(ctx context.Context, slug string) error {
	return s.deleteBySlugFn(ctx, slug)
}

type userRepoStub struct {
	createFn           func(context.Context, *models.User) error
	getByIDFn          func(context.Context, uint) (*models.User, error)
	getByUsernameFn    func(context.Context, string) (*models.User, error)
	existsByUsernameFn func(context.Context, string) (bool, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.existsByUsernameFn(ctx, username)
}

type followRepoStub struct {
	createFn         func(context.Context, *models.Follow) (bool, error)
	getFn            func(context.Context, uint, uint) (*models.Follow, error)
	existsFn         func(context.Context, uint, uint) (bool, error)
	deleteFn         func(context.Context, uint) error
	countFollowersFn func(context.Context, uint) (int64, error)
}

func (s *followRepoStub) Create(ctx context.Context, follow *models.Follow) (bool, error) {
	return s.createFn(ctx, follow)
}
func (s *followRepoStub) Get(ctx context.Context, userID, authorID uint) (*models.Follow, error) {
	return s.getFn(ctx, userID, authorID)
}
func (s *followRepoStub) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.existsFn(ctx, userID, authorID)
}
func (s *followRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	return s.countFollowersFn(ctx, authorID)
}
func (s *followRepoStub) CountFollowing(context.Context, uint) (int64, error) { return 0, nil }

type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) CountByPost(context.Context, uint) (int64, error) { return 0, nil }

type imageStoreStub struct {
	saveFn  func(context.Context, media.Upload) (string, error)
	removed []string
}

func (s *imageStoreStub) Save(ctx context.Context, up media.Upload) (string, error) {
	return s.saveFn(ctx, up)
}
func (s *imageStoreStub) Remove(rel string) error {
	s.removed = append(s.removed, rel)
	return nil
}

func existingGroups(ids ...uint) *groupRepoStub {
	known := map[uint]bool{}
	for _, id := range ids {
		known[id] = true
	}
	return &groupRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Group, error) {
			if known[id] {
				return &models.Group{ID: id, Slug: "g"}, nil
			}
			return nil, models.NewNotFoundError("Group", id)
		},
	}
}

func uintPtr(v uint) *uint { return &v }
