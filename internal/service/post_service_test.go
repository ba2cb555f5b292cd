package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"unnest/internal/models"
	"unnest/internal/repository"
	"unnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, uint) (*models.Post, error)
	updateFn         func(context.Context, *models.Post) error
	deleteFn         func(context.Context, uint) error
	listFn           func(context.Context, int, int) (models.Page[models.Post], error)
	listByUserFn     func(context.Context, uint, int, int) (models.Page[models.Post], error)
	listByCategoryFn func(context.Context, string, int, int) (models.Page[models.Post], error)
	categoriesFn     func(context.Context) ([]string, error)
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
func (s *postRepoStub) List(ctx context.Context, page, perPage int) (models.Page[models.Post], error) {
	return s.listFn(ctx, page, perPage)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID uint, page, perPage int) (models.Page[models.Post], error) {
	return s.listByUserFn(ctx, userID, page, perPage)
}
func (s *postRepoStub) ListByCategory(ctx context.Context, category string, page, perPage int) (models.Page[models.Post], error) {
	return s.listByCategoryFn(ctx, category, page, perPage)
}
func (s *postRepoStub) Categories(ctx context.Context) ([]string, error) {
	return s.categoriesFn(ctx)
}

func noopPostRepo() *postRepoStub {
	empty := func(page, perPage int) (models.Page[models.Post], error) {
		return models.Page[models.Post]{Page: page, PerPage: perPage, Items: []models.Post{}}, nil
	}
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		updateFn:  func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:  func(_ context.Context, _ uint) error { return nil },
		listFn: func(_ context.Context, page, perPage int) (models.Page[models.Post], error) {
			return empty(page, perPage)
		},
		listByUserFn: func(_ context.Context, _ uint, page, perPage int) (models.Page[models.Post], error) {
			return empty(page, perPage)
		},
		listByCategoryFn: func(_ context.Context, _ string, page, perPage int) (models.Page[models.Post], error) {
			return empty(page, perPage)
		},
		categoriesFn: func(_ context.Context) ([]string, error) { return []string{}, nil },
	}
}

func TestPostService_CreatePostDefaults(t *testing.T) {
	repo := noopPostRepo()
	var created *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 1
		created = p
		return nil
	}

	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	svc := NewPostService(repo, nil, NewMediaService(newMemStore()), 5)
	svc.now = func() time.Time { return fixed }

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:       7,
		Title:        "Joins",
		Introduction: "intro",
		Content:      "body",
		Category:     "SQL",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, uint(7), post.UserID)
	assert.Equal(t, models.DefaultPostImage, post.ImageFilename)
	assert.Equal(t, models.DefaultImageTitle, post.ImageTitle)
	assert.Equal(t, fixed.UTC(), post.DatePosted)
	assert.Equal(t, time.UTC, post.DatePosted.Location())
}

func TestPostService_CreatePostRejectsUnknownCategory(t *testing.T) {
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, _ *models.Post) error {
		t.Fatal("Create must not be called")
		return nil
	}
	svc := NewPostService(repo, nil, NewMediaService(newMemStore()), 5)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 1, Title: "t", Category: "Go"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "category", appErr.Field)
}

func TestPostService_CreatePostWithImage(t *testing.T) {
	store := newMemStore()
	svc := NewPostService(noopPostRepo(), nil, NewMediaService(store), 5)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:     1,
		Title:      "Decorators",
		Category:   "Python",
		ImageTitle: "Snakes",
		Image:      testutil.FileHeader(t, "bg.png", testutil.PNG(t, 1600, 1000)),
	})
	require.NoError(t, err)

	assert.Contains(t, store.objects, post.ImageFilename)
	assert.Regexp(t, `^images/background_images/[0-9a-f]{16}\.png$`, post.ImageFilename)
	assert.Equal(t, "Snakes", post.ImageTitle)
}

func TestPostService_NonAuthorCannotMutate(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1, Title: "original", Category: "SQL"}, nil
	}
	repo.updateFn = func(_ context.Context, _ *models.Post) error {
		t.Fatal("Update must not be called")
		return nil
	}
	repo.deleteFn = func(_ context.Context, _ uint) error {
		t.Fatal("Delete must not be called")
		return nil
	}
	svc := NewPostService(repo, nil, NewMediaService(newMemStore()), 5)
	ctx := context.Background()

	_, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: 2, PostID: 10, Title: "hijack", Category: "SQL"})
	assert.True(t, models.IsCode(err, models.CodeForbidden))

	err = svc.DeletePost(ctx, DeletePostInput{UserID: 2, PostID: 10})
	assert.True(t, models.IsCode(err, models.CodeForbidden))
}

func TestPostService_MissingPostIsNotFoundBeforeForbidden(t *testing.T) {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return nil, models.NewNotFoundError("Post", id)
	}
	svc := NewPostService(repo, nil, NewMediaService(newMemStore()), 5)

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 2, PostID: 99, Category: "SQL"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	err = svc.DeletePost(context.Background(), DeletePostInput{UserID: 2, PostID: 99})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostService_PageNormalization(t *testing.T) {
	repo := noopPostRepo()
	var asked int
	repo.listFn = func(_ context.Context, page, perPage int) (models.Page[models.Post], error) {
		asked = page
		return models.Page[models.Post]{Page: page, PerPage: perPage, Total: 12}, nil
	}
	svc := NewPostService(repo, nil, NewMediaService(newMemStore()), 5)
	ctx := context.Background()

	_, err := svc.ListPosts(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, asked)

	_, err = svc.ListPosts(ctx, 3)
	require.NoError(t, err)

	_, err = svc.ListPosts(ctx, 4)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostService_EmptyFirstPageIsFine(t *testing.T) {
	svc := NewPostService(noopPostRepo(), nil, NewMediaService(newMemStore()), 5)

	page, err := svc.ListCategoryPosts(context.Background(), "Concepts", 1)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	_, err = svc.ListCategoryPosts(context.Background(), "Concepts", 2)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

// The remaining tests run against SQLite.

func newPostServiceDB(t *testing.T) (*PostService, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	svc := NewPostService(
		repository.NewPostRepository(db),
		repository.NewUserRepository(db),
		NewMediaService(newMemStore()),
		5,
	)
	return svc, db
}

func TestPostService_ListUserPostsOrder(t *testing.T) {
	svc, db := newPostServiceDB(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob", "bob@example.com")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 12; i++ {
		testutil.CreatePost(t, db, alice, fmt.Sprintf("alice-%02d", i), "Python", base.Add(time.Duration(i)*time.Hour))
	}
	testutil.CreatePost(t, db, bob, "bob-01", "SQL", base.Add(100*time.Hour))

	user, page, err := svc.ListUserPosts(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 3, page.Pages())

	var titles []string
	for _, p := range page.Items {
		titles = append(titles, p.Title)
		assert.Equal(t, "alice", p.Author.Username)
	}
	assert.Equal(t, []string{"alice-07", "alice-06", "alice-05", "alice-04", "alice-03"}, titles)

	_, _, err = svc.ListUserPosts(ctx, "carol", 1)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	_, _, err = svc.ListUserPosts(ctx, "alice", 4)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostService_UpdateKeepsDateAndOwner(t *testing.T) {
	svc, db := newPostServiceDB(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")
	posted := time.Date(2023, 6, 1, 9, 30, 0, 0, time.UTC)
	post := testutil.CreatePost(t, db, alice, "draft", "Other", posted)

	_, err := svc.UpdatePost(ctx, UpdatePostInput{
		UserID:       alice.ID,
		PostID:       post.ID,
		Title:        "final",
		Introduction: "new intro",
		Content:      "new body",
		Category:     "Concepts",
		ImageTitle:   "Cover",
	})
	require.NoError(t, err)

	stored, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", stored.Title)
	assert.Equal(t, "Concepts", stored.Category)
	assert.Equal(t, "Cover", stored.ImageTitle)
	assert.Equal(t, alice.ID, stored.UserID)
	assert.True(t, posted.Equal(stored.DatePosted))
}

func TestPostService_CategoriesFollowWrites(t *testing.T) {
	svc, db := newPostServiceDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)

	post, err := svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Title: "a", Introduction: "i", Content: "c", Category: "SQL"})
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Title: "b", Introduction: "i", Content: "c", Category: "Python"})
	require.NoError(t, err)

	cats, err = svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Python", "SQL"}, cats)

	require.NoError(t, svc.DeletePost(ctx, DeletePostInput{UserID: alice.ID, PostID: post.ID}))

	cats, err = svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Python"}, cats)

	_, err = svc.GetPost(ctx, post.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
