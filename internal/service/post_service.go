package service

import (
	"context"
	"mime/multipart"
	"path"
	"time"

	"unnest/internal/middleware"
	"unnest/internal/models"
	"unnest/internal/observability"
	"unnest/internal/repository"
)

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	media    *MediaService
	perPage  int
	now      func() time.Time
}

type CreatePostInput struct {
	UserID       uint
	Title        string
	Introduction string
	Content      string
	Category     string
	ImageTitle   string
	Image        *multipart.FileHeader
}

type UpdatePostInput struct {
	UserID       uint
	PostID       uint
	Title        string
	Introduction string
	Content      string
	Category     string
	ImageTitle   string
	Image        *multipart.FileHeader
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, media *MediaService, perPage int) *PostService {
	if perPage <= 0 {
		perPage = 5
	}
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		media:    media,
		perPage:  perPage,
		now:      time.Now,
	}
}

// CreatePost publishes a post for in.UserID. The timestamp is taken here, in
// UTC, and never changes afterwards.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if !models.IsValidCategory(in.Category) {
		return nil, models.NewFieldError("category", "Not a valid choice.")
	}

	post := &models.Post{
		Title:         in.Title,
		Introduction:  in.Introduction,
		Content:       in.Content,
		Category:      in.Category,
		ImageTitle:    in.ImageTitle,
		ImageFilename: models.DefaultPostImage,
		DatePosted:    s.now().UTC(),
		UserID:        in.UserID,
	}
	if post.ImageTitle == "" {
		post.ImageTitle = models.DefaultImageTitle
	}

	if in.Image != nil {
		key, err := s.saveBackground(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		post.ImageFilename = key
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	observability.PostsCreated.Inc()
	middleware.Logger.InfoContext(ctx, "post created", "post_id", post.ID, "category", post.Category)
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// UpdatePost edits a post owned by in.UserID. A missing post is reported
// before ownership is checked.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthoredBy(in.UserID) {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}
	if !models.IsValidCategory(in.Category) {
		return nil, models.NewFieldError("category", "Not a valid choice.")
	}

	if in.Image != nil {
		key, err := s.saveBackground(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		post.ImageFilename = key
	}

	post.Title = in.Title
	post.Introduction = in.Introduction
	post.Content = in.Content
	post.Category = in.Category
	if in.ImageTitle != "" {
		post.ImageTitle = in.ImageTitle
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "post updated", "post_id", post.ID)
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if !post.IsAuthoredBy(in.UserID) {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "post deleted", "post_id", post.ID)
	return nil
}

// ListPosts returns one page of every post, newest first.
func (s *PostService) ListPosts(ctx context.Context, page int) (models.Page[models.Post], error) {
	return s.checkPage(s.postRepo.List(ctx, normalizePage(page), s.perPage))
}

// ListUserPosts returns the author and one page of their posts.
func (s *PostService) ListUserPosts(ctx context.Context, username string, page int) (*models.User, models.Page[models.Post], error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, models.Page[models.Post]{}, err
	}
	if user == nil {
		return nil, models.Page[models.Post]{}, models.NewNotFoundError("User", username)
	}

	result, err := s.checkPage(s.postRepo.ListByUser(ctx, user.ID, normalizePage(page), s.perPage))
	return user, result, err
}

// ListCategoryPosts returns one page of posts with exactly category. An
// unknown category is simply an empty listing.
func (s *PostService) ListCategoryPosts(ctx context.Context, category string, page int) (models.Page[models.Post], error) {
	return s.checkPage(s.postRepo.ListByCategory(ctx, category, normalizePage(page), s.perPage))
}

// Categories lists the distinct categories present across all posts.
func (s *PostService) Categories(ctx context.Context) ([]string, error) {
	return s.postRepo.Categories(ctx)
}

func (s *PostService) saveBackground(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	name, err := s.media.Save(ctx, MediaBackground, fh)
	if err != nil {
		return "", err
	}
	return path.Join(BackgroundImagesDir, name), nil
}

// checkPage rejects pages past the end. Page 1 always exists, even when empty.
func (s *PostService) checkPage(result models.Page[models.Post], err error) (models.Page[models.Post], error) {
	if err != nil {
		return result, err
	}
	if result.Page > 1 && result.Page > result.Pages() {
		return models.Page[models.Post]{}, models.NewNotFoundError("Page", result.Page)
	}
	return result, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
