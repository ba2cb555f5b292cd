package repository

import (
	"context"
	"errors"

	"unnest/internal/models"

	"gorm.io/gorm"
)

// newestFirst is the ordering every listing uses. id breaks ties between posts
// created within the same clock tick.
const newestFirst = "date_posted DESC, id DESC"

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// Update writes the editable columns. date_posted and user_id never change.
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page, perPage int) (models.Page[models.Post], error)
	ListByUser(ctx context.Context, userID uint, page, perPage int) (models.Page[models.Post], error)
	ListByCategory(ctx context.Context, category string, page, perPage int) (models.Page[models.Post], error)
	// Categories returns the distinct categories currently in use, sorted.
	Categories(ctx context.Context) ([]string, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (err error) {
	ctx, done := instrument(ctx, r.db, "CreatePost", "post")
	defer func() { done(err) }()

	// Omit the association so the author row is never re-saved.
	if err := r.db.WithContext(ctx).Omit("Author").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (post *models.Post, err error) {
	ctx, done := instrument(ctx, r.db, "GetPostByID", "post")
	defer func() { done(err) }()

	var p models.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &p, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) (err error) {
	ctx, done := instrument(ctx, r.db, "UpdatePost", "post")
	defer func() { done(err) }()

	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"title":          post.Title,
			"introduction":   post.Introduction,
			"content":        post.Content,
			"category":       post.Category,
			"image_filename": post.ImageFilename,
			"image_title":    post.ImageTitle,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) (err error) {
	ctx, done := instrument(ctx, r.db, "DeletePost", "post")
	defer func() { done(err) }()

	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) List(ctx context.Context, page, perPage int) (models.Page[models.Post], error) {
	return r.paginate(ctx, "ListPosts", page, perPage, func(db *gorm.DB) *gorm.DB {
		return db
	})
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, page, perPage int) (models.Page[models.Post], error) {
	return r.paginate(ctx, "ListPostsByUser", page, perPage, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	})
}

func (r *postRepository) ListByCategory(ctx context.Context, category string, page, perPage int) (models.Page[models.Post], error) {
	return r.paginate(ctx, "ListPostsByCategory", page, perPage, func(db *gorm.DB) *gorm.DB {
		return db.Where("category = ?", category)
	})
}

func (r *postRepository) paginate(
	ctx context.Context,
	method string,
	page, perPage int,
	scope func(*gorm.DB) *gorm.DB,
) (result models.Page[models.Post], err error) {
	ctx, done := instrument(ctx, r.db, method, "post")
	defer func() { done(err) }()

	if page < 1 {
		page = 1
	}
	result = models.Page[models.Post]{Page: page, PerPage: perPage}

	if err := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(scope).Count(&result.Total).Error; err != nil {
		return result, models.NewInternalError(err)
	}
	if result.Total == 0 {
		result.Items = []models.Post{}
		return result, nil
	}

	var posts []models.Post
	err = r.db.WithContext(ctx).
		Scopes(scope).
		Preload("Author").
		Order(newestFirst).
		Limit(perPage).
		Offset(models.Offset(page, perPage)).
		Find(&posts).Error
	if err != nil {
		return result, models.NewInternalError(err)
	}
	result.Items = posts
	return result, nil
}

func (r *postRepository) Categories(ctx context.Context) (categories []string, err error) {
	ctx, done := instrument(ctx, r.db, "ListCategories", "post")
	defer func() { done(err) }()

	categories = []string{}
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return categories, nil
}
