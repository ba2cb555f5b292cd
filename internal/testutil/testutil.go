// Package testutil provides shared fixtures for tests: an in-memory database,
// generated images and seeded rows.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"testing"
	"time"

	"unnest/internal/config"
	"unnest/internal/database"
	"unnest/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewTestDB returns a migrated in-memory SQLite database private to the test.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{
		Env:      "test",
		DBDriver: "sqlite",
		DBPath:   ":memory:",
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user whose password is "password".
func CreateUser(t *testing.T, db *gorm.DB, username, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:    username,
		Email:       email,
		Password:    string(hash),
		ImageFile:   models.DefaultProfileImage,
		AboutAuthor: models.DefaultAboutAuthor,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreatePost inserts a post by author dated at postedAt.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, title, category string, postedAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:         title,
		Introduction:  "Intro to " + title,
		Content:       "Body of " + title,
		Category:      category,
		DatePosted:    postedAt.UTC(),
		ImageFilename: models.DefaultPostImage,
		ImageTitle:    models.DefaultImageTitle,
		UserID:        author.ID,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// PNG encodes a solid w×h PNG.
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h)))
	return buf.Bytes()
}

// JPEG encodes a solid w×h JPEG.
func JPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h), &jpeg.Options{Quality: 80}))
	return buf.Bytes()
}

// FileHeader wraps data as an uploaded file named filename, as Fiber's
// FormFile would return it.
func FileHeader(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(int64(len(data)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := color.RGBA{R: 200, G: 120, B: 40, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}
