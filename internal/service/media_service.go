package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"unnest/internal/middleware"
	"unnest/internal/models"
	"unnest/internal/observability"
	"unnest/internal/storage"

	xdraw "golang.org/x/image/draw"
)

// MediaKind selects where an upload is stored and how far it is shrunk.
type MediaKind string

const (
	MediaProfile    MediaKind = "profile"
	MediaBackground MediaKind = "background"
)

const (
	ProfilePicsDir      = "images/profile_pics"
	BackgroundImagesDir = "images/background_images"

	jpegQuality = 90
)

type mediaSpec struct {
	dir       string
	field     string
	maxWidth  int
	maxHeight int
}

var mediaSpecs = map[MediaKind]mediaSpec{
	MediaProfile:    {dir: ProfilePicsDir, field: "picture", maxWidth: 125, maxHeight: 125},
	MediaBackground: {dir: BackgroundImagesDir, field: "image", maxWidth: 800, maxHeight: 654},
}

// MediaService turns uploaded images into stored thumbnails.
type MediaService struct {
	store storage.Store
}

func NewMediaService(store storage.Store) *MediaService {
	return &MediaService{store: store}
}

// Save validates, shrinks and stores an upload, returning the new random
// filename (no directory). The image keeps its original format.
func (s *MediaService) Save(ctx context.Context, kind MediaKind, fh *multipart.FileHeader) (string, error) {
	spec, ok := mediaSpecs[kind]
	if !ok {
		return "", fmt.Errorf("unknown media kind %q", kind)
	}

	ext := filepath.Ext(fh.Filename)
	format, ok := imageFormat(ext)
	if !ok {
		return "", models.NewFieldError(spec.field, "File does not have an approved extension: jpg, png")
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	out, err := Thumbnail(data, format, spec.maxWidth, spec.maxHeight)
	if err != nil {
		return "", models.NewFieldError(spec.field, "Could not read the image file.")
	}

	name, err := randomName(ext)
	if err != nil {
		return "", err
	}
	key := path.Join(spec.dir, name)

	ctx, span := observability.GetTraceLayer("").TraceStorageOperation(ctx, s.store.Name(), key)
	err = s.store.Put(ctx, key, out, "image/"+format)
	observability.EndSpan(span, err)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", key, err)
	}

	observability.MediaStored.WithLabelValues(string(kind)).Inc()
	middleware.Logger.InfoContext(ctx, "media stored", "kind", kind, "key", key, "backend", s.store.Name())
	return name, nil
}

// ProfileImageURL is the public address of a user's avatar.
func (s *MediaService) ProfileImageURL(u *models.User) string {
	file := u.ImageFile
	if file == "" {
		file = models.DefaultProfileImage
	}
	return s.urlFor(path.Join(ProfilePicsDir, file), file == models.DefaultProfileImage)
}

// PostImageURL is the public address of a post's background image.
func (s *MediaService) PostImageURL(p *models.Post) string {
	key := p.ImageFilename
	if key == "" {
		key = models.DefaultPostImage
	}
	return s.urlFor(key, key == models.DefaultPostImage)
}

// Default images ship with the static assets, whatever the upload backend.
func (s *MediaService) urlFor(key string, builtin bool) string {
	if builtin {
		return "/static/" + key
	}
	return s.store.URL(key)
}

// Thumbnail decodes data, shrinks it to fit maxWidth×maxHeight and encodes
// it again as format ("jpeg" or "png").
func Thumbnail(data []byte, format string, maxWidth, maxHeight int) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	switch format {
	case "jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case "png":
		img, err = png.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	img = resizeToFit(img, maxWidth, maxHeight)

	var buf bytes.Buffer
	if format == "jpeg" {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func imageFormat(ext string) (string, bool) {
	switch strings.ToLower(ext) {
	case ".jpg":
		return "jpeg", true
	case ".png":
		return "png", true
	}
	return "", false
}

func randomName(ext string) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random filename: %w", err)
	}
	return hex.EncodeToString(b) + ext, nil
}

// resizeToFit scales src down to fit within the bounds, keeping its aspect
// ratio. Images that already fit are returned unchanged.
func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
