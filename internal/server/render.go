package server

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"unnest/internal/models"
	"unnest/internal/service"
	"unnest/internal/validation"
	"unnest/web"

	"github.com/gofiber/fiber/v2"
)

// HTMLData is everything a page template can see.
type HTMLData struct {
	Title       string
	Path        string
	CurrentUser *models.User
	Flashes     []Flash
	Categories  []string
	CSRFToken   string

	Form   any
	Errors validation.Errors

	Post            *models.Post
	Posts           *models.Page[models.Post]
	Author          *models.User
	PageURL         string
	Heading         string
	Subheading      string
	CategoryChoices []string
}

type views struct {
	pages map[string]*template.Template
}

func newViews(media *service.MediaService) (*views, error) {
	funcs := template.FuncMap{
		"profileImage": func(u models.User) string { return media.ProfileImageURL(&u) },
		"postImage":    func(p models.Post) string { return media.PostImageURL(&p) },
		"date":         func(t time.Time) string { return t.Format("2006-01-02") },
		"pageURL":      pageURL,
	}

	files, err := fs.Glob(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}

	v := &views{pages: map[string]*template.Template{}}
	for _, file := range files {
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		if name == "base" {
			continue
		}
		t, err := template.New(name).Funcs(funcs).ParseFS(web.Templates, "templates/base.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// render writes page with status, filling in the fields every page needs.
func (s *Server) render(c *fiber.Ctx, status int, page string, data *HTMLData) error {
	t, ok := s.views.pages[page]
	if !ok {
		return fmt.Errorf("unknown template %q", page)
	}
	if data == nil {
		data = &HTMLData{}
	}

	data.Path = c.Path()
	data.CurrentUser = currentUser(c)
	data.Flashes = takeFlashes(c)
	if token, ok := c.Locals(csrfContextKey).(string); ok {
		data.CSRFToken = token
	}

	// Navigation is recomputed on every request so it tracks writes immediately.
	categories, err := s.postService.Categories(c.UserContext())
	if err != nil {
		return err
	}
	data.Categories = categories

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	c.Status(status)
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func pageURL(base string, page int) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("page", fmt.Sprint(page))
	u.RawQuery = q.Encode()
	return u.String()
}
