// Package seed fills a database with demo users and posts for development.
// Everything goes through the service layer, so seeded rows obey the same
// hashing and category rules as rows created from the web forms.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"unnest/internal/middleware"
	"unnest/internal/models"
	"unnest/internal/service"

	"gopkg.in/yaml.v3"
)

// DefaultPassword is used for generated users and for fixture users that
// leave password empty.
const DefaultPassword = "password"

// Options configures random generation.
type Options struct {
	NumUsers int
	NumPosts int
	Password string
}

// Fixtures is the YAML document accepted by LoadFixtures.
//
//	users:
//	  - username: alice
//	    email: alice@example.com
//	    bio: Writes about SQL.
//	posts:
//	  - author: alice
//	    title: Window functions
//	    category: SQL
type Fixtures struct {
	Users []UserFixture `yaml:"users"`
	Posts []PostFixture `yaml:"posts"`
}

type UserFixture struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Bio      string `yaml:"bio"`
}

type PostFixture struct {
	Author       string `yaml:"author"`
	Title        string `yaml:"title"`
	Introduction string `yaml:"introduction"`
	Content      string `yaml:"content"`
	Category     string `yaml:"category"`
	ImageTitle   string `yaml:"image_title"`
}

// Result counts what a seeding run created.
type Result struct {
	Users int
	Posts int
}

// LoadFixtures decodes a fixtures document. Unknown keys are rejected so a
// typo does not silently drop data.
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixtures
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &f, nil
}

// LoadFixturesFile reads fixtures from path.
func LoadFixturesFile(path string) (*Fixtures, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer file.Close()
	return LoadFixtures(file)
}

// Seeder creates users and posts through the services.
type Seeder struct {
	auth    *service.AuthService
	users   *service.UserService
	posts   *service.PostService
	factory *Factory
}

func NewSeeder(auth *service.AuthService, users *service.UserService, posts *service.PostService, factory *Factory) *Seeder {
	if factory == nil {
		factory = NewFactory(0)
	}
	return &Seeder{auth: auth, users: users, posts: posts, factory: factory}
}

// ApplyFixtures creates the fixture users, then their posts. A post whose
// author is neither in the fixtures nor already in the database fails the run.
func (s *Seeder) ApplyFixtures(ctx context.Context, f *Fixtures) (Result, error) {
	var res Result
	for _, uf := range f.Users {
		if _, err := s.createUser(ctx, uf); err != nil {
			return res, fmt.Errorf("user %q: %w", uf.Username, err)
		}
		res.Users++
	}

	for i, pf := range f.Posts {
		author, err := s.users.GetUserByUsername(ctx, pf.Author)
		if err != nil {
			return res, fmt.Errorf("post %d: author %q: %w", i+1, pf.Author, err)
		}
		if _, err := s.posts.CreatePost(ctx, service.CreatePostInput{
			UserID:       author.ID,
			Title:        pf.Title,
			Introduction: pf.Introduction,
			Content:      pf.Content,
			Category:     pf.Category,
			ImageTitle:   pf.ImageTitle,
		}); err != nil {
			return res, fmt.Errorf("post %d %q: %w", i+1, pf.Title, err)
		}
		res.Posts++
	}

	middleware.Logger.InfoContext(ctx, "fixtures applied", "users", res.Users, "posts", res.Posts)
	return res, nil
}

// Generate creates opts.NumUsers fake users and spreads opts.NumPosts fake
// posts across them round-robin.
func (s *Seeder) Generate(ctx context.Context, opts Options) (Result, error) {
	var res Result
	if opts.NumUsers <= 0 {
		if opts.NumPosts > 0 {
			return res, errors.New("posts need at least one user")
		}
		return res, nil
	}
	password := opts.Password
	if password == "" {
		password = DefaultPassword
	}

	authors := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		uf := s.factory.User(i)
		uf.Password = password
		user, err := s.createUser(ctx, uf)
		if err != nil {
			return res, fmt.Errorf("generated user %q: %w", uf.Username, err)
		}
		authors = append(authors, user)
		res.Users++
	}

	for i := 0; i < opts.NumPosts; i++ {
		author := authors[i%len(authors)]
		pf := s.factory.Post()
		if _, err := s.posts.CreatePost(ctx, service.CreatePostInput{
			UserID:       author.ID,
			Title:        pf.Title,
			Introduction: pf.Introduction,
			Content:      pf.Content,
			Category:     pf.Category,
			ImageTitle:   pf.ImageTitle,
		}); err != nil {
			return res, fmt.Errorf("generated post %d: %w", i+1, err)
		}
		res.Posts++
	}

	middleware.Logger.InfoContext(ctx, "demo data generated", "users", res.Users, "posts", res.Posts)
	return res, nil
}

func (s *Seeder) createUser(ctx context.Context, uf UserFixture) (*models.User, error) {
	password := uf.Password
	if password == "" {
		password = DefaultPassword
	}
	user, err := s.auth.Register(ctx, service.RegisterInput{
		Username: uf.Username,
		Email:    uf.Email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	if uf.Bio == "" {
		return user, nil
	}
	return s.users.UpdateAccount(ctx, service.UpdateAccountInput{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Bio:      uf.Bio,
	})
}
