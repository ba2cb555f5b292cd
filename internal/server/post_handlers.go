package server

import (
	"fmt"
	"net/url"

	"unnest/internal/models"
	"unnest/internal/service"
	"unnest/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Home handles GET /, /home
func (s *Server) Home(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), parsePage(c))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "home", &HTMLData{
		Title:   "Home",
		Posts:   &page,
		PageURL: "/home",
	})
}

// UserPosts handles GET /user/:username
func (s *Server) UserPosts(c *fiber.Ctx) error {
	username, err := url.PathUnescape(c.Params("username"))
	if err != nil {
		return fiber.ErrNotFound
	}

	author, page, err := s.postService.ListUserPosts(c.UserContext(), username, parsePage(c))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "home", &HTMLData{
		Title:   author.Username,
		Author:  author,
		Posts:   &page,
		PageURL: "/user/" + url.PathEscape(author.Username),
	})
}

// CategoryPosts handles GET /category/:name
func (s *Server) CategoryPosts(c *fiber.Ctx) error {
	category, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return fiber.ErrNotFound
	}

	page, err := s.postService.ListCategoryPosts(c.UserContext(), category, parsePage(c))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "home", &HTMLData{
		Title:   category,
		Heading: category,
		Posts:   &page,
		PageURL: "/category/" + url.PathEscape(category),
	})
}

// ShowPost handles GET /post/:id
func (s *Server) ShowPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "post", &HTMLData{Title: post.Title, Post: post})
}

// NewPostPage handles GET /post/new
func (s *Server) NewPostPage(c *fiber.Ctx) error {
	return s.renderPostForm(c, &validation.PostForm{}, nil, false)
}

// CreatePost handles POST /post/new
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form, errs, err := s.bindPostForm(c)
	if err != nil {
		return err
	}
	if errs.Any() {
		return s.renderPostForm(c, form, errs, false)
	}

	_, err = s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:       currentUser(c).ID,
		Title:        form.Title,
		Introduction: form.Introduction,
		Content:      form.Content,
		Category:     form.Category,
		ImageTitle:   form.ImageTitle,
		Image:        form.Image,
	})
	if err != nil {
		if fieldError(errs, err) {
			return s.renderPostForm(c, form, errs, false)
		}
		return err
	}

	addFlash(c, "success", "Your post has been created!")
	return redirect(c, "/home")
}

// EditPostPage handles GET /post/:id/update
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	post, err := s.ownedPost(c)
	if err != nil {
		return err
	}
	form := &validation.PostForm{
		Title:        post.Title,
		Introduction: post.Introduction,
		Content:      post.Content,
		Category:     post.Category,
		ImageTitle:   post.ImageTitle,
	}
	return s.renderPostForm(c, form, nil, true)
}

// UpdatePost handles POST /post/:id/update
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	post, err := s.ownedPost(c)
	if err != nil {
		return err
	}

	form, errs, err := s.bindPostForm(c)
	if err != nil {
		return err
	}
	if errs.Any() {
		return s.renderPostForm(c, form, errs, true)
	}

	_, err = s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:       currentUser(c).ID,
		PostID:       post.ID,
		Title:        form.Title,
		Introduction: form.Introduction,
		Content:      form.Content,
		Category:     form.Category,
		ImageTitle:   form.ImageTitle,
		Image:        form.Image,
	})
	if err != nil {
		if fieldError(errs, err) {
			return s.renderPostForm(c, form, errs, true)
		}
		return err
	}

	addFlash(c, "success", "Your post has been updated!")
	return redirect(c, fmt.Sprintf("/post/%d", post.ID))
}

// DeletePost handles POST /post/:id/delete
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUser(c).ID,
		PostID: id,
	}); err != nil {
		return err
	}

	addFlash(c, "success", "Your post has been deleted!")
	return redirect(c, "/home")
}

// ownedPost loads the post named by :id, failing with 404 when it does not
// exist and 403 when the current author did not write it.
func (s *Server) ownedPost(c *fiber.Ctx) (*models.Post, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthoredBy(currentUser(c).ID) {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}
	return post, nil
}

func (s *Server) bindPostForm(c *fiber.Ctx) (*validation.PostForm, validation.Errors, error) {
	var form validation.PostForm
	if err := c.BodyParser(&form); err != nil {
		return nil, nil, fiber.ErrBadRequest
	}
	form.Image = optionalFile(c, "image")

	errs, err := form.Validate()
	if err != nil {
		return nil, nil, err
	}
	return &form, errs, nil
}

func (s *Server) renderPostForm(c *fiber.Ctx, form *validation.PostForm, errs validation.Errors, editing bool) error {
	data := &HTMLData{
		Title:           "New post",
		Heading:         "Create Post",
		Subheading:      "Create a new post",
		Form:            form,
		Errors:          errs,
		CategoryChoices: models.Categories,
	}
	if editing {
		data.Title = "Update post"
		data.Heading = "Update Post"
		data.Subheading = "Update existing post"
	}
	return s.render(c, fiber.StatusOK, "create_post", data)
}
