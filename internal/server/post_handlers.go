package server

import (
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postForm is the state of the create/edit form shown back to the author.
type postForm struct {
	Text    string
	GroupID uint
	Image   string
	Errors  map[string]string
}

// Selected reports whether the group option id is the current choice.
func (f postForm) Selected(id uint) bool {
	return f.GroupID != 0 && f.GroupID == id
}

func formFromPost(post *models.Post) postForm {
	form := postForm{Text: post.Text, Image: post.Image, Errors: map[string]string{}}
	if post.GroupID != nil {
		form.GroupID = *post.GroupID
	}
	return form
}

func formFromRequest(c *fiber.Ctx, errs map[string]string) postForm {
	form := postForm{Text: c.FormValue("text"), Errors: errs}
	if id := parseGroupID(c.FormValue("group")); id != nil {
		form.GroupID = *id
	}
	if form.Errors == nil {
		form.Errors = map[string]string{}
	}
	return form
}

func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	post, err := s.postService.GetPost(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.postService.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return err
	}
	comments, err := s.commentService.ListComments(ctx, post.ID)
	if err != nil {
		return err
	}

	viewerID := middleware.ViewerID(c)
	return s.render(c, fiber.StatusOK, "posts/post_detail", fiber.Map{
		"Title":           post.String(),
		"Post":            post,
		"AuthorPostCount": count,
		"Comments":        comments,
		"CanEdit":         viewerID != 0 && viewerID == post.AuthorID,
	})
}

func (s *Server) CreatePostForm(c *fiber.Ctx) error {
	return s.renderPostForm(c, fiber.StatusOK, postForm{Errors: map[string]string{}}, nil)
}

// CreatePost stores a post by the viewer and redirects to their profile.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	upload, err := readUpload(c, "image")
	if models.IsValidation(err) {
		return s.renderPostForm(c, fiber.StatusOK, formFromRequest(c, models.FieldErrors(err)), nil)
	}
	if err != nil {
		return err
	}
	_, err = s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: middleware.ViewerID(c),
		Text:     c.FormValue("text"),
		GroupID:  parseGroupID(c.FormValue("group")),
		Image:    upload,
	})
	if models.IsValidation(err) {
		return s.renderPostForm(c, fiber.StatusOK, formFromRequest(c, models.FieldErrors(err)), nil)
	}
	if err != nil {
		return err
	}

	username, _ := c.Locals("username").(string)
	return c.Redirect(profilePath(username), fiber.StatusFound)
}

// EditPostForm shows the edit form to the author; everyone else is sent to the post.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	access, err := s.postService.AuthorizeEdit(c.UserContext(), middleware.ViewerID(c), id)
	if err != nil {
		return err
	}
	if !access.Allowed {
		return c.Redirect(postPath(access.Post.ID), fiber.StatusFound)
	}
	return s.renderPostForm(c, fiber.StatusOK, formFromPost(access.Post), access.Post)
}

func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	viewerID := middleware.ViewerID(c)

	access, err := s.postService.AuthorizeEdit(ctx, viewerID, id)
	if err != nil {
		return err
	}
	if !access.Allowed {
		return c.Redirect(postPath(access.Post.ID), fiber.StatusFound)
	}

	upload, err := readUpload(c, "image")
	if err == nil {
		var post *models.Post
		post, err = s.postService.UpdatePost(ctx, service.UpdatePostInput{
			ViewerID:   viewerID,
			PostID:     id,
			Text:       c.FormValue("text"),
			GroupID:    parseGroupID(c.FormValue("group")),
			Image:      upload,
			ClearImage: c.FormValue("image-clear") != "",
		})
		if err == nil {
			return c.Redirect(postPath(post.ID), fiber.StatusFound)
		}
	}
	if models.IsValidation(err) {
		form := formFromRequest(c, models.FieldErrors(err))
		form.Image = access.Post.Image
		return s.renderPostForm(c, fiber.StatusOK, form, access.Post)
	}
	return err
}

// AddComment stores the viewer's comment. Empty comments are dropped silently;
// either way the viewer lands back on the post.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	_, err = s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		AuthorID: middleware.ViewerID(c),
		PostID:   id,
		Text:     c.FormValue("text"),
	})
	if err != nil && !models.IsValidation(err) {
		return err
	}
	return c.Redirect(postPath(id), fiber.StatusFound)
}

func (s *Server) renderPostForm(c *fiber.Ctx, status int, form postForm, post *models.Post) error {
	groups, err := s.postService.Groups(c.UserContext())
	if err != nil {
		return err
	}
	data := fiber.Map{
		"Title":  "New post",
		"Form":   form,
		"Groups": groups,
		"IsEdit": post != nil,
	}
	if post != nil {
		data["Title"] = "Edit post"
		data["PostID"] = post.ID
	}
	return s.render(c, status, "posts/create_post", data)
}
