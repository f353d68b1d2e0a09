package server

import (
	"io"
	"log/slog"
	"mime/multipart"

	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/service"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /blog/posts. A failed backend read degrades to an
// empty listing instead of an error page.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	posts, err := s.postRepo.List(c.UserContext(), listPostsLimit)
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "listing posts failed",
			slog.String("error", err.Error()))
		posts = nil
	}

	return s.render(c, "blog/posts", fiber.Map{
		"Title": "Posts",
		"Posts": posts,
	})
}

// NewPostPage handles GET /blog/posts/new
func (s *Server) NewPostPage(c *fiber.Ctx) error {
	if _, ok := s.requireUser(c); !ok {
		return nil
	}
	return s.render(c, "blog/post_new", fiber.Map{"Title": "New Post"})
}

// CreatePost handles POST /blog/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, ok := s.requireUser(c)
	if !ok {
		return nil
	}

	title := c.FormValue("title")
	content := c.FormValue("content")
	if err := validation.ValidatePostForm(title, content); err != nil {
		return s.respondError(c, models.NewValidationError(err.Error()))
	}

	// Best effort: a failed upload leaves the post without an image, it
	// never aborts the create.
	imageURL := s.attachFormImage(c)

	post := &models.Post{
		Title:    title,
		Content:  content,
		ImageURL: imageURL,
		UserID:   user.ID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return s.respondError(c, err)
	}

	return c.Redirect("/blog/posts/"+post.ID, fiber.StatusSeeOther)
}

// ShowPost handles GET /blog/posts/:id
func (s *Server) ShowPost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	postID := c.Params("id")

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if models.IsNotFound(err) {
			return s.renderError(c, fiber.StatusNotFound, "Post not found")
		}
		return s.renderError(c, fiber.StatusBadGateway, "The backend is unavailable right now")
	}

	// Comments and the view counter degrade independently of the post body.
	comments, err := s.commentRepo.ListForPost(ctx, postID)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "listing comments failed",
			slog.String("post_id", postID),
			slog.String("error", err.Error()))
		comments = nil
	}

	viewCount, err := s.viewRepo.CountForPost(ctx, postID)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "counting views failed",
			slog.String("post_id", postID),
			slog.String("error", err.Error()))
		viewCount = 0
	}

	user := s.currentUser(c)
	if user != nil {
		// Fire-and-forget, deliberately without deduplication: a reload by
		// the same user appends another row.
		if recordErr := s.viewRepo.Record(ctx, postID, user.ID); recordErr != nil {
			middleware.Logger.ErrorContext(ctx, "recording post view failed",
				slog.String("post_id", postID),
				slog.String("error", recordErr.Error()))
		}
	}

	return s.render(c, "blog/post_detail", fiber.Map{
		"Title":     post.Title,
		"Post":      post,
		"Comments":  comments,
		"ViewCount": viewCount,
		"IsOwner":   user != nil && user.ID == post.UserID,
	})
}

// EditPostPage handles GET /blog/posts/:id/edit
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, ok := s.requireUser(c)
	if !ok {
		return nil
	}

	post, err := s.postRepo.GetByID(ctx, c.Params("id"))
	if err != nil {
		if models.IsNotFound(err) {
			return s.renderError(c, fiber.StatusNotFound, "Post not found")
		}
		return s.respondError(c, err)
	}
	if post.UserID != user.ID {
		return s.renderError(c, fiber.StatusForbidden, "You can only edit your own posts")
	}

	return s.render(c, "blog/post_edit", fiber.Map{
		"Title": "Edit Post",
		"Post":  post,
	})
}

// UpdatePost handles POST /blog/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, ok := s.requireUser(c)
	if !ok {
		return nil
	}

	// Ownership is read immediately before the mutation; there is no
	// transaction spanning both calls.
	post, err := s.postRepo.GetByID(ctx, c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	if post.UserID != user.ID {
		return s.respondError(c,
			models.NewForbiddenError("You can only update your own posts"))
	}

	title := c.FormValue("title")
	content := c.FormValue("content")
	if err := validation.ValidatePostForm(title, content); err != nil {
		return s.respondError(c, models.NewValidationError(err.Error()))
	}
	post.Title = title
	post.Content = content

	switch {
	case c.FormValue("remove_image") != "":
		if post.ImageURL != "" {
			_ = s.images.Remove(ctx, post.ImageURL) // best effort
		}
		post.ImageURL = ""
	default:
		if newURL, uploaded := s.replaceFormImage(c, post.ImageURL); uploaded {
			post.ImageURL = newURL
		}
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return s.respondError(c, err)
	}

	return c.Redirect("/blog/posts/"+post.ID, fiber.StatusSeeOther)
}

// DeletePost handles POST /blog/posts/:id/delete
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, ok := s.requireUser(c)
	if !ok {
		return nil
	}

	post, err := s.postRepo.GetByID(ctx, c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	if post.UserID != user.ID {
		return s.respondError(c,
			models.NewForbiddenError("You can only delete your own posts"))
	}

	// The stored image goes first; a failed delete is logged and never
	// blocks removing the post itself.
	if post.ImageURL != "" {
		_ = s.images.Remove(ctx, post.ImageURL)
	}

	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return s.respondError(c, err)
	}

	return c.Redirect("/blog/posts", fiber.StatusSeeOther)
}

// attachFormImage uploads the request's "image" file, if any, and returns
// its public URL. Failures are logged by the image service and yield "".
func (s *Server) attachFormImage(c *fiber.Ctx) string {
	header, err := c.FormFile("image")
	if err != nil || header == nil || header.Size == 0 {
		return ""
	}

	content, contentType, err := readMultipartFile(header)
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "reading uploaded image failed",
			slog.String("error", err.Error()))
		return ""
	}

	url, err := s.images.Attach(c.UserContext(), service.AttachImageInput{
		Filename:    header.Filename,
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		return ""
	}
	return url
}

// replaceFormImage handles the image-replacement half of an update: when a
// new file is attached the old object is deleted best-effort and the new
// upload's URL is returned. uploaded is false when no file was attached.
func (s *Server) replaceFormImage(c *fiber.Ctx, oldURL string) (string, bool) {
	header, err := c.FormFile("image")
	if err != nil || header == nil || header.Size == 0 {
		return "", false
	}

	if oldURL != "" {
		_ = s.images.Remove(c.UserContext(), oldURL)
	}
	return s.attachFormImage(c), true
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, string, error) {
	file, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return content, header.Header.Get("Content-Type"), nil
}
