package server

import (
	"quill/internal/models"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /blog/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, ok := s.requireUser(c)
	if !ok {
		return nil
	}

	postID := c.Params("id")
	content := c.FormValue("content")
	if err := validation.ValidateComment(content); err != nil {
		return s.respondError(c, models.NewValidationError(err.Error()))
	}

	// Commenting on a missing post surfaces as 404, not a foreign key error.
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return s.respondError(c, err)
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  user.ID,
		Content: content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return s.respondError(c, err)
	}

	return c.Redirect("/blog/posts/"+postID, fiber.StatusSeeOther)
}

// UpdateComment handles POST /comments/:id
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, ok := s.requireUser(c)
	if !ok {
		return nil
	}

	content := c.FormValue("content")
	if err := validation.ValidateComment(content); err != nil {
		return s.respondError(c, models.NewValidationError(err.Error()))
	}

	comment, err := s.commentRepo.GetByID(ctx, c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	if comment.UserID != user.ID {
		return s.respondError(c,
			models.NewForbiddenError("You can only edit your own comments"))
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return s.respondError(c, err)
	}

	return c.Redirect("/blog/posts/"+comment.PostID, fiber.StatusSeeOther)
}

// DeleteComment handles POST and DELETE /comments/:id/delete
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, ok := s.requireUser(c)
	if !ok {
		return nil
	}

	comment, err := s.commentRepo.GetByID(ctx, c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	if comment.UserID != user.ID {
		return s.respondError(c,
			models.NewForbiddenError("You can only delete your own comments"))
	}

	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return s.respondError(c, err)
	}

	return c.Redirect("/blog/posts/"+comment.PostID, fiber.StatusSeeOther)
}
