package repository

import (
	"context"

	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/supabase"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListForPost(ctx context.Context, postID string) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id string) error
}

// commentRepository implements CommentRepository
type commentRepository struct {
	backend *supabase.Client
	log     *observability.RepoLogger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(backend *supabase.Client) CommentRepository {
	return &commentRepository{
		backend: backend,
		log:     observability.NewRepoLogger("comments"),
	}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	row := map[string]any{
		"content": comment.Content,
		"post_id": comment.PostID,
		"user_id": comment.UserID,
	}
	if err := r.backend.From("comments").Insert(ctx, row, comment); err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogWrite(ctx, "create", map[string]any{
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"user_id":    comment.UserID,
	})
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.backend.From("comments").
		Eq("id", id).
		Single().
		Get(ctx, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListForPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.backend.From("comments").
		Eq("post_id", postID).
		Order("created_at", false).
		Get(ctx, &comments)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	patch := map[string]any{"content": comment.Content}
	err := r.backend.From("comments").
		Eq("id", comment.ID).
		Update(ctx, patch, comment)
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return err
	}
	r.log.LogWrite(ctx, "update", map[string]any{"comment_id": comment.ID})
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	err := r.backend.From("comments").
		Eq("id", id).
		Delete(ctx)
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return err
	}
	r.log.LogWrite(ctx, "delete", map[string]any{"comment_id": id})
	return nil
}
