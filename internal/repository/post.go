// Package repository provides data access layer implementations over the
// remote backend's table API.
package repository

import (
	"context"

	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/supabase"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, limit int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
}

// postRepository implements PostRepository
type postRepository struct {
	backend *supabase.Client
	log     *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(backend *supabase.Client) PostRepository {
	return &postRepository{
		backend: backend,
		log:     observability.NewRepoLogger("posts"),
	}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	row := map[string]any{
		"title":     post.Title,
		"content":   post.Content,
		"user_id":   post.UserID,
		"image_url": post.ImageURL,
	}
	if err := r.backend.From("posts").Insert(ctx, row, post); err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogWrite(ctx, "create", map[string]any{"post_id": post.ID, "user_id": post.UserID})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.backend.From("posts").
		Eq("id", id).
		Single().
		Get(ctx, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.backend.From("posts").
		Order("created_at", true).
		Limit(limit).
		Get(ctx, &posts)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	patch := map[string]any{
		"title":     post.Title,
		"content":   post.Content,
		"image_url": post.ImageURL,
	}
	err := r.backend.From("posts").
		Eq("id", post.ID).
		Update(ctx, patch, post)
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return err
	}
	r.log.LogWrite(ctx, "update", map[string]any{"post_id": post.ID})
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	err := r.backend.From("posts").
		Eq("id", id).
		Delete(ctx)
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return err
	}
	r.log.LogWrite(ctx, "delete", map[string]any{"post_id": id})
	return nil
}
