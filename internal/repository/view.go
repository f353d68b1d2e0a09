package repository

import (
	"context"

	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/supabase"
)

// ViewRepository defines the interface for the append-only post view log.
type ViewRepository interface {
	Record(ctx context.Context, postID, userID string) error
	CountForPost(ctx context.Context, postID string) (int64, error)
}

// viewRepository implements ViewRepository
type viewRepository struct {
	backend *supabase.Client
	log     *observability.RepoLogger
}

// NewViewRepository creates a new post view repository
func NewViewRepository(backend *supabase.Client) ViewRepository {
	return &viewRepository{
		backend: backend,
		log:     observability.NewRepoLogger("post_views"),
	}
}

// Record appends one view row. Reloads by the same user append again; the log
// is intentionally not deduplicated.
func (r *viewRepository) Record(ctx context.Context, postID, userID string) error {
	view := models.PostView{PostID: postID, UserID: userID}
	if err := r.backend.From("post_views").Insert(ctx, view, nil); err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	observability.PostViewsRecorded.Inc()
	r.log.LogWrite(ctx, "create", map[string]any{"post_id": postID, "user_id": userID})
	return nil
}

func (r *viewRepository) CountForPost(ctx context.Context, postID string) (int64, error) {
	return r.backend.From("post_views").
		Eq("post_id", postID).
		Count(ctx)
}
