package repository

import (
	"context"

	"bulletin/internal/models"
	"bulletin/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

// Create inserts comment after checking, in the same transaction, that its post exists.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Post{}).Where("id = ?", comment.PostID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return models.NewNotFoundError("Post", comment.PostID)
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		err = translate(err, "Post", comment.PostID)
		if models.IsCode(err, models.CodeStore) {
			r.log.LogError(ctx, err, "create")
		}
		return err
	}

	r.log.LogCreate(ctx, map[string]any{"post_id": comment.PostID, "author": comment.Author})
	return nil
}

// ListByPost returns the comments of a post, newest first. A missing post has no comments.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	defer observability.TrackQuery("list", "comments")()

	comments := make([]*models.Comment, 0)
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at desc").
		Order("id desc").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return comments, nil
}
