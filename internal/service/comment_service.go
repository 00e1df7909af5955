package service

import (
	"context"
	"strings"

	"bulletin/internal/models"
	"bulletin/internal/repository"
	"bulletin/internal/validation"
)

// CommentService creates and lists comments on posts.
type CommentService struct {
	commentRepo repository.CommentRepository
}

// CreateCommentInput is a new comment.
type CreateCommentInput struct {
	PostID  uint   `json:"-"`
	Author  string `json:"-"`
	Content string `json:"content" validate:"notblank,max=2000"`
}

func NewCommentService(commentRepo repository.CommentRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo}
}

// CreateComment validates the content before checking that the post exists.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.Author == "" {
		return nil, models.NewUnauthorizedError("Login required")
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.PostID == 0 {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		Author:  in.Author,
		Content: in.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns a post's comments, newest first; unknown posts yield an empty list.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if postID == 0 {
		return []*models.Comment{}, nil
	}
	return s.commentRepo.ListByPost(ctx, postID)
}
