package service

import (
	"context"
	"math"
	"strings"

	"bulletin/internal/featureflags"
	"bulletin/internal/middleware"
	"bulletin/internal/models"
	"bulletin/internal/observability"
	"bulletin/internal/repository"
	"bulletin/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// Listing limits.
const (
	DefaultPerPage = 10
	MaxPerPage     = 50
)

// CreatePostInput is a new post with its uploaded files.
type CreatePostInput struct {
	Author  string   `json:"-"`
	Title   string   `json:"title" validate:"notblank,max=200"`
	Content string   `json:"content" validate:"notblank,max=20000"`
	Board   string   `json:"board" validate:"notblank,max=64"`
	Files   []Upload `json:"-"`
}

// ListPostsInput selects one page of posts. Out-of-range values are clamped.
type ListPostsInput struct {
	Board   string
	Page    int
	PerPage int
}

// PostService implements post creation, listing, deletion and likes.
type PostService struct {
	posts       repository.PostRepository
	attachments *AttachmentService
	flags       *featureflags.Manager
	boards      []string
}

// NewPostService wires a PostService. boards is enforced only while the
// strict_boards flag is on.
func NewPostService(
	posts repository.PostRepository,
	attachments *AttachmentService,
	flags *featureflags.Manager,
	boards []string,
) *PostService {
	return &PostService{
		posts:       posts,
		attachments: attachments,
		flags:       flags,
		boards:      boards,
	}
}

// Boards returns the configured board names.
func (s *PostService) Boards() []string {
	return append([]string(nil), s.boards...)
}

// CreatePost validates the post and every file, inserts the post, stores the
// files and records them on the post. When a file cannot be stored the files
// already written are removed and the post is kept without images.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Author == "" {
		return nil, models.NewUnauthorizedError("Login required")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Board = strings.TrimSpace(in.Board)

	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if s.flags.On(featureflags.StrictBoards) {
		if err := validation.ValidateBoard(in.Board, s.boards); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	for _, f := range in.Files {
		if err := s.attachments.Validate(f); err != nil {
			return nil, err
		}
	}

	ctx, end := observability.StartSpan(ctx, "PostService.CreatePost",
		attribute.String("board", in.Board), attribute.Int("files", len(in.Files)))
	var err error
	defer func() { end(err) }()

	post := &models.Post{
		Title:   in.Title,
		Content: in.Content,
		Board:   in.Board,
		Author:  in.Author,
	}
	if err = s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	if len(in.Files) == 0 {
		return post, nil
	}

	var stored []models.Attachment
	stored, err = s.attachments.StoreAll(ctx, post.ID, in.Files)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "storing attachments failed, post kept without images",
			"post_id", post.ID, "files", len(in.Files), "error", err.Error())
		return nil, err
	}

	if err = s.posts.AttachImages(ctx, post.ID, stored); err != nil {
		s.attachments.RemoveAll(ctx, stored)
		return nil, err
	}

	post.Attachments = stored
	post.Images = make([]string, 0, len(stored))
	for _, a := range stored {
		post.Images = append(post.Images, a.URL)
	}
	return post, nil
}

// ListPosts returns one page of posts, newest first.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*models.PostPage, error) {
	page, perPage := ClampPage(in.Page, in.PerPage)

	items, total, err := s.posts.List(ctx, repository.PostFilter{
		Board:  strings.TrimSpace(in.Board),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		return nil, err
	}

	return &models.PostPage{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	}, nil
}

// ClampPage normalizes paging input: page is at least 1, perPage lies in
// [1, MaxPerPage] and a missing perPage selects DefaultPerPage.
func ClampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case perPage == 0:
		perPage = DefaultPerPage
	case perPage < 1:
		perPage = 1
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return page, perPage
}

// GetPost returns a post with its likes and attachments.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	if id == 0 {
		return nil, models.NewNotFoundError("Post", id)
	}
	return s.posts.GetByID(ctx, id)
}

// DeletePost removes the requester's own post, then its files on a best-effort basis.
func (s *PostService) DeletePost(ctx context.Context, id uint, requester string) error {
	if requester == "" {
		return models.NewUnauthorizedError("Login required")
	}
	if id == 0 {
		return models.NewNotFoundError("Post", id)
	}

	post, err := s.posts.Delete(ctx, id, requester)
	if err != nil {
		return err
	}
	for _, url := range post.Images {
		s.attachments.Remove(ctx, url)
	}
	return nil
}

// ToggleLike likes the post for username, or removes an existing like.
func (s *PostService) ToggleLike(ctx context.Context, id uint, username string) (*models.LikeResult, error) {
	if username == "" {
		return nil, models.NewUnauthorizedError("Login required")
	}
	if id == 0 {
		return nil, models.NewNotFoundError("Post", id)
	}
	return s.posts.ToggleLike(ctx, id, username)
}
