package service

import (
	"context"
	"errors"
	"testing"

	"bulletin/internal/models"
	"bulletin/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn           func(context.Context, *models.User) error
	getByUsernameFn    func(context.Context, string) (*models.User, error)
	deleteByUsernameFn func(context.Context, string) error
	countFn            func(context.Context) (int64, error)
}

var _ repository.UserRepository = (*userRepoStub)(nil)

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) DeleteByUsername(ctx context.Context, username string) error {
	return s.deleteByUsernameFn(ctx, username)
}
func (s *userRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		getByUsernameFn: func(_ context.Context, name string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", name)
		},
		deleteByUsernameFn: func(_ context.Context, _ string) error { return nil },
		countFn:            func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn       func(context.Context, *models.Post) error
	getByIDFn      func(context.Context, uint) (*models.Post, error)
	listFn         func(context.Context, repository.PostFilter) ([]*models.Post, int64, error)
	attachImagesFn func(context.Context, uint, []models.Attachment) error
	deleteFn       func(context.Context, uint, string) (*models.Post, error)
	toggleLikeFn   func(context.Context, uint, string) (*models.LikeResult, error)
}

var _ repository.PostRepository = (*postRepoStub)(nil)

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter) ([]*models.Post, int64, error) {
	return s.listFn(ctx, filter)
}
func (s *postRepoStub) AttachImages(ctx context.Context, postID uint, atts []models.Attachment) error {
	return s.attachImagesFn(ctx, postID, atts)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint, requester string) (*models.Post, error) {
	return s.deleteFn(ctx, id, requester)
}
func (s *postRepoStub) ToggleLike(ctx context.Context, id uint, username string) (*models.LikeResult, error) {
	return s.toggleLikeFn(ctx, id, username)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn: func(_ context.Context, _ repository.PostFilter) ([]*models.Post, int64, error) {
			return []*models.Post{}, 0, nil
		},
		attachImagesFn: func(_ context.Context, _ uint, _ []models.Attachment) error { return nil },
		deleteFn: func(_ context.Context, id uint, requester string) (*models.Post, error) {
			return &models.Post{ID: id, Author: requester}, nil
		},
		toggleLikeFn: func(_ context.Context, _ uint, _ string) (*models.LikeResult, error) {
			return &models.LikeResult{LikesCount: 1, Liked: true}, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
}

var _ repository.CommentRepository = (*commentRepoStub)(nil)

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return []*models.Comment{}, nil },
	}
}
