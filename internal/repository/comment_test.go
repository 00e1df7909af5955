package repository

import (
	"context"
	"testing"
	"time"

	"bulletin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_CreateRequiresPost(t *testing.T) {
	t.Parallel()
	db := setupDB(t)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	err := comments.Create(ctx, &models.Comment{PostID: 404, Author: "alice01", Content: "hi"})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestCommentRepository_ListNewestFirst(t *testing.T) {
	t.Parallel()
	db := setupDB(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	post := &models.Post{Title: "t", Content: "c", Board: "Cafeteria", Author: "alice01"}
	require.NoError(t, posts.Create(ctx, post))

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		require.NoError(t, comments.Create(ctx, &models.Comment{
			PostID:    post.ID,
			Author:    "bob",
			Content:   text,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Content)
	assert.Equal(t, "first", list[2].Content)
}

func TestCommentRepository_ListMissingPostIsEmpty(t *testing.T) {
	t.Parallel()
	comments := NewCommentRepository(setupDB(t))

	list, err := comments.ListByPost(context.Background(), 999)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
