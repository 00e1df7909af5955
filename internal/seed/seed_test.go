package seed

import (
	"testing"
	"time"

	"bulletin/internal/models"
	"bulletin/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBuildPost_StaysWithinLimits(t *testing.T) {
	t.Parallel()
	f := NewFactory(nil, Options{DryRun: true, MaxDays: 7, RandomSeed: 42})
	author := &models.User{Username: "alice123"}

	for i := 0; i < 50; i++ {
		p := f.BuildPost(author, "Outside")
		assert.Equal(t, "alice123", p.Author)
		assert.Equal(t, "Outside", p.Board)
		assert.NotEmpty(t, p.Title)
		assert.LessOrEqual(t, len(p.Title), 200)
		assert.NotEmpty(t, p.Content)
		assert.NotNil(t, p.Images)
		assert.WithinDuration(t, time.Now(), p.CreatedAt, 8*24*time.Hour)
	}
}

func TestCreateUser_DryRunNamesAreValidAndUnique(t *testing.T) {
	t.Parallel()
	f := NewFactory(nil, Options{DryRun: true, HashCost: bcrypt.MinCost, RandomSeed: 7})

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		u, err := f.CreateUser()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(u.Username), 3)
		assert.LessOrEqual(t, len(u.Username), 20)
		assert.False(t, seen[u.Username], "duplicate %s", u.Username)
		seen[u.Username] = true
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(DefaultPassword)))
	}
}

func TestSeeder_RunKeepsLikeCountsConsistent(t *testing.T) {
	t.Parallel()
	db := testutil.NewSQLiteDB(t)

	s := NewSeeder(db, Options{
		NumUsers:           6,
		NumPosts:           15,
		MaxCommentsPerPost: 3,
		MaxLikesPerPost:    10,
		HashCost:           bcrypt.MinCost,
		RandomSeed:         99,
	})
	res, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 6, res.Users)
	assert.Equal(t, 15, res.Posts)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	require.Len(t, posts, 15)

	totalLikes := 0
	for _, p := range posts {
		var likes int64
		require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", p.ID).Count(&likes).Error)
		assert.Equal(t, int(likes), p.LikesCount, "post %d", p.ID)
		assert.Contains(t, []string{"Cafeteria", "Outside", "Delivery"}, p.Board)
		totalLikes += p.LikesCount
	}
	assert.Equal(t, res.Likes, totalLikes)

	var comments int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Equal(t, int64(res.Comments), comments)

	require.NoError(t, s.ClearAll())
	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
	require.NoError(t, db.Model(&models.Post{}).Count(&users).Error)
	assert.Zero(t, users)
}
