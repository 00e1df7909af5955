// Package seed provides helpers to create demo data for the bulletin board
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"bulletin/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the Seeder and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	// synthetic ID counter when running in DryRun mode
	nextID uint
	// password hash shared by every generated user
	hash  string
	taken map[string]struct{}
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		nextID: 1000,
		taken:  make(map[string]struct{}),
	}
}

// passwordHash hashes DefaultPassword once per factory.
func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	cost := f.opts.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	f.hash = string(hashed)
	return f.hash, nil
}

// username returns a fresh lowercase name of 5 to 18 characters.
func (f *Factory) username() string {
	for {
		base := strings.ToLower(f.faker.FirstName())
		base = strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' {
				return r
			}
			return -1
		}, base)
		if len(base) > 14 {
			base = base[:14]
		}
		if base == "" {
			base = "user"
		}
		name := fmt.Sprintf("%s%d", base, f.faker.Number(100, 9999))
		if _, dup := f.taken[name]; !dup {
			f.taken[name] = struct{}{}
			return name
		}
	}
}

// CreateUser constructs and persists a sample `models.User` whose password is DefaultPassword.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     f.username(),
		PasswordHash: hash,
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post by author on board without persisting it.
// created_at is spread over the last MaxDays days.
func (f *Factory) BuildPost(author *models.User, board string, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	now := time.Now().UTC()

	post := &models.Post{
		Title:     strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), "."),
		Content:   f.faker.Paragraph(1, 3, 8, "\n"),
		Board:     board,
		Author:    author.Username,
		Images:    []string{},
		CreatedAt: f.faker.DateRange(now.AddDate(0, 0, -maxDays), now),
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	if len(posts) == 0 {
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.CreateInBatches(&posts, batch).Error
}

// CreateComment constructs and persists a sample `models.Comment` on the
// provided post authored by the provided user.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		Author:    author.Username,
		Content:   f.faker.Sentence(f.faker.Number(4, 14)),
		CreatedAt: f.faker.DateRange(post.CreatedAt, time.Now().UTC()),
	}

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on post. The post's likes_count is
// not touched; call RecountLikes once all likes are written.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.Like{PostID: post.ID, Username: user.Username}).Error
}

// RecountLikes sets likes_count of every post from the likes table.
func (f *Factory) RecountLikes() error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&models.Post{}).
		Update("likes_count", gorm.Expr("(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id)")).Error
}
