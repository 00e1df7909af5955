package seed

import (
	"fmt"
	"log"

	"bulletin/internal/models"

	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers int
	NumPosts int
	// MaxCommentsPerPost bounds the comments generated for each post.
	MaxCommentsPerPost int
	// MaxLikesPerPost bounds the likers of each post; it is capped at NumUsers.
	MaxLikesPerPost int
	Boards          []string
	MaxDays         int
	BatchSize       int
	// HashCost is the bcrypt cost of seeded passwords; zero uses bcrypt.DefaultCost.
	HashCost   int
	RandomSeed int64
	DryRun     bool
}

// Result counts what a seeding run created.
type Result struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
}

// Seeder fills the database with users, posts, comments and likes.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder returns a Seeder writing to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if len(opts.Boards) == 0 {
		opts.Boards = []string{"Cafeteria", "Outside", "Delivery"}
	}
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// ClearAll removes every row the application owns, dependents first.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		log.Println("[dry-run] ClearAll skipped")
		return nil
	}
	log.Println("🗑️  Clearing existing data...")
	return s.db.Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, m := range []any{&models.Comment{}, &models.Like{}, &models.Attachment{}, &models.Post{}, &models.User{}} {
			if err := all.Delete(m).Error; err != nil {
				return fmt.Errorf("clear %T: %w", m, err)
			}
		}
		return nil
	})
}

// Run creates the configured amount of demo data.
func (s *Seeder) Run() (*Result, error) {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", s.opts.NumUsers, s.opts.NumPosts)

	if s.opts.NumUsers <= 0 {
		return &Result{}, nil
	}

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("failed to create users: %w", err)
		}
		users = append(users, u)
	}
	log.Printf("✓ %d test users created", len(users))

	posts := make([]*models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[s.factory.faker.Number(0, len(users)-1)]
		board := s.factory.faker.RandomString(s.opts.Boards)
		posts = append(posts, s.factory.BuildPost(author, board))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	res := &Result{Users: len(users), Posts: len(posts)}
	for _, p := range posts {
		n, err := s.seedEngagement(users, p)
		if err != nil {
			return nil, err
		}
		res.Comments += n.Comments
		res.Likes += n.Likes
	}

	if err := s.factory.RecountLikes(); err != nil {
		return nil, fmt.Errorf("failed to recount likes: %w", err)
	}
	log.Printf("✓ %d comments and %d likes created", res.Comments, res.Likes)

	log.Println("🎉 Database seeding completed successfully!")
	return res, nil
}

// seedEngagement adds comments and distinct likers to one post.
func (s *Seeder) seedEngagement(users []*models.User, post *models.Post) (Result, error) {
	var res Result

	if s.opts.MaxCommentsPerPost > 0 {
		for i, n := 0, s.factory.faker.Number(0, s.opts.MaxCommentsPerPost); i < n; i++ {
			author := users[s.factory.faker.Number(0, len(users)-1)]
			if _, err := s.factory.CreateComment(author, post); err != nil {
				return res, fmt.Errorf("failed to create comment: %w", err)
			}
			res.Comments++
		}
	}

	maxLikes := s.opts.MaxLikesPerPost
	if maxLikes > len(users) {
		maxLikes = len(users)
	}
	if maxLikes > 0 {
		start := s.factory.faker.Number(0, len(users)-1)
		for i, n := 0, s.factory.faker.Number(0, maxLikes); i < n; i++ {
			// Walking the ring from a random start keeps likers distinct.
			liker := users[(start+i)%len(users)]
			if err := s.factory.CreateLike(liker, post); err != nil {
				return res, fmt.Errorf("failed to create like: %w", err)
			}
			res.Likes++
		}
	}
	return res, nil
}
