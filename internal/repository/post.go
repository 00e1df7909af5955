package repository

import (
	"context"

	"bulletin/internal/cache"
	"bulletin/internal/models"
	"bulletin/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter selects one page of a post listing.
type PostFilter struct {
	Board  string
	Limit  int
	Offset int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error)
	AttachImages(ctx context.Context, postID uint, attachments []models.Attachment) error
	Delete(ctx context.Context, id uint, requester string) (*models.Post, error)
	ToggleLike(ctx context.Context, id uint, username string) (*models.LikeResult, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()

	if post.Images == nil {
		post.Images = []string{}
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewStoreError(err)
	}
	post.LikedBy = []string{}
	r.log.LogCreate(ctx, map[string]any{"post_id": post.ID, "board": post.Board, "author": post.Author})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackQuery("get", "posts")()

	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		if err := r.db.WithContext(ctx).Preload("Attachments", orderByID).First(&post, id).Error; err != nil {
			return translate(err, "Post", id)
		}
		return r.loadLikedBy(ctx, []*models.Post{&post})
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error) {
	defer observability.TrackQuery("list", "posts")()

	byBoard := func(db *gorm.DB) *gorm.DB {
		if filter.Board != "" {
			return db.Where("board = ?", filter.Board)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(byBoard).Count(&total).Error; err != nil {
		return nil, 0, models.NewStoreError(err)
	}

	posts := make([]*models.Post, 0, filter.Limit)
	err := r.db.WithContext(ctx).
		Scopes(byBoard).
		Preload("Attachments", orderByID).
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewStoreError(err)
	}
	if err := r.loadLikedBy(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// AttachImages records the stored files of a post and its image list in one transaction.
func (r *postRepository) AttachImages(ctx context.Context, postID uint, attachments []models.Attachment) error {
	defer observability.TrackQuery("update", "posts")()

	urls := make([]string, 0, len(attachments))
	for i := range attachments {
		attachments[i].PostID = postID
		urls = append(urls, attachments[i].URL)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(attachments) > 0 {
			if err := tx.Create(&attachments).Error; err != nil {
				return err
			}
		}
		res := tx.Model(&models.Post{ID: postID}).Select("images").Updates(&models.Post{Images: urls})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", postID)
		}
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "attach_images")
		return translate(err, "Post", postID)
	}

	cache.InvalidatePost(ctx, postID)
	r.log.LogUpdate(ctx, map[string]any{"post_id": postID, "images": len(urls)})
	return nil
}

// Delete removes a post together with its likes, attachment rows and comments.
// Only the author may delete; the deleted post is returned so the caller can
// clean up its files.
func (r *postRepository) Delete(ctx context.Context, id uint, requester string) (*models.Post, error) {
	defer observability.TrackQuery("delete", "posts")()

	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, id).Error; err != nil {
			return err
		}
		if post.Author != requester {
			return models.NewForbiddenError("You can only delete your own posts")
		}
		for _, dependent := range []interface{}{&models.Like{}, &models.Attachment{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		err = translate(err, "Post", id)
		if models.IsCode(err, models.CodeStore) {
			r.log.LogError(ctx, err, "delete")
		}
		return nil, err
	}

	cache.InvalidatePost(ctx, id)
	r.log.LogDelete(ctx, map[string]any{"post_id": id, "author": requester})
	return &post, nil
}

// ToggleLike flips username's like on a post. The post row is locked for the
// duration of the transaction and likes_count is recomputed from the likes
// table, so concurrent toggles never lose an update.
func (r *postRepository) ToggleLike(ctx context.Context, id uint, username string) (*models.LikeResult, error) {
	defer observability.TrackQuery("toggle_like", "likes")()

	var result models.LikeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&post, id).Error; err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND username = ?", id, username).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := models.Like{PostID: id, Username: username}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			result.Liked = true
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", id).
			Update("likes_count", gorm.Expr("(SELECT COUNT(*) FROM likes WHERE likes.post_id = ?)", id)).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Like{}).Where("post_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		result.LikesCount = int(count)
		return nil
	})
	if err != nil {
		err = translate(err, "Post", id)
		if models.IsCode(err, models.CodeStore) {
			r.log.LogError(ctx, err, "toggle_like")
		}
		return nil, err
	}

	cache.InvalidatePost(ctx, id)
	state := "unliked"
	if result.Liked {
		state = "liked"
	}
	observability.LikeToggles.WithLabelValues(state).Inc()
	return &result, nil
}

// loadLikedBy fills LikedBy for every post from the likes table, oldest like first.
func (r *postRepository) loadLikedBy(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(posts))
	byID := make(map[uint]*models.Post, len(posts))
	for _, p := range posts {
		p.LikedBy = []string{}
		if p.Images == nil {
			p.Images = []string{}
		}
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	var likes []models.Like
	if err := r.db.WithContext(ctx).
		Select("post_id", "username").
		Where("post_id IN ?", ids).
		Order("id ASC").
		Find(&likes).Error; err != nil {
		return models.NewStoreError(err)
	}
	for _, l := range likes {
		if p := byID[l.PostID]; p != nil {
			p.LikedBy = append(p.LikedBy, l.Username)
		}
	}
	return nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
