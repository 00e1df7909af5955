package models

import "time"

// Like represents a user's like on a post.
// The combination of PostID and Username must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_post_user" json:"post_id"`
	Username  string    `gorm:"size:20;not null;uniqueIndex:idx_like_post_user" json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
