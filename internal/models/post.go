package models

import "time"

// Post represents a post on one of the boards.
type Post struct {
	ID      uint     `gorm:"primaryKey" json:"id"`
	Title   string   `gorm:"size:200;not null" json:"title"`
	Content string   `gorm:"type:text;not null" json:"content"`
	Board   string   `gorm:"size:64;not null;index" json:"board"`
	Author  string   `gorm:"size:20;not null;index" json:"author"`
	Images  []string `gorm:"type:text;serializer:json" json:"images"`
	// LikesCount mirrors the number of rows in likes for this post; it is
	// recomputed in the same transaction that changes the like set.
	LikesCount int `gorm:"not null;default:0" json:"likes_count"`
	// LikedBy is materialized from the likes table on read.
	LikedBy     []string     `gorm:"-" json:"liked_by"`
	Attachments []Attachment `gorm:"foreignKey:PostID" json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// PostPage is one page of a post listing.
type PostPage struct {
	Items      []*Post `json:"items"`
	Page       int     `json:"page"`
	PerPage    int     `json:"per_page"`
	Total      int64   `json:"total"`
	TotalPages int     `json:"total_pages"`
}

// LikeResult is the state of a post's likes after a toggle.
type LikeResult struct {
	LikesCount int  `json:"likes_count"`
	Liked      bool `json:"liked"`
}
