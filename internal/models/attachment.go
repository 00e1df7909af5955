package models

import "time"

// Attachment records metadata for a file stored for a post.
type Attachment struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	PostID       uint      `gorm:"not null;index" json:"-"`
	StoredName   string    `gorm:"size:255;not null;uniqueIndex" json:"stored_name"`
	URL          string    `gorm:"size:300;not null" json:"url"`
	OriginalName string    `gorm:"size:255" json:"original_name"`
	ContentType  string    `gorm:"size:100" json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
