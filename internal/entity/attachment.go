package entity

import (
	"time"

	"github.com/google/uuid"
)

type Attachment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;index;not null" json:"company_id"`
	PostID    *uuid.UUID `gorm:"type:uuid;index" json:"post_id,omitempty"`
	FileURL   string     `gorm:"type:text;not null" json:"file_url"`
	ThumbURL  string     `gorm:"type:text" json:"thumb_url"`
	FileType  string     `gorm:"size:50" json:"file_type"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// ThumbnailURL prefers the generated thumbnail and falls back to the original.
func (a Attachment) ThumbnailURL() string {
	if a.ThumbURL != "" {
		return a.ThumbURL
	}
	return a.FileURL
}
