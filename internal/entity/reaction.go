package entity

import (
	"time"

	"github.com/google/uuid"
)

// Reaction is the authoritative one-row-per-user-per-post reaction state.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;index;not null" json:"company_id"`
	PostID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_reactions_post_user,priority:1;not null" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_reactions_post_user,priority:2;not null" json:"user_id"`
	Type      string    `gorm:"size:30;not null" json:"type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
