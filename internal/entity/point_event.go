package entity

import (
	"time"

	"github.com/google/uuid"
)

// PointEvent is one immutable gamification ledger row. Rows are never updated
// or deleted; reversals are separate rows with negative points. The two unique
// indexes make duplicate award attempts collapse at the database level.
type PointEvent struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_point_events_company_user_key,priority:1;uniqueIndex:idx_point_events_company_key,priority:1;not null" json:"company_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_point_events_company_user_key,priority:2;index;not null" json:"user_id"`
	ActorID   *uuid.UUID `gorm:"type:uuid" json:"actor_id,omitempty"`

	Action     string `gorm:"size:50;not null" json:"action"`
	Points     int    `gorm:"not null" json:"points"`
	TargetType string `gorm:"size:30" json:"target_type"`
	TargetID   string `gorm:"size:64" json:"target_id"`

	EventKey string `gorm:"size:512;uniqueIndex:idx_point_events_company_user_key,priority:3;uniqueIndex:idx_point_events_company_key,priority:2;not null" json:"event_key"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
