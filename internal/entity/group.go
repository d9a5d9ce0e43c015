package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GroupRoleOwner     = "OWNER"
	GroupRoleModerator = "MODERATOR"
	GroupRoleMember    = "MEMBER"
)

type Group struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;index;not null" json:"company_id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type GroupMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_group_members_group_user,priority:1;not null" json:"group_id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_group_members_group_user,priority:2;index;not null" json:"user_id"`
	Role      string    `gorm:"size:20;not null;default:MEMBER" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
