package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin     = "ADMIN"
	RoleModerator = "MODERATOR"
	RoleMember    = "MEMBER"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_users_company_email,priority:1;not null" json:"company_id"`
	Company      Company   `gorm:"foreignKey:CompanyID" json:"-"`
	Email        string    `gorm:"size:150;uniqueIndex:idx_users_company_email,priority:2;not null" json:"email"`
	Name         string    `gorm:"size:120;not null" json:"name"`
	Title        string    `gorm:"size:120" json:"title"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:MEMBER" json:"role"`
	AvatarURL    *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
