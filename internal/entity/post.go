package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PostTypeText         = "TEXT"
	PostTypeLink         = "LINK"
	PostTypeImage        = "IMAGE"
	PostTypePoll         = "POLL"
	PostTypeAnnouncement = "ANNOUNCEMENT"

	PostStatusQueued    = "QUEUED"
	PostStatusPublished = "PUBLISHED"
	PostStatusRejected  = "REJECTED"
)

// Post is a feed item belonging to exactly one company and optionally one
// group. It is visible in feeds only while status is PUBLISHED and DeletedAt
// is null. DeletedAt is a plain timestamp, not gorm's soft-delete type, so
// visibility filtering stays explicit in the feed query and the retention
// sweep can hard-delete without Unscoped tricks.
type Post struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;index:idx_posts_company_created;not null" json:"company_id"`
	GroupID   *uuid.UUID `gorm:"type:uuid;index" json:"group_id,omitempty"`
	Group     *Group     `gorm:"foreignKey:GroupID" json:"-"`
	AuthorID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"author_id"`
	Author    User       `gorm:"foreignKey:AuthorID" json:"-"`

	Type     string  `gorm:"size:20;not null;default:TEXT" json:"type"`
	Status   string  `gorm:"size:20;not null;default:PUBLISHED;index" json:"status"`
	Body     string  `gorm:"type:text" json:"body"`
	LinkURL  *string `gorm:"type:text" json:"link_url,omitempty"`
	IsPinned bool    `gorm:"default:false" json:"is_pinned"`

	PollQuestion *string     `gorm:"type:text" json:"poll_question,omitempty"`
	PollOptions  PollOptions `gorm:"type:jsonb" json:"poll_options,omitempty"`
	PollClosed   bool        `gorm:"default:false" json:"poll_closed"`

	CommentsCount  int            `gorm:"default:0" json:"comments_count"`
	ViewsCount     int            `gorm:"default:0" json:"views_count"`
	ReactionCounts ReactionCounts `gorm:"type:jsonb" json:"reaction_counts"`

	Attachments []Attachment `gorm:"foreignKey:PostID" json:"attachments,omitempty"`

	CreatedAt   time.Time  `gorm:"autoCreateTime;index:idx_posts_company_created,sort:desc" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	DeletedAt   *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsActivePoll reports whether the post ranks in the open-poll tier.
func (p *Post) IsActivePoll() bool {
	return p.Type == PostTypePoll && !p.PollClosed
}

type PollOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type PollOptions []PollOption

func (o PollOptions) Value() (driver.Value, error) {
	if o == nil {
		return json.Marshal(PollOptions{})
	}
	return json.Marshal(o)
}

func (o *PollOptions) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	case nil:
		*o = nil
		return nil
	default:
		return fmt.Errorf("unsupported poll options column type %T", value)
	}
}

// ReactionCounts is the denormalized per-type reaction tally shown on feed
// cards. It is a UI hint maintained best-effort; the reactions table is the
// source of truth.
type ReactionCounts map[string]int

func (c ReactionCounts) Value() (driver.Value, error) {
	if c == nil {
		return json.Marshal(ReactionCounts{})
	}
	return json.Marshal(c)
}

func (c *ReactionCounts) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = nil
		return nil
	default:
		return fmt.Errorf("unsupported reaction counts column type %T", value)
	}
}

// PollVote keeps one row per voter per poll so double votes are rejected at
// the database level.
type PollVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_poll_votes_post_user,priority:1;not null" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_poll_votes_post_user,priority:2;not null" json:"user_id"`
	OptionID  string    `gorm:"size:64;not null" json:"option_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
