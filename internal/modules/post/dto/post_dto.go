package post

import (
	"time"

	"github.com/haleyhq/pulseboard/internal/entity"
	"github.com/haleyhq/pulseboard/pkg/dto"
)

type CreatePostRequest struct {
	Type          string   `json:"type" binding:"required,oneof=TEXT LINK IMAGE POLL ANNOUNCEMENT"`
	Body          string   `json:"body" binding:"max=20000"`
	LinkURL       *string  `json:"link_url" binding:"omitempty,url"`
	GroupID       *string  `json:"group_id" binding:"omitempty,uuid"`
	PollQuestion  *string  `json:"poll_question" binding:"omitempty,max=500"`
	PollOptions   []string `json:"poll_options" binding:"omitempty,max=10,dive,required,max=200"`
	AttachmentIDs []uint   `json:"attachment_ids" binding:"omitempty,max=9"`
}

type ModeratePostRequest struct {
	Action string `json:"action" binding:"required,oneof=APPROVE REJECT"`
}

type VotePollRequest struct {
	OptionID string `json:"option_id" binding:"required,max=64"`
}

type PinPostRequest struct {
	Pinned bool `json:"pinned"`
}

type AttachmentView struct {
	ID       uint   `json:"id"`
	FileURL  string `json:"file_url"`
	ThumbURL string `json:"thumb_url,omitempty"`
	FileType string `json:"file_type,omitempty"`
}

// PostDetail is the single-post view. ViewerReaction is attached per request
// after the shared cached payload is loaded.
type PostDetail struct {
	ID             string                `json:"id"`
	Type           string                `json:"type"`
	Status         string                `json:"status"`
	Body           string                `json:"body"`
	LinkURL        *string               `json:"link_url,omitempty"`
	IsPinned       bool                  `json:"is_pinned"`
	Author         dto.AuthorStub        `json:"author"`
	Group          *dto.GroupStub        `json:"group,omitempty"`
	PollQuestion   *string               `json:"poll_question,omitempty"`
	PollOptions    entity.PollOptions    `json:"poll_options,omitempty"`
	PollClosed     bool                  `json:"poll_closed"`
	CommentsCount  int                   `json:"comments_count"`
	ViewsCount     int                   `json:"views_count"`
	ReactionCounts entity.ReactionCounts `json:"reaction_counts"`
	Attachments    []AttachmentView      `json:"attachments,omitempty"`
	ViewerReaction string                `json:"viewer_reaction,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	PublishedAt    *time.Time            `json:"published_at,omitempty"`
}

type QueuePage struct {
	Items []PostDetail       `json:"items"`
	Meta  dto.PaginationMeta `json:"meta"`
}
