package feed

import (
	"strings"
	"time"

	"github.com/haleyhq/pulseboard/internal/entity"
	"github.com/haleyhq/pulseboard/pkg/dto"
)

const (
	TabAnnouncements = "ANNOUNCEMENTS"
	TabRegular       = "REGULAR"

	DefaultLimit = 15
	MinLimit     = 5
	MaxLimit     = 50
)

// FeedFilters are the caller-supplied filter knobs. All fields are optional
// and independently combinable. Malformed values are normalized away, never
// rejected.
type FeedFilters struct {
	Q        string `form:"q" json:"q"`
	Type     string `form:"type" json:"type"`
	Tab      string `form:"tab" json:"tab"`
	AuthorID string `form:"author_id" json:"author_id"`
	People   string `form:"people" json:"people"`
	From     string `form:"from" json:"from"` // YYYY-MM-DD
	To       string `form:"to" json:"to"`     // YYYY-MM-DD
	MyGroups bool   `form:"my_groups" json:"my_groups"`
	Page     int    `form:"page" json:"page"`
	Limit    int    `form:"limit" json:"limit"`
}

var validTypes = map[string]bool{
	entity.PostTypeText:         true,
	entity.PostTypeLink:         true,
	entity.PostTypeImage:        true,
	entity.PostTypePoll:         true,
	entity.PostTypeAnnouncement: true,
}

// Normalize clamps pagination and drops malformed filter values in place.
func (f *FeedFilters) Normalize() {
	f.Q = strings.TrimSpace(f.Q)
	f.People = strings.TrimSpace(f.People)

	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	if !validTypes[f.Type] {
		f.Type = ""
	}

	f.Tab = strings.ToUpper(strings.TrimSpace(f.Tab))
	if f.Tab != TabAnnouncements && f.Tab != TabRegular {
		f.Tab = ""
	}

	if _, err := time.Parse("2006-01-02", f.From); err != nil {
		f.From = ""
	}
	if _, err := time.Parse("2006-01-02", f.To); err != nil {
		f.To = ""
	}

	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultLimit
	case f.Limit < MinLimit:
		f.Limit = MinLimit
	case f.Limit > MaxLimit:
		f.Limit = MaxLimit
	}
}

// FromTime returns the inclusive lower bound at 00:00:00.000 UTC.
func (f FeedFilters) FromTime() *time.Time {
	if f.From == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", f.From, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// ToTime returns the inclusive upper bound at 23:59:59.999 UTC.
func (f FeedFilters) ToTime() *time.Time {
	if f.To == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", f.To, time.UTC)
	if err != nil {
		return nil
	}
	t = t.Add(24*time.Hour - time.Millisecond)
	return &t
}

type FeedItem struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Body         string  `json:"body"`
	LinkURL      *string `json:"link_url,omitempty"`
	IsPinned     bool    `json:"is_pinned"`
	IsActivePoll bool    `json:"is_active_poll"`

	Author dto.AuthorStub `json:"author"`
	Group  *dto.GroupStub `json:"group,omitempty"`

	PollQuestion *string            `json:"poll_question,omitempty"`
	PollOptions  entity.PollOptions `json:"poll_options,omitempty"`
	PollClosed   bool               `json:"poll_closed"`

	CommentsCount  int            `json:"comments_count"`
	ViewsCount     int            `json:"views_count"`
	ReactionCounts map[string]int `json:"reaction_counts"`

	Thumbnails []string `json:"thumbnails,omitempty"`
	Excerpt    string   `json:"excerpt,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type FeedPage struct {
	Posts      []FeedItem `json:"posts"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"total_pages"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
}
