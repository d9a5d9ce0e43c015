package points

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	MarkerAdd    = "ADD"
	MarkerRemove = "REMOVE"
)

// EventKey identifies one logical scoring event. Two awards that encode to the
// same key within a company collapse into a single ledger row, which is what
// makes retried and replayed calls harmless. The REMOVE marker gives a
// reversal its own key so the original row stays untouched.
type EventKey struct {
	Action          string
	CompanyID       uuid.UUID
	UserID          uuid.UUID
	TargetType      string
	TargetID        string
	ReactionType    string
	Direction       string
	PostID          string
	CommentID       string
	ParentCommentID string
	Marker          string
}

// Encode joins the key parts with ':'. Each part is percent-escaped first so
// user-influenced values (target ids, reaction types) cannot smuggle a
// delimiter and collide with a different event.
func (k EventKey) Encode() string {
	parts := []string{
		k.Action,
		k.CompanyID.String(),
		k.UserID.String(),
		k.TargetType,
		k.TargetID,
		k.ReactionType,
		k.Direction,
		k.PostID,
		k.CommentID,
		k.ParentCommentID,
		k.Marker,
	}
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.QueryEscape(p)
	}
	return strings.Join(escaped, ":")
}
