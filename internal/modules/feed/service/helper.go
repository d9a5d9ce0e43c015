package feed

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/haleyhq/pulseboard/internal/entity"
	feedDto "github.com/haleyhq/pulseboard/internal/modules/feed/dto"
	"github.com/haleyhq/pulseboard/pkg/dto"
)

const (
	maxThumbnails  = 9
	excerptBefore  = 50
	excerptAfter   = 80
	excerptNoMatch = 130
)

// StrictPolicy is safe for concurrent use once built.
var stripper = bluemonday.StrictPolicy()

func buildFeedItem(post *entity.Post, query string) feedDto.FeedItem {
	item := feedDto.FeedItem{
		ID:           post.ID.String(),
		Type:         post.Type,
		Body:         post.Body,
		LinkURL:      post.LinkURL,
		IsPinned:     post.IsPinned,
		IsActivePoll: post.IsActivePoll(),
		Author: dto.AuthorStub{
			ID:        post.AuthorID.String(),
			Name:      post.Author.Name,
			Title:     post.Author.Title,
			AvatarURL: post.Author.AvatarURL,
		},
		PollQuestion:   post.PollQuestion,
		PollOptions:    post.PollOptions,
		PollClosed:     post.PollClosed,
		CommentsCount:  post.CommentsCount,
		ViewsCount:     post.ViewsCount,
		ReactionCounts: post.ReactionCounts,
		Thumbnails:     thumbnails(post.Attachments),
		CreatedAt:      post.CreatedAt,
		PublishedAt:    post.PublishedAt,
	}

	if post.GroupID != nil && post.Group != nil {
		item.Group = &dto.GroupStub{
			ID:   post.Group.ID.String(),
			Name: post.Group.Name,
		}
	}

	if query != "" {
		item.Excerpt = excerpt(StripMarkup(post.Body), query)
	}

	return item
}

// thumbnails picks up to nine attachment thumbnails, oldest attachment first.
// The repository loads attachments in created_at order already.
func thumbnails(attachments []entity.Attachment) []string {
	if len(attachments) == 0 {
		return nil
	}

	urls := make([]string, 0, min(len(attachments), maxThumbnails))
	for _, a := range attachments {
		if len(urls) == maxThumbnails {
			break
		}
		urls = append(urls, a.ThumbnailURL())
	}
	return urls
}

// StripMarkup reduces a rich-text body to plain text.
func StripMarkup(body string) string {
	return strings.TrimSpace(html.UnescapeString(stripper.Sanitize(body)))
}

// excerpt cuts a window around the first case-insensitive occurrence of the
// query in the plain-text body: up to 50 runes before the match and 80 after
// it, with ellipsis markers wherever text was cut away. Without a match the
// excerpt is a plain prefix.
func excerpt(text, query string) string {
	runes := []rune(text)
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(query))

	if idx < 0 {
		if len(runes) <= excerptNoMatch {
			return text
		}
		return string(runes[:excerptNoMatch]) + "…"
	}

	// Byte offset to rune offset.
	runeIdx := len([]rune(text[:idx]))
	queryLen := len([]rune(query))

	start := runeIdx - excerptBefore
	if start < 0 {
		start = 0
	}
	end := runeIdx + queryLen + excerptAfter
	if end > len(runes) {
		end = len(runes)
	}

	out := string(runes[start:end])
	if start > 0 {
		out = "…" + out
	}
	if end < len(runes) {
		out += "…"
	}
	return out
}
