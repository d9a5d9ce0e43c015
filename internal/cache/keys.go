package cache

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TTL tiers. Feed pages are the hottest and most expensive views (aggregation
// plus enrichment), so they cache longer than single posts, which are cheap
// point lookups covered by per-post invalidation anyway.
const (
	TTLFeed    = 10 * time.Second
	TTLPost    = 15 * time.Second
	TTLDefault = 5 * time.Second
)

var postPathPattern = regexp.MustCompile(`/posts/[0-9a-fA-F-]{36}$`)

// TTLFor picks the TTL tier for a request path.
func TTLFor(path string) time.Duration {
	if postPathPattern.MatchString(path) {
		return TTLPost
	}
	if strings.Contains(path, "/feed") {
		return TTLFeed
	}
	return TTLDefault
}

// FeedKey builds the company-wide feed cache key.
func FeedKey(slug, filterHash string) string {
	return "feed:v1:" + slug + ":" + filterHash
}

// GroupFeedKey builds the group-scoped feed cache key.
func GroupFeedKey(slug string, groupID uuid.UUID, filterHash string) string {
	return "groupfeed:v1:" + slug + ":" + groupID.String() + ":" + filterHash
}

// PostKey builds the single-post cache key.
func PostKey(slug string, postID uuid.UUID) string {
	return "post:v1:" + slug + ":" + postID.String()
}

// LeaderboardKey builds the cache key for one leaderboard variant.
func LeaderboardKey(slug, period string, limit int) string {
	return "leaderboard:v1:" + slug + ":" + period + ":" + strconv.Itoa(limit)
}
