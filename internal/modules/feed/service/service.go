package feed

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/haleyhq/pulseboard/internal/cache"
	"github.com/haleyhq/pulseboard/internal/entity"
	feedDto "github.com/haleyhq/pulseboard/internal/modules/feed/dto"
	feedRepo "github.com/haleyhq/pulseboard/internal/modules/feed/repository"
	search "github.com/haleyhq/pulseboard/internal/modules/search/service"
	userRepo "github.com/haleyhq/pulseboard/internal/modules/user/repository"
	"github.com/haleyhq/pulseboard/internal/perf"
	pkgcache "github.com/haleyhq/pulseboard/pkg/cache"
)

const (
	ScopeCompany = "COMPANY"
	ScopeGroup   = "GROUP"
)

// FeedQuery names one feed request after the handler resolved the tenant.
type FeedQuery struct {
	Company     *entity.Company
	Scope       string
	GroupID     *uuid.UUID
	RequesterID uuid.UUID
	Filters     feedDto.FeedFilters
}

// path is the canonical request path of this query, which picks the TTL tier.
func (q FeedQuery) path() string {
	if q.Scope == ScopeGroup && q.GroupID != nil {
		return "/groups/" + q.GroupID.String() + "/feed"
	}
	return "/feed"
}

type FeedService interface {
	// RunFeedQuery builds the tenant-scoped, filtered, ranked, paginated feed
	// page, served through the microcache. fromCache reports the serving path.
	RunFeedQuery(ctx context.Context, q FeedQuery) (page *feedDto.FeedPage, fromCache bool, err error)
}

type feedService struct {
	repo     feedRepo.FeedRepository
	userRepo userRepo.UserRepository
	search   search.SearchService
	cache    *cache.Microcache
	perf     *perf.Recorder
}

func NewFeedService(repo feedRepo.FeedRepository, userRepo userRepo.UserRepository, searchSvc search.SearchService, microcache *cache.Microcache, recorder *perf.Recorder) FeedService {
	return &feedService{
		repo:     repo,
		userRepo: userRepo,
		search:   searchSvc,
		cache:    microcache,
		perf:     recorder,
	}
}

func (s *feedService) RunFeedQuery(ctx context.Context, q FeedQuery) (*feedDto.FeedPage, bool, error) {
	started := time.Now()
	q.Filters.Normalize()

	key, route := s.cacheKey(q)

	page, fromCache, err := cache.GetOrSet(ctx, s.cache, key, cache.TTLFor(q.path()), func(ctx context.Context) (*feedDto.FeedPage, error) {
		return s.execute(ctx, q)
	})
	if err != nil {
		return nil, false, err
	}

	// Observability only; a recorder hiccup must never fail the query.
	s.perf.RecordRoute(route, time.Since(started), len(page.Posts), page.Page, page.Limit, q.Company.Slug)

	return page, fromCache, nil
}

func (s *feedService) cacheKey(q FeedQuery) (key, route string) {
	// my_groups pages depend on who is asking; everything else is shared
	// across the tenant.
	hashed := struct {
		Filters   feedDto.FeedFilters
		Requester string
	}{Filters: q.Filters}
	if q.Filters.MyGroups {
		hashed.Requester = q.RequesterID.String()
	}
	filterHash := pkgcache.Hash(hashed)
	if q.Scope == ScopeGroup && q.GroupID != nil {
		return cache.GroupFeedKey(q.Company.Slug, *q.GroupID, filterHash), "feed.group"
	}
	return cache.FeedKey(q.Company.Slug, filterHash), "feed.company"
}

// execute is the uncached query pipeline.
func (s *feedService) execute(ctx context.Context, q FeedQuery) (*feedDto.FeedPage, error) {
	match, err := s.resolveMatch(ctx, q)
	if err != nil {
		return nil, err
	}

	f := q.Filters
	offset := (f.Page - 1) * f.Limit

	var (
		posts []*entity.Post
		total int64
	)

	if f.Q != "" {
		posts, total, err = s.searchPosts(ctx, q, match, offset, f.Limit)
	} else {
		posts, total, err = s.repo.QueryPosts(ctx, match, offset, f.Limit)
	}
	if err != nil {
		return nil, err
	}

	items := make([]feedDto.FeedItem, 0, len(posts))
	for _, post := range posts {
		items = append(items, buildFeedItem(post, f.Q))
	}

	totalPages := int((total + int64(f.Limit) - 1) / int64(f.Limit))

	return &feedDto.FeedPage{
		Posts:      items,
		Total:      total,
		TotalPages: totalPages,
		Page:       f.Page,
		Limit:      f.Limit,
	}, nil
}

// resolveMatch turns the normalized filters into concrete match criteria.
func (s *feedService) resolveMatch(ctx context.Context, q FeedQuery) (feedRepo.Match, error) {
	f := q.Filters

	match := feedRepo.Match{
		CompanyID: q.Company.ID,
		From:      f.FromTime(),
		To:        f.ToTime(),
	}
	if q.Scope == ScopeGroup {
		match.GroupID = q.GroupID
	}

	// type wins over tab when both are present.
	switch {
	case f.Type != "":
		match.Types = []string{f.Type}
	case f.Tab == feedDto.TabAnnouncements:
		match.Types = []string{entity.PostTypeAnnouncement}
	case f.Tab == feedDto.TabRegular:
		match.ExcludeTypes = []string{entity.PostTypeAnnouncement}
	}

	// author_id wins over people.
	if f.AuthorID != "" {
		if authorID, err := uuid.Parse(f.AuthorID); err == nil {
			match.AuthorIDs = []uuid.UUID{authorID}
		}
	} else if f.People != "" {
		ids, err := s.userRepo.FindIDsByNameOrTitle(ctx, q.Company.ID, f.People)
		if err != nil {
			return match, err
		}
		if len(ids) == 0 {
			match.MatchNone = true
		}
		match.AuthorIDs = ids
	}

	// my_groups only applies to the company-wide feed.
	if f.MyGroups && q.Scope == ScopeCompany {
		ids, err := s.repo.UserGroupIDs(ctx, q.RequesterID)
		if err != nil {
			return match, err
		}
		if len(ids) == 0 {
			match.MatchNone = true
		}
		match.GroupIDs = ids
	}

	return match, nil
}

// searchPosts runs the text-search path: Meilisearch ranking first, silent
// fallback to the database substring scan when the index is unavailable.
// Degraded search is expected and tolerated, not an error.
func (s *feedService) searchPosts(ctx context.Context, q FeedQuery, match feedRepo.Match, offset, limit int) ([]*entity.Post, int64, error) {
	if s.search != nil {
		candidates, err := s.search.SearchPostIDs(q.Company.ID, match.GroupID, q.Filters.Q)
		if err == nil {
			return s.pageByRank(ctx, match, candidates, offset, limit)
		}
		log.Printf("text search unavailable, falling back to scan: %v", err)
	}

	match.BodyQuery = q.Filters.Q
	return s.repo.QueryPosts(ctx, match, offset, limit)
}

// pageByRank applies the remaining SQL filters to the ranked candidate IDs,
// keeps the search engine's relevance order, and pages in memory.
func (s *feedService) pageByRank(ctx context.Context, match feedRepo.Match, candidates []uuid.UUID, offset, limit int) ([]*entity.Post, int64, error) {
	kept, err := s.repo.FilterPostIDs(ctx, match, candidates)
	if err != nil {
		return nil, 0, err
	}

	keptSet := make(map[uuid.UUID]bool, len(kept))
	for _, id := range kept {
		keptSet[id] = true
	}

	ordered := make([]uuid.UUID, 0, len(kept))
	for _, id := range candidates {
		if keptSet[id] {
			ordered = append(ordered, id)
		}
	}

	total := int64(len(ordered))
	if offset >= len(ordered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(ordered) {
		end = len(ordered)
	}
	pageIDs := ordered[offset:end]

	posts, err := s.repo.FindPostsByIDs(ctx, pageIDs)
	if err != nil {
		return nil, 0, err
	}

	byID := make(map[uuid.UUID]*entity.Post, len(posts))
	for _, post := range posts {
		byID[post.ID] = post
	}
	inOrder := make([]*entity.Post, 0, len(pageIDs))
	for _, id := range pageIDs {
		if post, ok := byID[id]; ok {
			inOrder = append(inOrder, post)
		}
	}
	return inOrder, total, nil
}
