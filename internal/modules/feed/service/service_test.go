package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appcache "github.com/haleyhq/pulseboard/internal/cache"
	"github.com/haleyhq/pulseboard/internal/entity"
	feedDto "github.com/haleyhq/pulseboard/internal/modules/feed/dto"
	feedRepo "github.com/haleyhq/pulseboard/internal/modules/feed/repository"
	search "github.com/haleyhq/pulseboard/internal/modules/search/service"
	userRepo "github.com/haleyhq/pulseboard/internal/modules/user/repository"
	"github.com/haleyhq/pulseboard/internal/perf"
	pkgcache "github.com/haleyhq/pulseboard/pkg/cache"
)

// stubSearch satisfies the search contract with canned results or a failure.
type stubSearch struct {
	ids []uuid.UUID
	err error
}

func (s *stubSearch) IndexPost(*entity.Post) error { return nil }
func (s *stubSearch) DeletePost(string) error      { return nil }
func (s *stubSearch) SearchPostIDs(uuid.UUID, *uuid.UUID, string) ([]uuid.UUID, error) {
	return s.ids, s.err
}

type env struct {
	db      *gorm.DB
	svc     FeedService
	cache   *appcache.Microcache
	store   *pkgcache.MemoryStore
	company *entity.Company
	author  *entity.User
}

func newEnv(t *testing.T, searchSvc *stubSearch) *env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// The count and page queries run on separate connections; one shared
	// in-memory sqlite handle keeps them on the same database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&entity.Company{}, &entity.User{}, &entity.Group{}, &entity.GroupMember{},
		&entity.Post{}, &entity.Attachment{},
	))

	company := &entity.Company{Slug: "acme", Name: "Acme"}
	require.NoError(t, db.Create(company).Error)
	author := &entity.User{CompanyID: company.ID, Email: "author@acme.test", Name: "Avery Author", Title: "Engineer"}
	require.NoError(t, db.Create(author).Error)

	store := pkgcache.NewMemoryStore()
	microcache := appcache.New(store, perf.NewRecorder())

	svc := NewFeedService(
		feedRepo.NewFeedRepository(db),
		userRepo.NewUserRepository(db),
		searchOrNil(searchSvc),
		microcache,
		perf.NewRecorder(),
	)

	return &env{db: db, svc: svc, cache: microcache, store: store, company: company, author: author}
}

// searchOrNil keeps a nil *stubSearch from becoming a non-nil interface.
func searchOrNil(s *stubSearch) search.SearchService {
	if s == nil {
		return nil
	}
	return s
}

func (e *env) addPost(t *testing.T, body string, createdAt time.Time, mutate func(*entity.Post)) *entity.Post {
	t.Helper()
	post := &entity.Post{
		CompanyID: e.company.ID,
		AuthorID:  e.author.ID,
		Type:      entity.PostTypeText,
		Status:    entity.PostStatusPublished,
		Body:      body,
	}
	if mutate != nil {
		mutate(post)
	}
	require.NoError(t, e.db.Create(post).Error)
	require.NoError(t, e.db.Model(post).Update("created_at", createdAt).Error)
	post.CreatedAt = createdAt
	return post
}

func (e *env) run(t *testing.T, filters feedDto.FeedFilters) *feedDto.FeedPage {
	t.Helper()
	page, _, err := e.svc.RunFeedQuery(context.Background(), FeedQuery{
		Company:     e.company,
		Scope:       ScopeCompany,
		RequesterID: e.author.ID,
		Filters:     filters,
	})
	require.NoError(t, err)
	return page
}

func ids(page *feedDto.FeedPage) []string {
	out := make([]string, 0, len(page.Posts))
	for _, item := range page.Posts {
		out = append(out, item.ID)
	}
	return out
}

func TestRankingTiers(t *testing.T) {
	e := newEnv(t, nil)
	now := time.Now().UTC().Truncate(time.Second)

	regularOld := e.addPost(t, "old regular", now.Add(-3*time.Hour), nil)
	regularNew := e.addPost(t, "new regular", now, nil)
	question := "open?"
	poll := e.addPost(t, "", now.Add(-2*time.Hour), func(p *entity.Post) {
		p.Type = entity.PostTypePoll
		p.PollQuestion = &question
		p.PollOptions = entity.PollOptions{{ID: "a", Text: "yes"}, {ID: "b", Text: "no"}}
	})
	pinned := e.addPost(t, "pinned", now.Add(-4*time.Hour), func(p *entity.Post) {
		p.IsPinned = true
	})
	closedPoll := e.addPost(t, "", now.Add(-1*time.Hour), func(p *entity.Post) {
		p.Type = entity.PostTypePoll
		p.PollQuestion = &question
		p.PollClosed = true
	})

	page := e.run(t, feedDto.FeedFilters{})

	want := []string{
		pinned.ID.String(),     // pinned beats everything despite age
		poll.ID.String(),       // open poll tier
		regularNew.ID.String(), // then pure recency
		closedPoll.ID.String(),
		regularOld.ID.String(),
	}
	assert.Equal(t, want, ids(page))
	assert.True(t, page.Posts[1].IsActivePoll)
	assert.False(t, page.Posts[3].IsActivePoll)
}

func TestHiddenPostsExcluded(t *testing.T) {
	e := newEnv(t, nil)
	now := time.Now().UTC()

	visible := e.addPost(t, "visible", now, nil)
	e.addPost(t, "queued", now, func(p *entity.Post) { p.Status = entity.PostStatusQueued })
	deleted := e.addPost(t, "deleted", now, nil)
	require.NoError(t, e.db.Model(deleted).Update("deleted_at", now).Error)

	other := &entity.Company{Slug: "other", Name: "Other"}
	require.NoError(t, e.db.Create(other).Error)
	e.addPost(t, "foreign", now, func(p *entity.Post) { p.CompanyID = other.ID })

	page := e.run(t, feedDto.FeedFilters{})
	assert.Equal(t, []string{visible.ID.String()}, ids(page))
	assert.EqualValues(t, 1, page.Total)
}

func TestTypeWinsOverTab(t *testing.T) {
	e := newEnv(t, nil)
	now := time.Now().UTC()

	e.addPost(t, "plain", now, nil)
	announcement := e.addPost(t, "heads up", now, func(p *entity.Post) {
		p.Type = entity.PostTypeAnnouncement
	})

	// tab=REGULAR would exclude announcements, but type takes precedence.
	page := e.run(t, feedDto.FeedFilters{Type: "ANNOUNCEMENT", Tab: feedDto.TabRegular})
	assert.Equal(t, []string{announcement.ID.String()}, ids(page))

	page = e.run(t, feedDto.FeedFilters{Tab: feedDto.TabRegular})
	assert.NotContains(t, ids(page), announcement.ID.String())
}

func TestPeopleFilterEmptyResolutionMatchesNothing(t *testing.T) {
	e := newEnv(t, nil)
	e.addPost(t, "somebody's post", time.Now().UTC(), nil)

	page := e.run(t, feedDto.FeedFilters{People: "nobody-by-this-name"})
	assert.Empty(t, page.Posts)
	assert.EqualValues(t, 0, page.Total)
}

func TestPeopleFilterMatchesNameOrTitle(t *testing.T) {
	e := newEnv(t, nil)
	now := time.Now().UTC()

	mine := e.addPost(t, "by avery", now, nil)
	stranger := &entity.User{CompanyID: e.company.ID, Email: "s@acme.test", Name: "Sam Stranger"}
	require.NoError(t, e.db.Create(stranger).Error)
	e.addPost(t, "by sam", now, func(p *entity.Post) { p.AuthorID = stranger.ID })

	page := e.run(t, feedDto.FeedFilters{People: "engineer"})
	assert.Equal(t, []string{mine.ID.String()}, ids(page))
}

func TestDateUpperBoundIncludesWholeDay(t *testing.T) {
	e := newEnv(t, nil)

	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	lateInDay := e.addPost(t, "late", day.Add(23*time.Hour+59*time.Minute), nil)
	nextDay := e.addPost(t, "next", day.Add(25*time.Hour), nil)

	page := e.run(t, feedDto.FeedFilters{From: "2026-08-20", To: "2026-08-20"})
	assert.Equal(t, []string{lateInDay.ID.String()}, ids(page))
	assert.NotContains(t, ids(page), nextDay.ID.String())
}

func TestPaginationWindow(t *testing.T) {
	e := newEnv(t, nil)
	now := time.Now().UTC()
	for i := 0; i < 12; i++ {
		e.addPost(t, "post", now.Add(-time.Duration(i)*time.Minute), nil)
	}

	first := e.run(t, feedDto.FeedFilters{Page: 1, Limit: 5})
	assert.Len(t, first.Posts, 5)
	assert.EqualValues(t, 12, first.Total)
	assert.Equal(t, 3, first.TotalPages)

	last := e.run(t, feedDto.FeedFilters{Page: 3, Limit: 5})
	assert.Len(t, last.Posts, 2)

	beyond := e.run(t, feedDto.FeedFilters{Page: 9, Limit: 5})
	assert.Empty(t, beyond.Posts)
	assert.EqualValues(t, 12, beyond.Total)
}

func TestMyGroupsFilter(t *testing.T) {
	e := newEnv(t, nil)
	now := time.Now().UTC()

	group := &entity.Group{CompanyID: e.company.ID, Name: "Book Club"}
	require.NoError(t, e.db.Create(group).Error)
	require.NoError(t, e.db.Create(&entity.GroupMember{
		GroupID: group.ID, UserID: e.author.ID, Role: entity.GroupRoleMember,
	}).Error)

	inGroup := e.addPost(t, "for the club", now, func(p *entity.Post) { p.GroupID = &group.ID })
	e.addPost(t, "company wide", now, nil)

	page := e.run(t, feedDto.FeedFilters{MyGroups: true})
	assert.Equal(t, []string{inGroup.ID.String()}, ids(page))

	// A user with no memberships sees an empty my-groups feed.
	loner := &entity.User{CompanyID: e.company.ID, Email: "l@acme.test", Name: "Loner"}
	require.NoError(t, e.db.Create(loner).Error)
	page, _, err := e.svc.RunFeedQuery(context.Background(), FeedQuery{
		Company:     e.company,
		Scope:       ScopeCompany,
		RequesterID: loner.ID,
		Filters:     feedDto.FeedFilters{MyGroups: true},
	})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
}

func TestGroupScope(t *testing.T) {
	e := newEnv(t, nil)
	now := time.Now().UTC()

	group := &entity.Group{CompanyID: e.company.ID, Name: "Design"}
	require.NoError(t, e.db.Create(group).Error)

	inGroup := e.addPost(t, "design talk", now, func(p *entity.Post) { p.GroupID = &group.ID })
	e.addPost(t, "elsewhere", now, nil)

	page, _, err := e.svc.RunFeedQuery(context.Background(), FeedQuery{
		Company:     e.company,
		Scope:       ScopeGroup,
		GroupID:     &group.ID,
		RequesterID: e.author.ID,
		Filters:     feedDto.FeedFilters{},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{inGroup.ID.String()}, ids(page))
}

func TestSecondQueryServedFromCache(t *testing.T) {
	e := newEnv(t, nil)
	e.addPost(t, "cached", time.Now().UTC(), nil)

	query := FeedQuery{Company: e.company, Scope: ScopeCompany, RequesterID: e.author.ID}

	_, fromCache, err := e.svc.RunFeedQuery(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, fromCache)

	// A write landing between the two reads is invisible until TTL or bust.
	e.addPost(t, "newer", time.Now().UTC(), nil)

	page, fromCache, err := e.svc.RunFeedQuery(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Len(t, page.Posts, 1)

	// Busting the tenant forces a rebuild that sees the new post.
	e.cache.BustCompany(context.Background(), e.company.Slug)
	page, fromCache, err = e.svc.RunFeedQuery(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Len(t, page.Posts, 2)
}

func TestDifferentFiltersDifferentCacheEntries(t *testing.T) {
	e := newEnv(t, nil)
	e.addPost(t, "one", time.Now().UTC(), nil)

	e.run(t, feedDto.FeedFilters{})
	e.run(t, feedDto.FeedFilters{Type: "POLL"})

	assert.Equal(t, 2, e.store.Len())
}

func TestSearchUsesEngineRanking(t *testing.T) {
	e := newEnv(t, nil)
	now := time.Now().UTC()

	older := e.addPost(t, "retro notes", now.Add(-2*time.Hour), nil)
	newer := e.addPost(t, "retro summary", now, nil)
	e.addPost(t, "unrelated", now, nil)

	// The engine ranks the older post as more relevant.
	search := &stubSearch{ids: []uuid.UUID{older.ID, newer.ID}}
	e2 := &env{db: e.db, company: e.company, author: e.author}
	e2.store = pkgcache.NewMemoryStore()
	e2.cache = appcache.New(e2.store, perf.NewRecorder())
	e2.svc = NewFeedService(
		feedRepo.NewFeedRepository(e.db),
		userRepo.NewUserRepository(e.db),
		search,
		e2.cache,
		perf.NewRecorder(),
	)

	page := e2.run(t, feedDto.FeedFilters{Q: "retro"})
	assert.Equal(t, []string{older.ID.String(), newer.ID.String()}, ids(page))
	assert.EqualValues(t, 2, page.Total)
	assert.NotEmpty(t, page.Posts[0].Excerpt)
}

func TestSearchFallsBackToScan(t *testing.T) {
	e := newEnv(t, &stubSearch{err: errors.New("meili down")})
	now := time.Now().UTC()

	match := e.addPost(t, "the Q3 retro went well", now.Add(-time.Hour), nil)
	e.addPost(t, "nothing to see", now, nil)

	page := e.run(t, feedDto.FeedFilters{Q: "retro"})
	assert.Equal(t, []string{match.ID.String()}, ids(page))
}

func TestSearchScanEscapesLikeMetacharacters(t *testing.T) {
	e := newEnv(t, &stubSearch{err: errors.New("meili down")})
	now := time.Now().UTC()

	literal := e.addPost(t, "sales grew 50% this quarter", now, nil)
	e.addPost(t, "sales grew 505 this quarter", now, nil)

	page := e.run(t, feedDto.FeedFilters{Q: "50%"})
	assert.Equal(t, []string{literal.ID.String()}, ids(page))
}

func TestSearchFilteredCandidatesRespectSQLFilters(t *testing.T) {
	e := newEnv(t, nil)
	now := time.Now().UTC()

	published := e.addPost(t, "retro one", now, nil)
	hidden := e.addPost(t, "retro two", now, func(p *entity.Post) {
		p.Status = entity.PostStatusQueued
	})

	search := &stubSearch{ids: []uuid.UUID{hidden.ID, published.ID}}
	e2 := &env{db: e.db, company: e.company, author: e.author}
	e2.store = pkgcache.NewMemoryStore()
	e2.cache = appcache.New(e2.store, perf.NewRecorder())
	e2.svc = NewFeedService(
		feedRepo.NewFeedRepository(e.db),
		userRepo.NewUserRepository(e.db),
		search,
		e2.cache,
		perf.NewRecorder(),
	)

	page := e2.run(t, feedDto.FeedFilters{Q: "retro"})
	assert.Equal(t, []string{published.ID.String()}, ids(page))
}

func TestFeedQueriesLandInFeedTTLTier(t *testing.T) {
	groupID := uuid.New()

	companyWide := FeedQuery{Scope: ScopeCompany}
	assert.Equal(t, appcache.TTLFeed, appcache.TTLFor(companyWide.path()))

	grouped := FeedQuery{Scope: ScopeGroup, GroupID: &groupID}
	assert.Equal(t, appcache.TTLFeed, appcache.TTLFor(grouped.path()))
}
