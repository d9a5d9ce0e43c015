package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/haleyhq/pulseboard/internal/entity"
	leaderboardRepo "github.com/haleyhq/pulseboard/internal/modules/leaderboard/repository"
	"github.com/haleyhq/pulseboard/pkg/apperror"
)

func setup(t *testing.T) (*gorm.DB, *entity.Company, LeaderboardService) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Company{}, &entity.User{}, &entity.PointEvent{}))

	company := &entity.Company{Slug: "acme", Name: "Acme", GamificationEnabled: true}
	require.NoError(t, db.Create(company).Error)

	return db, company, NewLeaderboardService(leaderboardRepo.NewLeaderboardRepository(db), nil)
}

func seedUser(t *testing.T, db *gorm.DB, companyID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	user := &entity.User{CompanyID: companyID, Email: name + "@acme.test", Name: name}
	require.NoError(t, db.Create(user).Error)
	return user.ID
}

func seedEvent(t *testing.T, db *gorm.DB, companyID, userID uuid.UUID, points int, at time.Time) {
	t.Helper()
	event := &entity.PointEvent{
		CompanyID: companyID,
		UserID:    userID,
		Action:    "POST_CREATED",
		Points:    points,
		EventKey:  uuid.NewString(),
	}
	require.NoError(t, db.Create(event).Error)
	require.NoError(t, db.Model(event).Update("created_at", at).Error)
}

func TestTopRanksBySummedPoints(t *testing.T) {
	db, company, svc := setup(t)
	now := time.Now().UTC()

	alice := seedUser(t, db, company.ID, "alice")
	bob := seedUser(t, db, company.ID, "bob")
	carol := seedUser(t, db, company.ID, "carol")

	seedEvent(t, db, company.ID, alice, 10, now)
	seedEvent(t, db, company.ID, alice, 5, now)
	seedEvent(t, db, company.ID, bob, 8, now)
	// Carol's award was fully reversed; she drops off the board.
	seedEvent(t, db, company.ID, carol, 3, now)
	seedEvent(t, db, company.ID, carol, -3, now)

	board, _, err := svc.Top(context.Background(), company, PeriodAllTime, 10)
	require.NoError(t, err)

	require.Len(t, board.Entries, 2)
	assert.Equal(t, alice.String(), board.Entries[0].UserID)
	assert.EqualValues(t, 15, board.Entries[0].Points)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, bob.String(), board.Entries[1].UserID)
	assert.EqualValues(t, 8, board.Entries[1].Points)
}

func TestTopWeeklyWindow(t *testing.T) {
	db, company, svc := setup(t)
	now := time.Now().UTC()

	alice := seedUser(t, db, company.ID, "alice")
	seedEvent(t, db, company.ID, alice, 10, now.AddDate(0, 0, -10))
	seedEvent(t, db, company.ID, alice, 2, now)

	board, _, err := svc.Top(context.Background(), company, PeriodWeekly, 10)
	require.NoError(t, err)

	require.Len(t, board.Entries, 1)
	assert.EqualValues(t, 2, board.Entries[0].Points)
}

func TestTopScopedToCompany(t *testing.T) {
	db, company, svc := setup(t)
	other := &entity.Company{Slug: "other", Name: "Other", GamificationEnabled: true}
	require.NoError(t, db.Create(other).Error)

	stranger := seedUser(t, db, other.ID, "stranger")
	seedEvent(t, db, other.ID, stranger, 99, time.Now().UTC())

	board, _, err := svc.Top(context.Background(), company, PeriodAllTime, 10)
	require.NoError(t, err)
	assert.Empty(t, board.Entries)
}

func TestTopDisabledGamification(t *testing.T) {
	db, company, svc := setup(t)
	require.NoError(t, db.Model(company).Update("gamification_enabled", false).Error)
	company.GamificationEnabled = false

	_, _, err := svc.Top(context.Background(), company, PeriodAllTime, 10)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
