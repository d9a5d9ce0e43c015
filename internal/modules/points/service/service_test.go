package points

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/haleyhq/pulseboard/internal/entity"
	companyRepo "github.com/haleyhq/pulseboard/internal/modules/company/repository"
	pointsRepo "github.com/haleyhq/pulseboard/internal/modules/points/repository"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Company{}, &entity.PointEvent{}))
	return db
}

func seedCompany(t *testing.T, db *gorm.DB, enabled bool, rules entity.GamificationRules) *entity.Company {
	t.Helper()
	company := &entity.Company{
		Slug:                "acme-" + uuid.NewString()[:8],
		Name:                "Acme",
		PostingMode:         entity.PostingModeOpen,
		GamificationEnabled: enabled,
		GamificationRules:   rules,
	}
	require.NoError(t, db.Create(company).Error)
	return company
}

func newService(db *gorm.DB) PointsService {
	return NewPointsService(pointsRepo.NewPointsRepository(db), companyRepo.NewCompanyRepository(db))
}

func countEvents(t *testing.T, db *gorm.DB, companyID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&entity.PointEvent{}).Where("company_id = ?", companyID).Count(&n).Error)
	return n
}

func TestAwardIdempotent(t *testing.T) {
	db := setupDB(t)
	company := seedCompany(t, db, true, entity.GamificationRules{
		Actions: map[string]int{ActionPostCreated: 10},
	})
	svc := newService(db)
	userID := uuid.New()
	postID := uuid.NewString()

	in := AwardInput{
		CompanyID:  company.ID,
		UserID:     userID,
		Action:     ActionPostCreated,
		TargetType: "POST",
		TargetID:   postID,
		Meta:       AwardMeta{PostID: postID},
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Award(ctx, in))
	}

	assert.EqualValues(t, 1, countEvents(t, db, company.ID))
	total, err := svc.Balance(ctx, company.ID, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, total)
}

func TestAwardReversalSymmetry(t *testing.T) {
	db := setupDB(t)
	company := seedCompany(t, db, true, entity.GamificationRules{
		ReactionsGiven:    map[string]int{"LIKE": 1},
		ReactionsReceived: map[string]int{"LIKE": 2},
	})
	svc := newService(db)
	userID := uuid.New()
	postID := uuid.NewString()
	ctx := context.Background()

	add := AwardInput{
		CompanyID:  company.ID,
		UserID:     userID,
		Action:     ActionReactionReceived,
		TargetType: "POST",
		TargetID:   postID,
		Meta:       AwardMeta{ReactionType: "LIKE", PostID: postID},
		Polarity:   1,
	}
	remove := add
	remove.Polarity = -1

	require.NoError(t, svc.Award(ctx, add))
	require.NoError(t, svc.Award(ctx, remove))

	// Two distinct rows, not an update of the first.
	assert.EqualValues(t, 2, countEvents(t, db, company.ID))
	total, err := svc.Balance(ctx, company.ID, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	// Replaying either side changes nothing.
	require.NoError(t, svc.Award(ctx, add))
	require.NoError(t, svc.Award(ctx, remove))
	assert.EqualValues(t, 2, countEvents(t, db, company.ID))
}

func TestAwardZeroRuleWritesNothing(t *testing.T) {
	db := setupDB(t)
	company := seedCompany(t, db, true, entity.GamificationRules{
		Actions: map[string]int{ActionPostCreated: 10},
	})
	svc := newService(db)

	in := AwardInput{
		CompanyID:  company.ID,
		UserID:     uuid.New(),
		Action:     ActionCommentCreated, // no rule configured
		TargetType: "COMMENT",
		TargetID:   uuid.NewString(),
	}
	require.NoError(t, svc.Award(context.Background(), in))
	assert.EqualValues(t, 0, countEvents(t, db, company.ID))
}

func TestAwardDisabledGamification(t *testing.T) {
	db := setupDB(t)
	company := seedCompany(t, db, false, entity.GamificationRules{
		Actions: map[string]int{ActionPostCreated: 10},
	})
	svc := newService(db)

	in := AwardInput{
		CompanyID:  company.ID,
		UserID:     uuid.New(),
		Action:     ActionPostCreated,
		TargetType: "POST",
		TargetID:   uuid.NewString(),
	}
	require.NoError(t, svc.Award(context.Background(), in))
	assert.EqualValues(t, 0, countEvents(t, db, company.ID))
}

func TestAwardReceivedFallsBackToGivenRules(t *testing.T) {
	db := setupDB(t)
	company := seedCompany(t, db, true, entity.GamificationRules{
		ReactionsGiven: map[string]int{"CELEBRATE": 3},
	})
	svc := newService(db)
	userID := uuid.New()

	in := AwardInput{
		CompanyID:  company.ID,
		UserID:     userID,
		Action:     ActionReactionReceived,
		TargetType: "POST",
		TargetID:   uuid.NewString(),
		Meta:       AwardMeta{ReactionType: "celebrate"},
	}
	require.NoError(t, svc.Award(context.Background(), in))

	total, err := svc.Balance(context.Background(), company.ID, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestEventKeyEncode(t *testing.T) {
	companyID := uuid.New()
	userID := uuid.New()

	base := EventKey{
		Action:       ActionReactionGiven,
		CompanyID:    companyID,
		UserID:       userID,
		TargetType:   "POST",
		TargetID:     "p1",
		ReactionType: "LIKE",
		Direction:    DirectionGiven,
		PostID:       "p1",
		Marker:       MarkerAdd,
	}

	assert.Equal(t, base.Encode(), base.Encode())

	removed := base
	removed.Marker = MarkerRemove
	assert.NotEqual(t, base.Encode(), removed.Encode())

	// Delimiters inside a part must not collide with adjacent parts.
	tricky := base
	tricky.TargetID = "a:b"
	tricky.ReactionType = ""
	split := base
	split.TargetID = "a"
	split.ReactionType = "b"
	assert.NotEqual(t, split.Encode(), tricky.Encode())
	assert.False(t, strings.Contains(tricky.Encode(), "a:b"))
}
