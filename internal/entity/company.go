package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PostingModeOpen      = "OPEN"
	PostingModeModerated = "MODERATED"
)

// Company is one tenant. All data is partitioned by CompanyID; feeds and cache
// keys are additionally namespaced by Slug.
type Company struct {
	ID                   uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Slug                 string            `gorm:"size:80;uniqueIndex;not null" json:"slug"`
	Name                 string            `gorm:"size:150;not null" json:"name"`
	PostingMode          string            `gorm:"size:20;not null;default:OPEN" json:"posting_mode"`
	NotificationsEnabled bool              `gorm:"default:true" json:"notifications_enabled"`
	GamificationEnabled  bool              `gorm:"default:false" json:"gamification_enabled"`
	GamificationRules    GamificationRules `gorm:"type:jsonb" json:"gamification_rules"`
	RetentionDays        int               `gorm:"default:30" json:"retention_days"`
	CreatedAt            time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// GamificationRules maps scorable actions to point values. Reaction actions
// resolve through per-reaction-type sub-maps. An unconfigured action is worth
// zero; lookups never fail.
type GamificationRules struct {
	Actions           map[string]int `json:"actions"`
	ReactionsGiven    map[string]int `json:"reactions_given"`
	ReactionsReceived map[string]int `json:"reactions_received"`
}

// PointsFor returns the configured value for an action, zero when absent.
// Reaction actions index into the per-type maps by uppercased reaction type;
// a missing received map falls back to the given map.
func (r GamificationRules) PointsFor(action, reactionType string) int {
	switch action {
	case "REACTION_GIVEN":
		return r.ReactionsGiven[strings.ToUpper(reactionType)]
	case "REACTION_RECEIVED":
		if r.ReactionsReceived != nil {
			return r.ReactionsReceived[strings.ToUpper(reactionType)]
		}
		return r.ReactionsGiven[strings.ToUpper(reactionType)]
	default:
		return r.Actions[action]
	}
}

func (r GamificationRules) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *GamificationRules) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	case nil:
		*r = GamificationRules{}
		return nil
	default:
		return fmt.Errorf("unsupported gamification rules column type %T", value)
	}
}
