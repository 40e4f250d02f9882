package roster

import (
	"context"
	"strings"

	"github.com/okian/peloton/internal/domain/model"
)

// Storage key layout.
const (
	keyPrefix     = "wielermanager_teams_"
	DefaultUserID = "default"
)

// Repository persists a user's roster collection under a single key.
type Repository interface {
	// Load returns the stored collection. found is false when the key is absent.
	Load(ctx context.Context, key string) (rosters []model.Roster, found bool, err error)
	// Save replaces the collection stored under key.
	Save(ctx context.Context, key string, rosters []model.Roster) error
}

// Key scopes the storage entry to a user. Blank ids share the default entry.
func Key(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = DefaultUserID
	}
	return keyPrefix + userID
}
