package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/solacehq/solace/store"
)

// GetPreferences returns the stored preferences for a user.
func (d *DB) GetPreferences(ctx context.Context, userID string) (map[string]any, error) {
	query := `SELECT preferences FROM user_preference WHERE user_id = ` + placeholder(1)

	var raw string
	err := d.db.QueryRowContext(ctx, query, userID).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return map[string]any{}, nil
		}
		return nil, errors.Wrap(err, "failed to get user_preference")
	}

	prefs := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal preferences")
	}
	return prefs, nil
}

// UpsertPreferences writes the full preferences map for a user.
func (d *DB) UpsertPreferences(ctx context.Context, upsert *store.UpsertPreferences) error {
	raw, err := json.Marshal(upsert.Preferences)
	if err != nil {
		return errors.Wrap(err, "failed to marshal preferences")
	}

	now := time.Now().Unix()
	stmt := `INSERT INTO user_preference (user_id, preferences, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			preferences = EXCLUDED.preferences,
			updated_ts = EXCLUDED.updated_ts`

	if _, err := d.db.ExecContext(ctx, stmt, upsert.UserID, string(raw), now, now); err != nil {
		return errors.Wrap(err, "failed to upsert user_preference")
	}
	return nil
}
