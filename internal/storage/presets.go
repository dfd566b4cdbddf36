package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/errors"
)

// GetUserPreset returns the stored preset or errors.ErrNotFound.
func (db *DB) GetUserPreset(ctx context.Context, userID string) (*domain.UserPreset, error) {
	p := domain.UserPreset{UserID: userID}

	err := db.Pool.QueryRow(ctx, `
		SELECT preset, mood_default, updated_at
		FROM user_presets
		WHERE user_id = $1
	`, userID).Scan(&p.Preset, &p.MoodDefault, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}

		return nil, fmt.Errorf("get user preset: %w", err)
	}

	return &p, nil
}

// UpsertUserPreset stores the preset, replacing any previous value.
func (db *DB) UpsertUserPreset(ctx context.Context, preset *domain.UserPreset) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO user_presets (user_id, preset, mood_default, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id)
		DO UPDATE SET
			preset = EXCLUDED.preset,
			mood_default = EXCLUDED.mood_default,
			updated_at = now()
	`, preset.UserID, preset.Preset, SanitizeUTF8(preset.MoodDefault))
	if err != nil {
		return fmt.Errorf("upsert user preset: %w", err)
	}

	return nil
}
