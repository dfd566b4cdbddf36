// Package sqlitestore is the embedded single-file store used for local runs.
// It implements the same persistence surface as the PostgreSQL store.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/errors"
	storage "github.com/lueurxax/diary-replier/internal/storage"
	"github.com/lueurxax/diary-replier/migrations"
)

const (
	driverName    = "sqlite"
	gooseDialect  = "sqlite3"
	dateLayout    = "2006-01-02"
	busyTimeoutMS = 5000
)

// Store is a SQLite-backed ports.Store.
type Store struct {
	db     *sql.DB
	logger *zerolog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database file at path.
func Open(ctx context.Context, path string, logger *zerolog.Logger) (*Store, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", errors.ErrInvalidInput)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// A single connection serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMS)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Migrate applies the embedded SQLite migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(&storage.GooseLogger{Logger: s.logger})

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, s.db, migrations.SQLiteDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close closes the database file.
func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close sqlite db")
	}
}

// Ping checks that the database file is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}

	return nil
}

// SaveDiaryLog stores one pipeline run and returns its id.
func (s *Store) SaveDiaryLog(ctx context.Context, log *domain.DiaryLog) (int64, error) {
	emotions, err := json.Marshal(nonNil(log.Emotions))
	if err != nil {
		return 0, fmt.Errorf("marshal emotions: %w", err)
	}

	keywords, err := json.Marshal(nonNil(log.Keywords))
	if err != nil {
		return 0, fmt.Errorf("marshal keywords: %w", err)
	}

	flags := log.Flags
	if flags == nil {
		flags = map[string]bool{}
	}

	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return 0, fmt.Errorf("marshal flags: %w", err)
	}

	createdAt := log.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO diary_logs (created_at, user_id, entry_date, preset_used, mood_hint, input_text,
			reply_short, reply_normal, valence, emotions, keywords, summary, safety_flag, flags, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		createdAt.UTC().Format(time.RFC3339Nano),
		nullString(log.UserID),
		nullDate(log.EntryDate),
		log.PresetUsed,
		storage.SanitizeUTF8(log.MoodHint),
		storage.SanitizeUTF8(log.InputText),
		nullString(log.ReplyShort),
		nullString(log.ReplyNormal),
		log.Valence,
		string(emotions),
		string(keywords),
		storage.SanitizeUTF8(log.Summary),
		log.SafetyFlag,
		string(flagsJSON),
		log.LatencyMS,
	)
	if err != nil {
		return 0, fmt.Errorf("insert diary log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read diary log id: %w", err)
	}

	return id, nil
}

// ListDiaryLogs returns logs newest first. An empty userID lists every user and
// a non-positive limit returns all rows.
func (s *Store) ListDiaryLogs(ctx context.Context, userID string, limit int) ([]domain.DiaryLog, error) {
	query := `
		SELECT id, created_at, user_id, entry_date, preset_used, mood_hint, input_text,
			reply_short, reply_normal, valence, emotions, keywords, summary, safety_flag, flags, latency_ms
		FROM diary_logs
		WHERE (? = '' OR user_id = ?)
		ORDER BY id DESC`

	args := []any{userID, userID}

	if limit > 0 {
		query += " LIMIT ?"

		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list diary logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.DiaryLog

	for rows.Next() {
		entry, err := scanDiaryLog(rows)
		if err != nil {
			return nil, err
		}

		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diary log rows: %w", err)
	}

	return logs, nil
}

func scanDiaryLog(rows *sql.Rows) (domain.DiaryLog, error) {
	var (
		entry                     domain.DiaryLog
		createdAt                 string
		userID, entryDate         sql.NullString
		replyShort, replyNormal   sql.NullString
		emotions, keywords, flags string
	)

	if err := rows.Scan(
		&entry.ID, &createdAt, &userID, &entryDate, &entry.PresetUsed, &entry.MoodHint, &entry.InputText,
		&replyShort, &replyNormal, &entry.Valence, &emotions, &keywords, &entry.Summary, &entry.SafetyFlag, &flags, &entry.LatencyMS,
	); err != nil {
		return domain.DiaryLog{}, fmt.Errorf("scan diary log row: %w", err)
	}

	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		entry.CreatedAt = t
	}

	if entryDate.Valid {
		if d, err := time.Parse(dateLayout, entryDate.String); err == nil {
			entry.EntryDate = &d
		}
	}

	entry.UserID = userID.String
	entry.ReplyShort = replyShort.String
	entry.ReplyNormal = replyNormal.String

	if err := json.Unmarshal([]byte(emotions), &entry.Emotions); err != nil {
		return domain.DiaryLog{}, fmt.Errorf("unmarshal emotions: %w", err)
	}

	if err := json.Unmarshal([]byte(keywords), &entry.Keywords); err != nil {
		return domain.DiaryLog{}, fmt.Errorf("unmarshal keywords: %w", err)
	}

	if err := json.Unmarshal([]byte(flags), &entry.Flags); err != nil {
		return domain.DiaryLog{}, fmt.Errorf("unmarshal flags: %w", err)
	}

	return entry, nil
}

// GetUserPreset returns the stored preset or errors.ErrNotFound.
func (s *Store) GetUserPreset(ctx context.Context, userID string) (*domain.UserPreset, error) {
	p := domain.UserPreset{UserID: userID}

	var updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT preset, mood_default, updated_at FROM user_presets WHERE user_id = ?
	`, userID).Scan(&p.Preset, &p.MoodDefault, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}

		return nil, fmt.Errorf("get user preset: %w", err)
	}

	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		p.UpdatedAt = t
	}

	return &p, nil
}

// UpsertUserPreset stores the preset, replacing any previous value.
func (s *Store) UpsertUserPreset(ctx context.Context, preset *domain.UserPreset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_presets (user_id, preset, mood_default, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			preset = excluded.preset,
			mood_default = excluded.mood_default,
			updated_at = excluded.updated_at
	`, preset.UserID, preset.Preset, storage.SanitizeUTF8(preset.MoodDefault), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert user preset: %w", err)
	}

	return nil
}

// IncrementLLMUsage increments LLM usage counters for the current UTC day.
func (s *Store) IncrementLLMUsage(ctx context.Context, provider, model, task string, promptTokens, completionTokens int, cost float64) error {
	now := s.now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_usage (date, provider, model, task, prompt_tokens, completion_tokens, request_count, cost_usd, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (date, provider, model, task) DO UPDATE SET
			prompt_tokens = llm_usage.prompt_tokens + excluded.prompt_tokens,
			completion_tokens = llm_usage.completion_tokens + excluded.completion_tokens,
			request_count = llm_usage.request_count + 1,
			cost_usd = llm_usage.cost_usd + excluded.cost_usd,
			updated_at = excluded.updated_at
	`, now.Format(dateLayout), provider, model, task, promptTokens, completionTokens, cost, now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("increment llm usage: %w", err)
	}

	return nil
}

// DailyTokenUsage returns today's prompt plus completion tokens.
func (s *Store) DailyTokenUsage(ctx context.Context) (int64, error) {
	var total int64

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(prompt_tokens + completion_tokens), 0) FROM llm_usage WHERE date = ?
	`, s.now().UTC().Format(dateLayout)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("get daily token usage: %w", err)
	}

	return total, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: storage.SanitizeUTF8(s), Valid: s != ""}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}

	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
