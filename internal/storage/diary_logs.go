package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/diary-replier/internal/core/domain"
)

// SaveDiaryLog stores one pipeline run and returns its id.
func (db *DB) SaveDiaryLog(ctx context.Context, log *domain.DiaryLog) (int64, error) {
	emotions, keywords, flags, err := marshalLogJSON(log)
	if err != nil {
		return 0, err
	}

	var id int64

	err = db.Pool.QueryRow(ctx, `
		INSERT INTO diary_logs (created_at, user_id, entry_date, preset_used, mood_hint, input_text,
			reply_short, reply_normal, valence, emotions, keywords, summary, safety_flag, flags, latency_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`,
		log.CreatedAt,
		toText(log.UserID),
		toDatePtr(log.EntryDate),
		log.PresetUsed,
		SanitizeUTF8(log.MoodHint),
		SanitizeUTF8(log.InputText),
		toText(log.ReplyShort),
		toText(log.ReplyNormal),
		log.Valence,
		emotions,
		keywords,
		SanitizeUTF8(log.Summary),
		log.SafetyFlag,
		flags,
		log.LatencyMS,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert diary log: %w", err)
	}

	return id, nil
}

// ListDiaryLogs returns logs newest first. An empty userID lists every user and
// a non-positive limit returns all rows.
func (db *DB) ListDiaryLogs(ctx context.Context, userID string, limit int) ([]domain.DiaryLog, error) {
	query := `
		SELECT id, created_at, user_id, entry_date, preset_used, mood_hint, input_text,
			reply_short, reply_normal, valence, emotions, keywords, summary, safety_flag, flags, latency_ms
		FROM diary_logs
		WHERE ($1 = '' OR user_id = $1)
		ORDER BY id DESC`

	args := []any{userID}

	if limit > 0 {
		query += " LIMIT $2"

		args = append(args, limit)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
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

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate diary log rows: %w", rows.Err())
	}

	return logs, nil
}

func scanDiaryLog(rows pgx.Rows) (domain.DiaryLog, error) {
	var (
		entry       domain.DiaryLog
		userID      pgtype.Text
		entryDate   pgtype.Date
		replyShort  pgtype.Text
		replyNormal pgtype.Text
		emotions    []byte
		keywords    []byte
		flags       []byte
	)

	if err := rows.Scan(
		&entry.ID, &entry.CreatedAt, &userID, &entryDate, &entry.PresetUsed, &entry.MoodHint, &entry.InputText,
		&replyShort, &replyNormal, &entry.Valence, &emotions, &keywords, &entry.Summary, &entry.SafetyFlag, &flags, &entry.LatencyMS,
	); err != nil {
		return domain.DiaryLog{}, fmt.Errorf("scan diary log row: %w", err)
	}

	entry.UserID = fromText(userID)
	entry.EntryDate = fromDate(entryDate)
	entry.ReplyShort = fromText(replyShort)
	entry.ReplyNormal = fromText(replyNormal)

	if err := unmarshalLogJSON(&entry, emotions, keywords, flags); err != nil {
		return domain.DiaryLog{}, err
	}

	return entry, nil
}

func marshalLogJSON(log *domain.DiaryLog) (emotions, keywords, flags []byte, err error) {
	if emotions, err = json.Marshal(nonNil(log.Emotions)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal emotions: %w", err)
	}

	if keywords, err = json.Marshal(nonNil(log.Keywords)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal keywords: %w", err)
	}

	f := log.Flags
	if f == nil {
		f = map[string]bool{}
	}

	if flags, err = json.Marshal(f); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal flags: %w", err)
	}

	return emotions, keywords, flags, nil
}

func unmarshalLogJSON(entry *domain.DiaryLog, emotions, keywords, flags []byte) error {
	if len(emotions) > 0 {
		if err := json.Unmarshal(emotions, &entry.Emotions); err != nil {
			return fmt.Errorf("unmarshal emotions: %w", err)
		}
	}

	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &entry.Keywords); err != nil {
			return fmt.Errorf("unmarshal keywords: %w", err)
		}
	}

	if len(flags) > 0 {
		if err := json.Unmarshal(flags, &entry.Flags); err != nil {
			return fmt.Errorf("unmarshal flags: %w", err)
		}
	}

	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
