package store

import (
	"fmt"
	"time"

	"github.com/matheus3301/wppdesk/internal/conversation"
)

const upsertConversationSQL = `
	INSERT INTO conversations (id, name, address, avatar, preview, preview_at, unread, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = CASE WHEN excluded.name != '' THEN excluded.name ELSE conversations.name END,
		address = CASE WHEN excluded.address != '' THEN excluded.address ELSE conversations.address END,
		avatar = CASE WHEN excluded.avatar != '' THEN excluded.avatar ELSE conversations.avatar END,
		preview = excluded.preview,
		preview_at = excluded.preview_at,
		unread = excluded.unread,
		updated_at = excluded.updated_at`

// UpsertSummary inserts or updates one conversation summary. Empty
// counterpart fields never overwrite known ones.
func (db *DB) UpsertSummary(s conversation.Summary) error {
	_, err := db.Exec(upsertConversationSQL,
		s.ID, s.Name, s.Address, s.Avatar, s.Preview, unixMilli(s.PreviewAt), s.Unread, time.Now().UnixMilli())
	return err
}

// SaveSummaries upserts a full summary list in a single transaction.
func (db *DB) SaveSummaries(list []conversation.Summary) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, s := range list {
		if _, err := tx.Exec(upsertConversationSQL,
			s.ID, s.Name, s.Address, s.Avatar, s.Preview, unixMilli(s.PreviewAt), s.Unread, now); err != nil {
			return fmt.Errorf("upsert conversation %q: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

// ListSummaries returns cached summaries, most recent activity first.
func (db *DB) ListSummaries(limit int) ([]conversation.Summary, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := db.Query(`
		SELECT id, name, address, avatar, preview, preview_at, unread
		FROM conversations
		ORDER BY preview_at DESC, updated_at DESC, id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []conversation.Summary
	for rows.Next() {
		var (
			s  conversation.Summary
			at int64
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Avatar, &s.Preview, &at, &s.Unread); err != nil {
			return nil, err
		}
		s.PreviewAt = fromMilli(at)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ConversationCount returns the number of cached conversations.
func (db *DB) ConversationCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&count)
	return count, err
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
