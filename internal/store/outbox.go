package store

import (
	"fmt"
	"time"

	"github.com/matheus3301/wppdesk/internal/conversation"
)

// QueueOutbox journals a send attempt in the queued state.
func (db *DB) QueueOutbox(e OutboxEntry) error {
	params, err := encodeParams(e.Params)
	if err != nil {
		return err
	}
	if e.Kind == "" {
		e.Kind = conversation.KindText
	}
	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO outbox (local_id, conversation_id, address, body, kind, template_name, params, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'queued', ?, ?)`,
		e.LocalID, e.ConversationID, e.Address, e.Body, string(e.Kind), e.TemplateName, params, now, now)
	return err
}

// MarkOutboxSent updates an outbox entry to 'sent' with the server message ID.
func (db *DB) MarkOutboxSent(localID, serverMsgID string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'sent', server_msg_id = ?, updated_at = ? WHERE local_id = ?`, serverMsgID, now, localID)
	return err
}

// MarkOutboxFailed updates an outbox entry to 'failed' with an error message.
func (db *DB) MarkOutboxFailed(localID, errMsg string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'failed', error_message = ?, updated_at = ? WHERE local_id = ?`, errMsg, now, localID)
	return err
}

// FailInterrupted marks entries left queued by a previous run as failed.
// Sends are never retried automatically.
func (db *DB) FailInterrupted(reason string) (int64, error) {
	now := time.Now().UnixMilli()
	res, err := db.Exec(`UPDATE outbox SET status = 'failed', error_message = ?, updated_at = ? WHERE status = 'queued'`, reason, now)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted sends: %w", err)
	}
	return res.RowsAffected()
}

// ListOutbox returns journal entries, newest first. An empty status lists all.
func (db *DB) ListOutbox(status string, limit int) ([]OutboxEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `
		SELECT id, local_id, conversation_id, address, body, kind, template_name, params,
		       status, error_message, server_msg_id, created_at, updated_at
		FROM outbox`
	args := []any{}
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []OutboxEntry
	for rows.Next() {
		var (
			e            OutboxEntry
			kind, params string
		)
		if err := rows.Scan(&e.ID, &e.LocalID, &e.ConversationID, &e.Address, &e.Body, &kind, &e.TemplateName, &params,
			&e.Status, &e.ErrorMessage, &e.ServerMsgID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Kind = conversation.Kind(kind)
		if e.Params, err = decodeParams(params); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
