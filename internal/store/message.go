package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matheus3301/wppdesk/internal/conversation"
)

const upsertMessageSQL = `
	INSERT INTO messages (conversation_id, msg_id, role, body, kind, template_name, params, status, timestamp, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(conversation_id, msg_id) DO UPDATE SET
		body = excluded.body,
		status = excluded.status`

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// UpsertMessage caches one message (idempotent on conversation + id).
// Provisional messages are never cached.
func (db *DB) UpsertMessage(conversationID string, m conversation.Message) error {
	return upsertMessage(db, conversationID, m, time.Now().UnixMilli())
}

// SaveMessages caches a transcript in a single transaction.
func (db *DB) SaveMessages(conversationID string, msgs []conversation.Message) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, m := range msgs {
		if err := upsertMessage(tx, conversationID, m, now); err != nil {
			return fmt.Errorf("upsert message %q: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

func upsertMessage(ex execer, conversationID string, m conversation.Message, now int64) error {
	if m.ID.IsProvisional() || m.ID.IsZero() {
		return nil
	}
	params, err := encodeParams(m.Params)
	if err != nil {
		return err
	}
	_, err = ex.Exec(upsertMessageSQL,
		conversationID, m.ID.String(), string(m.Role), m.Body, string(m.Kind), m.TemplateName,
		params, string(m.Status), unixMilli(m.Timestamp), now)
	return err
}

// ListMessages returns up to limit messages of a conversation older than
// beforeMs (0 means now), in chronological order.
func (db *DB) ListMessages(conversationID string, beforeMs int64, limit int) ([]conversation.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if beforeMs <= 0 {
		beforeMs = time.Now().UnixMilli() + 1
	}
	rows, err := db.Query(`
		SELECT msg_id, role, body, kind, template_name, params, status, timestamp
		FROM messages
		WHERE conversation_id = ? AND timestamp < ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, conversationID, beforeMs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []conversation.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// SetMessageStatus updates the status of every cached copy of msgID.
func (db *DB) SetMessageStatus(msgID string, status conversation.Status) (bool, error) {
	res, err := db.Exec(`UPDATE messages SET status = ? WHERE msg_id = ?`, string(status), msgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MessageCount returns the total number of cached messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner, extra ...any) (conversation.Message, error) {
	var (
		id, role, kind, status, params string
		ts                             int64
		m                              conversation.Message
	)
	dest := append([]any{&id, &role, &m.Body, &kind, &m.TemplateName, &params, &status, &ts}, extra...)
	if err := row.Scan(dest...); err != nil {
		return conversation.Message{}, err
	}
	m.ID = conversation.Confirmed(id)
	m.Role = conversation.Role(role)
	m.Kind = conversation.Kind(kind)
	m.Status = conversation.Status(status)
	m.Timestamp = fromMilli(ts)
	p, err := decodeParams(params)
	if err != nil {
		return conversation.Message{}, fmt.Errorf("message %q: %w", id, err)
	}
	m.Params = p
	return m, nil
}

func encodeParams(p conversation.Params) (string, error) {
	if len(p) == 0 {
		return "", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	return string(b), nil
}

func decodeParams(s string) (conversation.Params, error) {
	if s == "" {
		return nil, nil
	}
	var p conversation.Params
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return p, nil
}
