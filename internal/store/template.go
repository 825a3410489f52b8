package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpsertTemplates stores a batch of templates in one transaction and returns
// how many were written.
func (db *DB) UpsertTemplates(list []Template) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, t := range list {
		if strings.TrimSpace(t.Name) == "" {
			return 0, errors.New("template without name")
		}
		status := strings.ToLower(t.Status)
		switch status {
		case TemplateApproved, TemplatePending, TemplateRejected:
		case "":
			status = TemplatePending
		default:
			return 0, fmt.Errorf("template %q: unknown status %q", t.Name, t.Status)
		}
		vars := t.Variables
		if vars == nil {
			vars = []string{}
		}
		enc, err := json.Marshal(vars)
		if err != nil {
			return 0, fmt.Errorf("template %q: %w", t.Name, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO templates (name, language, category, status, content, variables, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				language = excluded.language,
				category = excluded.category,
				status = excluded.status,
				content = excluded.content,
				variables = excluded.variables,
				updated_at = excluded.updated_at`,
			t.Name, t.Language, t.Category, status, t.Content, string(enc), now); err != nil {
			return 0, fmt.Errorf("upsert template %q: %w", t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(list), nil
}

// GetTemplate returns a template by name, or nil if it is unknown.
func (db *DB) GetTemplate(name string) (*Template, error) {
	t, err := scanTemplate(db.QueryRow(`
		SELECT name, language, category, status, content, variables
		FROM templates WHERE name = ?`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTemplates returns templates sorted by name. An empty status lists all.
func (db *DB) ListTemplates(status string) ([]Template, error) {
	q := `SELECT name, language, category, status, content, variables FROM templates`
	args := []any{}
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, status)
	}
	q += " ORDER BY name ASC"

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TemplateCount returns the number of stored templates.
func (db *DB) TemplateCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM templates`).Scan(&count)
	return count, err
}

func scanTemplate(row scanner) (Template, error) {
	var (
		t    Template
		vars string
	)
	if err := row.Scan(&t.Name, &t.Language, &t.Category, &t.Status, &t.Content, &vars); err != nil {
		return Template{}, err
	}
	if err := json.Unmarshal([]byte(vars), &t.Variables); err != nil {
		return Template{}, fmt.Errorf("template %q variables: %w", t.Name, err)
	}
	return t, nil
}
