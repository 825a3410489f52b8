package store

// SearchMessages performs a full-text search on cached message bodies,
// newest first. conversationID narrows the search when non-empty.
func (db *DB) SearchMessages(query string, conversationID string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT m.msg_id, m.role, m.body, m.kind, m.template_name, m.params, m.status, m.timestamp,
		       m.conversation_id, snippet(messages_fts, '<<', '>>', '...', -1, 16)
		FROM messages_fts f
		JOIN messages m ON m.id = f.docid
		WHERE messages_fts MATCH ?`

	args := []any{query}
	if conversationID != "" {
		q += " AND m.conversation_id = ?"
		args = append(args, conversationID)
	}
	q += " ORDER BY m.timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		m, err := scanMessage(rows, &r.ConversationID, &r.Snippet)
		if err != nil {
			return nil, err
		}
		r.Message = m
		results = append(results, r)
	}
	return results, rows.Err()
}
