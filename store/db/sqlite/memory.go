package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/solacehq/solace/store"
)

// ListRecentMemories returns the most recent memory records, newest first.
func (d *DB) ListRecentMemories(ctx context.Context, userID string, limit int) ([]*store.MemoryRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `SELECT id, user_id, role, content, keywords, created_ts
		FROM memory WHERE user_id = ?
		ORDER BY created_ts DESC, id DESC LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list memories")
	}
	defer rows.Close()

	return scanMemories(rows)
}

// SearchMemories returns memory records matching any of the given keywords,
// newest first. Matching is a case-insensitive substring match over the
// keyword index and the content.
func (d *DB) SearchMemories(ctx context.Context, userID string, keywords []string, limit int) ([]*store.MemoryRecord, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	where := make([]string, 0, len(keywords))
	args := []any{userID}
	for _, kw := range keywords {
		pattern := "%" + strings.ToLower(kw) + "%"
		where = append(where, "(LOWER(keywords) LIKE ? OR LOWER(content) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	args = append(args, limit)

	query := `SELECT id, user_id, role, content, keywords, created_ts
		FROM memory WHERE user_id = ? AND (` + strings.Join(where, " OR ") + `)
		ORDER BY created_ts DESC, id DESC LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search memories")
	}
	defer rows.Close()

	return scanMemories(rows)
}

// CreateMemory appends a memory record.
func (d *DB) CreateMemory(ctx context.Context, create *store.CreateMemory) (*store.MemoryRecord, error) {
	role := create.Role
	if role == "" {
		role = "user"
	}
	now := time.Now().Unix()

	stmt := `INSERT INTO memory (user_id, role, content, keywords, created_ts)
		VALUES (?, ?, ?, ?, ?) RETURNING id`

	record := &store.MemoryRecord{
		UserID:    create.UserID,
		Role:      role,
		Content:   create.Content,
		Keywords:  create.Keywords,
		CreatedTs: now,
	}
	err := d.db.QueryRowContext(ctx, stmt,
		create.UserID, role, create.Content, joinKeywords(create.Keywords), now).Scan(&record.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create memory")
	}
	return record, nil
}

func scanMemories(rows *sql.Rows) ([]*store.MemoryRecord, error) {
	var list []*store.MemoryRecord
	for rows.Next() {
		record := &store.MemoryRecord{}
		var keywords string
		if err := rows.Scan(&record.ID, &record.UserID, &record.Role, &record.Content, &keywords, &record.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan memory")
		}
		record.Keywords = splitKeywords(keywords)
		list = append(list, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate memories")
	}
	return list, nil
}

func joinKeywords(keywords []string) string {
	return strings.Join(keywords, " ")
}

func splitKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Fields(raw)
}
