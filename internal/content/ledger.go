package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// HasReference reports whether key is already in the used-reference ledger.
func (s *Store) HasReference(ctx context.Context, key string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM used_references WHERE reference_key = ?`, key,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("check used reference: %w", err)
	}
	return count > 0, nil
}

// RecordReference appends ref to the ledger unless its key is present. It
// reports whether a new entry was written.
func (s *Store) RecordReference(ctx context.Context, ref UsedReference) (bool, error) {
	key := strings.TrimSpace(ref.ReferenceKey)
	if key == "" {
		return false, errors.New("record reference: key is required")
	}
	exists, err := s.HasReference(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	var contentID any
	if ref.ContentID > 0 {
		contentID = ref.ContentID
	}
	res, err := s.execWithRetry(ctx,
		`INSERT OR IGNORE INTO used_references (reference_key, reference, book, chapter, verse, date, content_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key, ref.Reference, ref.Book, ref.Chapter, ref.Verse, ref.Date, contentID, s.timestamp(),
	)
	if err != nil {
		return false, fmt.Errorf("record reference %s: %w", key, err)
	}
	return changed(res)
}

// UsedKeys returns every reference key in the ledger plus the keys already
// assigned to a content record. A day that stopped before its ledger step
// still holds its reference.
func (s *Store) UsedKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT reference_key FROM used_references
         UNION
         SELECT reference_key FROM content_records
         WHERE reference_key IS NOT NULL AND reference_key <> ''`)
	if err != nil {
		return nil, fmt.Errorf("list used keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan used key: %w", err)
		}
		keys[key] = struct{}{}
	}
	return keys, rows.Err()
}

// ListLedger returns ledger entries newest date first. limit <= 0 returns all.
func (s *Store) ListLedger(ctx context.Context, limit int) ([]UsedReference, error) {
	query := `SELECT id, reference_key, reference, book, chapter, verse, date, content_id, created_at
              FROM used_references ORDER BY date DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var out []UsedReference
	for rows.Next() {
		var (
			ref        UsedReference
			contentID  sql.NullInt64
			createdRaw sql.NullString
		)
		if err := rows.Scan(&ref.ID, &ref.ReferenceKey, &ref.Reference, &ref.Book, &ref.Chapter, &ref.Verse, &ref.Date, &contentID, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		ref.ContentID = contentID.Int64
		if created, err := parseTimeString(createdRaw.String); err == nil {
			ref.CreatedAt = created
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}
