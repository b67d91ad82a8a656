package content

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const translationColumns = "id, content_id, code, text, long_text, audio_url, subtitle_url, source, created_at, updated_at"

func scanTranslation(scanner interface{ Scan(dest ...any) error }) (*Translation, error) {
	var (
		tr         Translation
		source     string
		text       sql.NullString
		longText   sql.NullString
		audio      sql.NullString
		subtitle   sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&tr.ID, &tr.ContentID, &tr.Code, &text, &longText, &audio, &subtitle, &source, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	tr.Source = Source(source)
	tr.Text = text.String
	tr.LongText = longText.String
	tr.AudioURL = audio.String
	tr.SubtitleURL = subtitle.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		tr.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		tr.UpdatedAt = updated
	}
	return &tr, nil
}

// ListTranslations returns every translation row for a record in insertion order.
func (s *Store) ListTranslations(ctx context.Context, contentID int64) ([]Translation, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+translationColumns+` FROM translations WHERE content_id = ? ORDER BY id ASC`,
		contentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	defer rows.Close()

	var out []Translation
	for rows.Next() {
		tr, err := scanTranslation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		out = append(out, *tr)
	}
	return out, rows.Err()
}

// UpsertTranslationText creates the (record, code) row or fills its empty
// text columns. Existing text is never replaced. It reports whether anything
// was written.
func (s *Store) UpsertTranslationText(ctx context.Context, contentID int64, code, text, longText string, source Source) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false, fmt.Errorf("upsert translation: code is required")
	}
	if strings.TrimSpace(text) == "" && strings.TrimSpace(longText) == "" {
		return false, nil
	}
	if source == "" {
		source = SourceAPI
	}
	ts := s.timestamp()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO translations (content_id, code, text, long_text, source, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (content_id, code) DO UPDATE SET
            text = CASE WHEN text IS NULL OR TRIM(text) = '' THEN excluded.text ELSE text END,
            long_text = CASE WHEN long_text IS NULL OR TRIM(long_text) = '' THEN excluded.long_text ELSE long_text END,
            updated_at = excluded.updated_at
         WHERE (text IS NULL OR TRIM(text) = '') AND excluded.text IS NOT NULL
            OR (long_text IS NULL OR TRIM(long_text) = '') AND excluded.long_text IS NOT NULL`,
		contentID, code, nullableString(text), nullableString(longText), string(source), ts, ts,
	)
	if err != nil {
		return false, fmt.Errorf("upsert translation %s: %w", code, err)
	}
	return changed(res)
}

// SetTranslationMedia records narration audio and subtitle URLs for a code.
// URLs already stored are kept.
func (s *Store) SetTranslationMedia(ctx context.Context, contentID int64, code, audioURL, subtitleURL string) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE translations SET `+fillEmpty("audio_url")+`, `+fillEmpty("subtitle_url")+`, updated_at = ?
         WHERE content_id = ? AND code = ?`,
		nullableString(audioURL), nullableString(subtitleURL), s.timestamp(), contentID, strings.ToUpper(strings.TrimSpace(code)),
	)
	if err != nil {
		return false, fmt.Errorf("set translation media %s: %w", code, err)
	}
	return changed(res)
}
