package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const recordColumns = "id, date, mode, language, reference, reference_key, book, chapter, verse, primary_text, camera_script, reflection, meditation_script, visual_prompt, meditation_audio_url, status, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec          Record
		mode         string
		status       string
		reference    sql.NullString
		referenceKey sql.NullString
		book         sql.NullString
		chapter      sql.NullInt64
		verse        sql.NullInt64
		primary      sql.NullString
		camera       sql.NullString
		reflection   sql.NullString
		meditation   sql.NullString
		visual       sql.NullString
		audio        sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.Date,
		&mode,
		&rec.Language,
		&reference,
		&referenceKey,
		&book,
		&chapter,
		&verse,
		&primary,
		&camera,
		&reflection,
		&meditation,
		&visual,
		&audio,
		&status,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	rec.Mode = Mode(mode)
	rec.Status = Status(status)
	rec.Reference = reference.String
	rec.ReferenceKey = referenceKey.String
	rec.Book = book.String
	rec.Chapter = int(chapter.Int64)
	rec.Verse = int(verse.Int64)
	rec.PrimaryText = primary.String
	rec.CameraScript = camera.String
	rec.Reflection = reflection.String
	rec.MeditationScript = meditation.String
	rec.VisualPrompt = visual.String
	rec.MeditationAudioURL = audio.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		rec.UpdatedAt = updated
	}
	return &rec, nil
}

// FindOrCreateRecord returns the record for (date, mode, language), creating
// an empty one when none exists. created reports whether this call inserted it.
func (s *Store) FindOrCreateRecord(ctx context.Context, date string, mode Mode, language string) (*Record, bool, error) {
	ts := s.timestamp()
	res, err := s.execWithRetry(ctx,
		`INSERT OR IGNORE INTO content_records (date, mode, language, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		date, string(mode), language, string(StatusEmpty), ts, ts,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert content record: %w", err)
	}
	created, err := changed(res)
	if err != nil {
		return nil, false, err
	}
	rec, err := s.GetRecord(ctx, date, mode, language)
	if err != nil {
		return nil, false, err
	}
	return rec, created, nil
}

// GetRecord fetches the record for (date, mode, language).
func (s *Store) GetRecord(ctx context.Context, date string, mode Mode, language string) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+recordColumns+` FROM content_records WHERE date = ? AND mode = ? AND language = ?`,
		date, string(mode), language,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s %s", ErrNotFound, date, mode, language)
	}
	if err != nil {
		return nil, fmt.Errorf("get content record: %w", err)
	}
	return rec, nil
}

// GetRecordByID fetches a record by identifier.
func (s *Store) GetRecordByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+recordColumns+` FROM content_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: record %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get content record %d: %w", id, err)
	}
	return rec, nil
}

// SetPrimary stores the selected reference and its primary text. Columns that
// already hold a value keep it. It reports whether any column changed.
func (s *Store) SetPrimary(ctx context.Context, id int64, update PrimaryUpdate) (bool, error) {
	if strings.TrimSpace(update.Text) == "" {
		return false, errors.New("set primary: text is required")
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE content_records SET
            `+fillEmpty("reference")+`,
            `+fillEmpty("reference_key")+`,
            `+fillEmpty("book")+`,
            chapter = COALESCE(chapter, ?),
            verse = COALESCE(verse, ?),
            `+fillEmpty("primary_text")+`,
            updated_at = ?
         WHERE id = ? AND (primary_text IS NULL OR TRIM(primary_text) = '')`,
		nullableString(update.Reference),
		nullableString(update.ReferenceKey),
		nullableString(update.Book),
		nullableInt(update.Chapter),
		nullableInt(update.Verse),
		update.Text,
		s.timestamp(),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("set primary: %w", err)
	}
	return changed(res)
}

// UpdateNarrative applies staged narrative values in one statement. Fields
// that already hold text are left untouched. It reports whether the row changed.
func (s *Store) UpdateNarrative(ctx context.Context, id int64, values map[Field]string) (bool, error) {
	assignments := make([]string, 0, len(values)+1)
	args := make([]any, 0, len(values)+2)
	for _, field := range NarrativeFields() {
		value, ok := values[field]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		assignments = append(assignments, fillEmpty(string(field)))
		args = append(args, value)
	}
	if len(assignments) == 0 {
		return false, nil
	}
	assignments = append(assignments, "updated_at = ?")
	args = append(args, s.timestamp(), id)

	res, err := s.execWithRetry(ctx,
		`UPDATE content_records SET `+strings.Join(assignments, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("update narrative: %w", err)
	}
	return changed(res)
}

// AdvanceStatus moves a record from one status to another only when it is
// currently in from. It reports whether the transition happened.
func (s *Store) AdvanceStatus(ctx context.Context, id int64, from, to Status) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE content_records SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), s.timestamp(), id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("advance status: %w", err)
	}
	return changed(res)
}

// SetMeditationAudio records the meditation track URL when none is stored.
func (s *Store) SetMeditationAudio(ctx context.Context, id int64, url string) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE content_records SET `+fillEmpty("meditation_audio_url")+`, updated_at = ?
         WHERE id = ? AND (meditation_audio_url IS NULL OR TRIM(meditation_audio_url) = '')`,
		url, s.timestamp(), id,
	)
	if err != nil {
		return false, fmt.Errorf("set meditation audio: %w", err)
	}
	return changed(res)
}

// RecentPrimaryTexts returns up to limit primary texts for mode, newest date first.
func (s *Store) RecentPrimaryTexts(ctx context.Context, mode Mode, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT primary_text FROM content_records
         WHERE mode = ? AND primary_text IS NOT NULL AND TRIM(primary_text) != ''
         ORDER BY date DESC LIMIT ?`,
		string(mode), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent primary texts: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan primary text: %w", err)
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}

// ListRecords returns records for mode with dates in [from, to], ascending.
func (s *Store) ListRecords(ctx context.Context, mode Mode, from, to string) ([]Record, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+recordColumns+` FROM content_records
         WHERE mode = ? AND date >= ? AND date <= ?
         ORDER BY date ASC, language ASC`,
		string(mode), from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list content records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func nullableInt(value int) any {
	if value <= 0 {
		return nil
	}
	return value
}
