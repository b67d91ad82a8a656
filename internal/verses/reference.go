package verses

import (
	"fmt"
	"strconv"
	"strings"
)

// Reference identifies a single verse.
type Reference struct {
	Book     string // USFM book code
	BookName string
	Chapter  int
	Verse    int
}

// Key returns the stable ledger identity, e.g. "JHN.3.16".
func (r Reference) Key() string {
	return fmt.Sprintf("%s.%d.%d", strings.ToUpper(r.Book), r.Chapter, r.Verse)
}

// String returns the display form, e.g. "John 3:16".
func (r Reference) String() string {
	name := r.BookName
	if name == "" {
		name = strings.ToUpper(r.Book)
	}
	return fmt.Sprintf("%s %d:%d", name, r.Chapter, r.Verse)
}

// Valid reports whether the reference has a book and positive chapter and verse.
func (r Reference) Valid() bool {
	return strings.TrimSpace(r.Book) != "" && r.Chapter > 0 && r.Verse > 0
}

// ParseKey parses a BOOK.CHAPTER.VERSE key. The book name is filled from the
// catalog when the book is known.
func ParseKey(key string) (Reference, error) {
	parts := strings.Split(strings.TrimSpace(key), ".")
	if len(parts) != 3 {
		return Reference{}, fmt.Errorf("parse reference key %q: want BOOK.CHAPTER.VERSE", key)
	}
	chapter, err := strconv.Atoi(parts[1])
	if err != nil {
		return Reference{}, fmt.Errorf("parse reference key %q: chapter: %w", key, err)
	}
	verse, err := strconv.Atoi(parts[2])
	if err != nil {
		return Reference{}, fmt.Errorf("parse reference key %q: verse: %w", key, err)
	}
	ref := Reference{Book: strings.ToUpper(parts[0]), Chapter: chapter, Verse: verse}
	if !ref.Valid() {
		return Reference{}, fmt.Errorf("parse reference key %q: invalid reference", key)
	}
	ref.BookName = bookNames()[ref.Book]
	return ref, nil
}
