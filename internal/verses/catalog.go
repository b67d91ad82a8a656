package verses

import (
	"bufio"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

//go:embed catalog.txt
var catalogData string

var (
	catalogOnce  sync.Once
	catalogRefs  []Reference
	catalogNames map[string]string
	catalogErr   error
)

// Catalog returns the embedded reference list in file order.
func Catalog() ([]Reference, error) {
	catalogOnce.Do(func() {
		catalogRefs, catalogErr = parseCatalog(catalogData)
		catalogNames = make(map[string]string, len(catalogRefs))
		for _, ref := range catalogRefs {
			catalogNames[ref.Book] = ref.BookName
		}
	})
	if catalogErr != nil {
		return nil, catalogErr
	}
	out := make([]Reference, len(catalogRefs))
	copy(out, catalogRefs)
	return out, nil
}

func bookNames() map[string]string {
	if _, err := Catalog(); err != nil {
		return nil
	}
	return catalogNames
}

// parseCatalog reads "BOOK CHAPTER VERSE Name..." lines; blank lines and
// lines starting with # are ignored. Duplicate keys are an error.
func parseCatalog(data string) ([]Reference, error) {
	var refs []Reference
	seen := make(map[string]int)
	scanner := bufio.NewScanner(strings.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("catalog line %d: want BOOK CHAPTER VERSE NAME", lineNo)
		}
		chapter, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: chapter: %w", lineNo, err)
		}
		verse, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("catalog line %d: verse: %w", lineNo, err)
		}
		ref := Reference{
			Book:     strings.ToUpper(fields[0]),
			BookName: strings.Join(fields[3:], " "),
			Chapter:  chapter,
			Verse:    verse,
		}
		if !ref.Valid() {
			return nil, fmt.Errorf("catalog line %d: invalid reference", lineNo)
		}
		if prev, ok := seen[ref.Key()]; ok {
			return nil, fmt.Errorf("catalog line %d: duplicate of line %d (%s)", lineNo, prev, ref.Key())
		}
		seen[ref.Key()] = lineNo
		refs = append(refs, ref)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return refs, nil
}
