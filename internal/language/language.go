package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // ISO 639-2 primary
	alt3    string   // ISO 639-2 bibliographic form
	display string   // English name
	words   []string // accepted word forms
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish", "espanol", "español"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese", "portugues", "português"}},
	{"fr", "fra", "fre", "French", []string{"french", "francais", "français"}},
	{"de", "deu", "ger", "German", []string{"german", "deutsch"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"tl", "tgl", "", "Tagalog", []string{"tagalog", "filipino"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"sw", "swa", "", "Swahili", []string{"swahili"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// parseBase resolves a BCP 47 tag ("es-419", "pt_BR") to its base language.
func parseBase(code string) (xlanguage.Base, bool) {
	tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return xlanguage.Base{}, false
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return xlanguage.Base{}, false
	}
	return base, true
}

// ToISO2 converts a language code, regional tag, or English word to ISO 639-1.
// Unrecognized input yields an empty string.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if base, ok := parseBase(code); ok {
		if iso := base.String(); len(iso) == 2 {
			return iso
		}
	}
	return ""
}

// ToISO3 converts a recognized language to ISO 639-2, or "und".
func ToISO3(code string) string {
	if e := lookup(ToISO2(code)); e != nil {
		return e.code3
	}
	if base, ok := parseBase(code); ok {
		return base.ISO3()
	}
	return "und"
}

// DisplayName returns the English name for a language code, used when
// prompting text generators. Unknown input is returned upper-cased.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	if e := lookup(ToISO2(trimmed)); e != nil {
		return e.display
	}
	if base, ok := parseBase(trimmed); ok {
		if name := display.English.Languages().Name(base); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}

// Equal reports whether two identifiers name the same base language.
func Equal(a, b string) bool {
	isoA, isoB := ToISO2(a), ToISO2(b)
	return isoA != "" && isoA == isoB
}

// NormalizeList maps each entry to ISO 639-1 and drops blanks and duplicates.
// Entries that cannot be mapped are kept lower-cased.
func NormalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.ToLower(strings.TrimSpace(value))
		if trimmed == "" {
			continue
		}
		if mapped := ToISO2(trimmed); mapped != "" {
			trimmed = mapped
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}
