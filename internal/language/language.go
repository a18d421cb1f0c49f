package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

type entry struct {
	code2   string
	code3   string
	alt3    string // bibliographic ISO 639-2 variant, e.g. "fre"
	display string
	words   []string
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
	{"cs", "ces", "cze", "Czech", []string{"czech"}},
	{"hu", "hun", "", "Hungarian", []string{"hungarian"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
	{"el", "ell", "gre", "Greek", []string{"greek"}},
	{"he", "heb", "", "Hebrew", []string{"hebrew"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
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
	return byWord[code]
}

// ToISO2 converts a recognized code or word to ISO 639-1. Unknown two-letter
// codes pass through; anything else unknown returns "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// ToISO3 converts a recognized code to ISO 639-2/T. Unknown three-letter codes
// pass through and everything else becomes "und".
func ToISO3(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if e := lookup(code); e != nil {
		return e.code3
	}
	if len(code) == 3 {
		return code
	}
	return "und"
}

// DisplayName returns the English name for a recognized code, "Unknown" for
// empty input and the upper-cased input otherwise.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// Prefixes returns the container tag values that match an IETF tag such as
// "en-US": the ISO 639-1 base followed by every ISO 639-2 form.
func Prefixes(tag string) []string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}
	base := ""
	if parsed, err := xlanguage.Parse(tag); err == nil {
		b, _ := parsed.Base()
		base = b.String()
	} else {
		base, _, _ = strings.Cut(strings.ToLower(tag), "-")
	}
	if base == "" || base == "und" {
		return nil
	}
	prefixes := []string{base}
	if e := lookup(base); e != nil {
		if e.code2 != base {
			prefixes = append(prefixes, e.code2)
		}
		prefixes = append(prefixes, e.code3)
		if e.alt3 != "" {
			prefixes = append(prefixes, e.alt3)
		}
	}
	return prefixes
}

// Normalize returns the ISO 639-2/T form of a container tag value, or "" when
// the value is empty or undetermined.
func Normalize(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
	if value == "" {
		return ""
	}
	parsed, err := xlanguage.Parse(value)
	if err == nil {
		if parsed == xlanguage.Und {
			return ""
		}
		// Base guesses a language for undetermined tags; only an explicit
		// subtag counts.
		if b, conf := parsed.Base(); conf == xlanguage.Exact {
			value = b.String()
		}
	}
	iso3 := ToISO3(value)
	if iso3 == "und" {
		return ""
	}
	return iso3
}
