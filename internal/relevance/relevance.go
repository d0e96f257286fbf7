// Package relevance decides whether a candidate pertains to the target
// locality. Plain substring matching only: false negatives are preferred
// over false positives, since an incorrectly admitted service pollutes the
// directory while a missed one can be re-discovered by another source.
package relevance

import (
	"strings"

	"github.com/mountisa-community/directory-cli/internal/config"
	"github.com/mountisa-community/directory-cli/internal/model"
)

// Filter tests candidates against one locality's keyword set.
type Filter struct {
	substrings []string
	postcodes  []string
}

// New builds a Filter from the locality's canonical name, abbreviations,
// regional descriptors, and postcodes.
func New(loc config.LocalityConfig) *Filter {
	f := &Filter{}
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			f.substrings = append(f.substrings, s)
		}
	}
	add(loc.CanonicalName)
	for _, a := range loc.Abbreviations {
		add(a)
	}
	for _, k := range loc.RegionKeywords {
		add(k)
	}
	f.postcodes = loc.Postcodes
	return f
}

// IsRelevant reports whether the candidate's name, description, or address
// mentions the locality. Postcodes match as whole words so digits inside a
// phone number never count.
func (f *Filter) IsRelevant(c model.Candidate) bool {
	text := strings.ToLower(c.Name + " " + c.Description + " " + c.Address)

	for _, kw := range f.substrings {
		if strings.Contains(text, kw) {
			return true
		}
	}
	for _, pc := range f.postcodes {
		if containsWord(text, pc) {
			return true
		}
	}
	return false
}

// containsWord checks if text contains needle bounded by non-alphanumeric
// characters or string boundaries. Both arguments should be lowercased.
func containsWord(text, needle string) bool {
	if needle == "" || text == "" {
		return false
	}
	start := 0
	for {
		idx := strings.Index(text[start:], needle)
		if idx < 0 {
			return false
		}
		absIdx := start + idx
		endIdx := absIdx + len(needle)

		leftOK := absIdx == 0 || !isAlphaNum(text[absIdx-1])
		rightOK := endIdx == len(text) || !isAlphaNum(text[endIdx])

		if leftOK && rightOK {
			return true
		}
		start = absIdx + 1
	}
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
