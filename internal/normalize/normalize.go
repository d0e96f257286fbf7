// Package normalize turns raw discovered records into canonical candidates.
package normalize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/mountisa-community/directory-cli/internal/config"
	"github.com/mountisa-community/directory-cli/internal/extract"
	"github.com/mountisa-community/directory-cli/internal/model"
)

const (
	minNameLen        = 3
	maxNameLen        = 150
	maxDescriptionLen = 500
)

// Normalizer produces canonical candidates scoped to one locality.
type Normalizer struct {
	locality  config.LocalityConfig
	extractor *extract.Extractor
}

// New creates a Normalizer for the locality.
func New(loc config.LocalityConfig) *Normalizer {
	return &Normalizer{locality: loc, extractor: extract.New(loc)}
}

// Normalize cleans a raw record into a Candidate. It never fails: an
// unusable record comes back with Name == "" and is dropped by the pipeline
// before resolution. Source metadata (name, URL, method) is carried through.
func (n *Normalizer) Normalize(raw model.RawRecord, sourceName string) model.Candidate {
	c := model.Candidate{
		SourceName:       sourceName,
		SourceURL:        deref(raw.SourceURL),
		ExtractionMethod: deref(raw.Method),
		Suburb:           n.locality.DefaultSuburb,
		State:            n.locality.DefaultState,
		Postcode:         n.locality.PrimaryPostcode(),
	}

	name := collapseSpace(deref(raw.Name))
	if l := utf8.RuneCountInString(name); l < minNameLen || l > maxNameLen {
		return c
	}
	// The bare locality name is navigation noise, not a service.
	if strings.EqualFold(name, n.locality.CanonicalName) {
		return c
	}
	c.Name = name

	// Contact fields are re-validated through the extractors rather than
	// trusted as supplied.
	if p := deref(raw.Phone); p != "" {
		c.Phone = extract.Phone(p)
	}
	if e := deref(raw.Email); e != "" {
		c.Email = extract.Email(e)
	}
	if w := strings.TrimSpace(deref(raw.Website)); strings.HasPrefix(w, "http") {
		c.Website = w
	}

	if a := collapseSpace(deref(raw.Address)); a != "" {
		c.Address = a
	}
	if s := collapseSpace(deref(raw.Suburb)); s != "" {
		c.Suburb = s
	}
	if st := collapseSpace(deref(raw.State)); st != "" {
		c.State = st
	}
	if pc := strings.TrimSpace(deref(raw.Postcode)); n.locality.ValidPostcode(pc) {
		c.Postcode = pc
	}

	if cat := model.CategoryTag(strings.ToLower(strings.TrimSpace(deref(raw.Category)))); cat.Valid() {
		c.Category = cat
	} else {
		c.Category = extract.Category(name + " " + deref(raw.Description))
	}

	desc := collapseSpace(deref(raw.Description))
	if desc == "" {
		desc = fmt.Sprintf("%s service in %s", c.Category, n.locality.CanonicalName)
		c.DescriptionDefaulted = true
	}
	if r := []rune(desc); len(r) > maxDescriptionLen {
		desc = strings.TrimSpace(string(r[:maxDescriptionLen]))
	}
	c.Description = desc

	if raw.Confidence != nil && *raw.Confidence >= 0 && *raw.Confidence <= 1 {
		c.Confidence = *raw.Confidence
	}

	return c
}

// collapseSpace NFC-normalizes text, trims it, and collapses internal
// whitespace runs to single spaces.
func collapseSpace(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
