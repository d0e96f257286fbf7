// Package extract provides pure pattern extractors for contact and location
// fields in free text. Extractors never mutate input and prefer returning
// nothing over a wrong guess.
package extract

import (
	"regexp"
	"strings"

	"github.com/mountisa-community/directory-cli/internal/config"
	"github.com/mountisa-community/directory-cli/internal/model"
)

// maxAddressLen rejects overlong address matches as false positives.
const maxAddressLen = 200

// Australian landline and short-number patterns: 07 area codes in their
// common spellings, 1300/1800 toll numbers, and 13xx short numbers.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:\+61\s*7|\(07\)|\b07)\s*\d{4}\s*\d{4}`),
	regexp.MustCompile(`\b1[38]00\s*\d{3}\s*\d{3}\b`),
	regexp.MustCompile(`\b13\s*\d{2}\s*\d{2}\b`),
}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// Phone returns the first Australian phone number in text, or "" if none.
func Phone(text string) string {
	for _, re := range phonePatterns {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// Email returns the first email address in text, or "" if none.
func Email(text string) string {
	return emailPattern.FindString(text)
}

// streetTypes is the fixed vocabulary an address match must contain.
const streetTypes = `street|st|road|rd|avenue|ave|drive|dr|place|pl|court|ct|lane|ln|highway|hwy|crescent|cres|terrace|tce`

// Extractor holds locality-anchored patterns. Phone, Email, and Category are
// locality-independent and live at package level.
type Extractor struct {
	address  *regexp.Regexp
	postcode *regexp.Regexp
}

// New compiles the locality-anchored extractors.
func New(loc config.LocalityConfig) *Extractor {
	anchors := make([]string, 0, len(loc.Postcodes)+len(loc.Abbreviations)+1)
	anchors = append(anchors, regexp.QuoteMeta(strings.ToLower(loc.CanonicalName)))
	for _, a := range loc.Abbreviations {
		anchors = append(anchors, regexp.QuoteMeta(strings.ToLower(a)))
	}
	anchors = append(anchors, loc.Postcodes...)
	anchorAlt := strings.Join(anchors, "|")

	// <number> <street-name> <street-type> ... <locality-or-postcode>, with
	// the anchor required inside the same match.
	address := regexp.MustCompile(
		`(?i)\b\d+[a-z]?(?:\s*[-/]\s*\d+[a-z]?)?` + // street number, unit ranges
			`(?:\s+[a-z][a-z']*){1,4}` + // street name words
			`\s+(?:` + streetTypes + `)\b` +
			`[^\n]{0,120}?` +
			`(?:` + anchorAlt + `)` +
			`(?:\s+(?:qld|queensland))?(?:\s+\d{4})?`)

	postcode := regexp.MustCompile(`\b(?:` + strings.Join(loc.Postcodes, "|") + `)\b`)

	return &Extractor{address: address, postcode: postcode}
}

// Address returns the first street address anchored to the locality, or ""
// when no anchored match exists. Matches longer than 200 characters are
// treated as false positives.
func (e *Extractor) Address(text string) string {
	m := e.address.FindString(text)
	if m == "" || len(m) > maxAddressLen {
		return ""
	}
	return strings.TrimSpace(m)
}

// Postcode returns the first valid locality postcode in text, or "".
func (e *Extractor) Postcode(text string) string {
	return e.postcode.FindString(text)
}

// categoryRule maps keywords to a category tag. Order matters: the first
// matching rule wins, so the more specific tags come first.
type categoryRule struct {
	tag      model.CategoryTag
	keywords []string
}

var categoryRules = []categoryRule{
	{model.CategoryMentalHealth, []string{"mental health", "counselling", "therapy", "psychological", "psychiatr", "wellbeing", "grief", "trauma"}},
	{model.CategoryEmergency, []string{"emergency", "crisis", "ambulance", "rescue", "refuge", "domestic violence"}},
	{model.CategoryIndigenous, []string{"aboriginal", "torres strait", "indigenous", "first nations", "kalkadoon"}},
	{model.CategoryYouth, []string{"youth", "young people", "teenager", "pcyc", "school holiday"}},
	{model.CategoryAgedCare, []string{"aged care", "seniors", "elderly", "older people", "retirement", "home care"}},
	{model.CategoryDisability, []string{"disability", "ndis", "accessib", "impairment", "special needs"}},
	{model.CategoryHealth, []string{"health", "medical", "hospital", "clinic", "doctor", "pharmacy", "dental", "physio"}},
	{model.CategoryLegal, []string{"legal", "law", "court", "justice", "solicitor", "advocacy"}},
	{model.CategoryHousing, []string{"housing", "homeless", "accommodation", "tenancy", "shelter"}},
	{model.CategoryEmployment, []string{"employment", "job", "career", "training", "apprentice", "workforce"}},
	{model.CategoryEducation, []string{"education", "school", "tafe", "university", "library", "literacy"}},
}

// Category infers a category tag from free text using the keyword table.
// Deterministic first-match-wins; defaults to community.
func Category(text string) model.CategoryTag {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.tag
			}
		}
	}
	return model.CategoryCommunity
}
