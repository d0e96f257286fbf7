// Package resolve decides whether a candidate duplicates an existing record
// and computes the merged result. This is the one place dedup rules live;
// every ingestion job goes through it.
package resolve

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mountisa-community/directory-cli/internal/model"
)

// Action is the resolver's decision for a candidate.
type Action string

// Actions.
const (
	ActionCreate Action = "create"
	ActionMerge  Action = "merge"
)

// Resolution is the outcome of matching a candidate against the store.
type Resolution struct {
	Action Action
	// Target is the matched record; nil when Action is ActionCreate.
	Target *model.ServiceRecord
	// Merged is the full post-merge record; nil when Action is ActionCreate.
	Merged *model.ServiceRecord
	// Changed lists the fields the merge would alter. Empty on a merge means
	// the candidate carries nothing new and the write can be skipped.
	Changed []string
}

// Resolve matches the candidate against existing active records, in order:
//
//  1. Exact name match (case-insensitive, whitespace-normalized), unless both
//     sides carry different non-empty addresses. Chain organizations with
//     multiple sites must not collapse to one row.
//  2. Contact match: exact phone or email equality when no name match.
//  3. Otherwise create.
//
// Resolve is total: it never fails on malformed input, and an empty existing
// set always yields a create.
func Resolve(c model.Candidate, existing []model.ServiceRecord) Resolution {
	candName := normalizeName(c.Name)

	for i := range existing {
		r := &existing[i]
		if !r.IsActive || normalizeName(r.Name) != candName {
			continue
		}
		// Same name at a different known address stays a distinct record.
		if c.Address != "" && r.Address != "" && c.Address != r.Address {
			continue
		}
		return merge(c, r)
	}

	for i := range existing {
		r := &existing[i]
		if !r.IsActive {
			continue
		}
		phoneHit := c.Phone != "" && c.Phone == r.Phone
		emailHit := c.Email != "" && strings.EqualFold(c.Email, r.Email)
		if !phoneHit && !emailHit {
			continue
		}
		if !sharesNameToken(candName, normalizeName(r.Name)) {
			// Possible over-merge: one reception number shared by two
			// programs under a parent org. Matched per the contact rule,
			// surfaced for operator triage.
			zap.L().Warn("resolve: contact-only match across unrelated names",
				zap.String("candidate", c.Name),
				zap.String("existing", r.Name),
				zap.String("source", c.SourceName),
			)
		}
		return merge(c, r)
	}

	return Resolution{Action: ActionCreate}
}

// mergeableField pairs a provenance key with accessors into a record and the
// candidate, so the merge policy runs identically over every field.
type mergeableField struct {
	key  string
	get  func(*model.ServiceRecord) string
	set  func(*model.ServiceRecord, string)
	cand func(model.Candidate) string
}

var mergeableFields = []mergeableField{
	{model.FieldName,
		func(r *model.ServiceRecord) string { return r.Name },
		func(r *model.ServiceRecord, v string) { r.Name = v },
		func(c model.Candidate) string { return c.Name }},
	{model.FieldDescription,
		func(r *model.ServiceRecord) string { return r.Description },
		func(r *model.ServiceRecord, v string) { r.Description = v },
		func(c model.Candidate) string { return c.Description }},
	{model.FieldPhone,
		func(r *model.ServiceRecord) string { return r.Phone },
		func(r *model.ServiceRecord, v string) { r.Phone = v },
		func(c model.Candidate) string { return c.Phone }},
	{model.FieldEmail,
		func(r *model.ServiceRecord) string { return r.Email },
		func(r *model.ServiceRecord, v string) { r.Email = v },
		func(c model.Candidate) string { return c.Email }},
	{model.FieldWebsite,
		func(r *model.ServiceRecord) string { return r.Website },
		func(r *model.ServiceRecord, v string) { r.Website = v },
		func(c model.Candidate) string { return c.Website }},
	{model.FieldAddress,
		func(r *model.ServiceRecord) string { return r.Address },
		func(r *model.ServiceRecord, v string) { r.Address = v },
		func(c model.Candidate) string { return c.Address }},
	{model.FieldSuburb,
		func(r *model.ServiceRecord) string { return r.Suburb },
		func(r *model.ServiceRecord, v string) { r.Suburb = v },
		func(c model.Candidate) string { return c.Suburb }},
	{model.FieldPostcode,
		func(r *model.ServiceRecord) string { return r.Postcode },
		func(r *model.ServiceRecord, v string) { r.Postcode = v },
		func(c model.Candidate) string { return c.Postcode }},
	{model.FieldCategory,
		func(r *model.ServiceRecord) string { return string(r.Category) },
		func(r *model.ServiceRecord, v string) { r.Category = model.CategoryTag(v) },
		func(c model.Candidate) string { return string(c.Category) }},
}

// merge computes the post-merge record. For each field the existing value is
// kept unless it is empty, synthesized, or the candidate's tier strictly
// outranks the tier recorded for that field. Record identity (id, createdAt,
// dataSource) always belongs to the original record.
func merge(c model.Candidate, target *model.ServiceRecord) Resolution {
	merged := *target
	merged.Provenance = cloneProvenance(target.Provenance)

	var changed []string
	provenanceChanged := false
	for _, f := range mergeableFields {
		candVal := f.cand(c)
		if candVal == "" {
			continue
		}
		// A synthesized description carries no information from the source.
		if f.key == model.FieldDescription && c.DescriptionDefaulted {
			continue
		}
		existingVal := f.get(&merged)
		if existingVal != "" && !merged.Provenance.FieldSynthesized(f.key) &&
			!c.Tier.Above(merged.Provenance.FieldTier(f.key)) {
			continue
		}
		if existingVal != candVal {
			f.set(&merged, candVal)
			changed = append(changed, f.key)
		} else {
			// The candidate confirms the value at a higher tier. The tier
			// upgrade must reach the store or a later lower-tier source
			// could overwrite a confirmed value.
			provenanceChanged = true
		}
		merged.Provenance.SetFieldOrigin(f.key, c.SourceName, c.Tier)
	}
	if provenanceChanged {
		changed = append(changed, "provenance")
	}

	if c.Confidence > merged.ConfidenceScore {
		merged.ConfidenceScore = c.Confidence
		changed = append(changed, "confidence_score")
	}

	return Resolution{
		Action:  ActionMerge,
		Target:  target,
		Merged:  &merged,
		Changed: changed,
	}
}

// normalizeName lowercases and collapses whitespace for name comparison. The
// inconsistent case folding and missing null guards that used to live in each
// ingestion script are all replaced by this one function.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// sharesNameToken reports whether two normalized names have any word in
// common, ignoring short filler words.
func sharesNameToken(a, b string) bool {
	tokens := make(map[string]bool)
	for _, t := range strings.Fields(a) {
		if len(t) > 3 {
			tokens[t] = true
		}
	}
	for _, t := range strings.Fields(b) {
		if tokens[t] {
			return true
		}
	}
	return false
}

func cloneProvenance(p model.Provenance) model.Provenance {
	out := p
	if p.Fields != nil {
		out.Fields = make(map[string]model.FieldOrigin, len(p.Fields))
		for k, v := range p.Fields {
			out.Fields[k] = v
		}
	}
	return out
}
