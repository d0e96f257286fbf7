// Package model defines the golden record types for the services directory.
package model

import (
	"time"
)

// ServiceRecord is the canonical persisted entity for a community service.
type ServiceRecord struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`

	// Contact
	Phone   string `json:"phone,omitempty" db:"phone"`
	Email   string `json:"email,omitempty" db:"email"`
	Website string `json:"website,omitempty" db:"website"`

	// Location. Address may be genuinely unknown; the empty string means
	// absent and never participates in dedup matching.
	Address  string `json:"address,omitempty" db:"address"`
	Suburb   string `json:"suburb,omitempty" db:"suburb"`
	Postcode string `json:"postcode,omitempty" db:"postcode"`
	State    string `json:"state,omitempty" db:"state"`

	Category        CategoryTag `json:"category" db:"category"`
	DataSource      string      `json:"data_source" db:"data_source"`
	ConfidenceScore float64     `json:"confidence_score" db:"confidence_score"`
	Provenance      Provenance  `json:"provenance" db:"provenance"`
	IsActive        bool        `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Candidate is an ephemeral, normalized discovery that has not been persisted.
// Same shape as ServiceRecord minus identity and timestamps. An unusable
// candidate is represented with Name == "" and dropped before resolution.
type Candidate struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	// DescriptionDefaulted marks a Description the normalizer synthesized
	// because the source supplied none. A synthesized description never
	// competes with source-supplied text in a merge.
	DescriptionDefaulted bool `json:"description_defaulted,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	Email       string      `json:"email,omitempty"`
	Website     string      `json:"website,omitempty"`
	Address     string      `json:"address,omitempty"`
	Suburb      string      `json:"suburb"`
	Postcode    string      `json:"postcode"`
	State       string      `json:"state"`
	Category    CategoryTag `json:"category"`

	// SourceName identifies the ingestion job for the current run only.
	SourceName       string          `json:"source_name"`
	SourceURL        string          `json:"source_url,omitempty"`
	ExtractionMethod string          `json:"extraction_method,omitempty"`
	Confidence       float64         `json:"confidence"`
	Tier             CredibilityTier `json:"tier"`
}

// RawRecord is a discovered service as produced by a single extraction pass,
// before normalization. Every field is explicitly optional so the normalizer
// handles absence exhaustively instead of coercing empty strings.
type RawRecord struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Email       *string  `json:"email,omitempty"`
	Website     *string  `json:"website,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Suburb      *string  `json:"suburb,omitempty"`
	Postcode    *string  `json:"postcode,omitempty"`
	State       *string  `json:"state,omitempty"`
	Category    *string  `json:"category,omitempty"`
	SourceURL   *string  `json:"source_url,omitempty"`
	Method      *string  `json:"extraction_method,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

// FieldOrigin records which source supplied a field's current value and at
// what credibility tier. The merge engine compares tiers field by field.
type FieldOrigin struct {
	Source string          `json:"source"`
	Tier   CredibilityTier `json:"tier"`
}

// Provenance is the audit trail for a record: where it came from, how it was
// extracted, and the per-field winner sources. Retained for operator triage,
// never shown as primary content.
type Provenance struct {
	SourceName       string                 `json:"source_name"`
	SourceURL        string                 `json:"source_url,omitempty"`
	ExtractionMethod string                 `json:"extraction_method,omitempty"`
	CapturedAt       time.Time              `json:"captured_at"`
	Fields           map[string]FieldOrigin `json:"fields,omitempty"`
}

// OriginSynthesized is the field-origin source recorded for values the
// pipeline fabricated rather than extracted. Any source-supplied value
// replaces a synthesized one.
const OriginSynthesized = "synthesized"

// FieldSynthesized reports whether the field's current value was fabricated
// by the pipeline.
func (p Provenance) FieldSynthesized(field string) bool {
	return p.Fields[field].Source == OriginSynthesized
}

// FieldTier returns the recorded tier for a field, or TierLow when the field
// has no recorded origin (pre-existing data is treated as least trusted).
func (p Provenance) FieldTier(field string) CredibilityTier {
	if o, ok := p.Fields[field]; ok && o.Tier != "" {
		return o.Tier
	}
	return TierLow
}

// SetFieldOrigin records the winning source for a field, allocating the map
// on first use.
func (p *Provenance) SetFieldOrigin(field, source string, tier CredibilityTier) {
	if p.Fields == nil {
		p.Fields = make(map[string]FieldOrigin)
	}
	p.Fields[field] = FieldOrigin{Source: source, Tier: tier}
}

// Provenance field keys shared by the resolver and the stores.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPhone       = "phone"
	FieldEmail       = "email"
	FieldWebsite     = "website"
	FieldAddress     = "address"
	FieldSuburb      = "suburb"
	FieldPostcode    = "postcode"
	FieldCategory    = "category"
)
