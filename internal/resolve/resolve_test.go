package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mountisa-community/directory-cli/internal/model"
)

func activeRecord(name string) model.ServiceRecord {
	return model.ServiceRecord{
		ID:        "rec-1",
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestResolve_EmptyStoreCreates(t *testing.T) {
	res := Resolve(model.Candidate{Name: "Gidgee Healing"}, nil)
	assert.Equal(t, ActionCreate, res.Action)
	assert.Nil(t, res.Target)
}

func TestResolve_ExactNameMatch(t *testing.T) {
	existing := []model.ServiceRecord{activeRecord("Gidgee Healing")}

	res := Resolve(model.Candidate{Name: "  gidgee   HEALING "}, existing)
	assert.Equal(t, ActionMerge, res.Action)
	require.NotNil(t, res.Target)
	assert.Equal(t, "rec-1", res.Target.ID)
}

func TestResolve_InactiveRecordsIgnored(t *testing.T) {
	rec := activeRecord("Gidgee Healing")
	rec.IsActive = false

	res := Resolve(model.Candidate{Name: "Gidgee Healing"}, []model.ServiceRecord{rec})
	assert.Equal(t, ActionCreate, res.Action)
}

func TestResolve_SameNameDifferentAddressStaysDistinct(t *testing.T) {
	rec := activeRecord("Mount Isa Neighbourhood Centre")
	rec.Address = "12 Simpson St, Mount Isa QLD 4825"

	res := Resolve(model.Candidate{
		Name:    "Mount Isa Neighbourhood Centre",
		Address: "45 West St, Mount Isa QLD 4825",
	}, []model.ServiceRecord{rec})
	assert.Equal(t, ActionCreate, res.Action)
}

func TestResolve_SameNameSameAddressMatches(t *testing.T) {
	rec := activeRecord("Mount Isa Neighbourhood Centre")
	rec.Address = "12 Simpson St, Mount Isa QLD 4825"

	res := Resolve(model.Candidate{
		Name:    "Mount Isa Neighbourhood Centre",
		Address: "12 Simpson St, Mount Isa QLD 4825",
	}, []model.ServiceRecord{rec})
	assert.Equal(t, ActionMerge, res.Action)
}

func TestResolve_SameNameMissingAddressMatches(t *testing.T) {
	rec := activeRecord("Mount Isa Neighbourhood Centre")
	rec.Address = "12 Simpson St, Mount Isa QLD 4825"

	// Candidate without an address merges into the named record.
	res := Resolve(model.Candidate{Name: "Mount Isa Neighbourhood Centre"}, []model.ServiceRecord{rec})
	assert.Equal(t, ActionMerge, res.Action)
}

func TestResolve_ContactMatchOnPhone(t *testing.T) {
	rec := activeRecord("Gidgee Healing")
	rec.Phone = "0747493100"

	res := Resolve(model.Candidate{Name: "Gidgee Healing Dental Program", Phone: "0747493100"}, []model.ServiceRecord{rec})
	assert.Equal(t, ActionMerge, res.Action)
}

func TestResolve_ContactMatchOnEmail(t *testing.T) {
	rec := activeRecord("Some Org")
	rec.Email = "admin@someorg.org.au"

	res := Resolve(model.Candidate{Name: "A Different Program", Email: "Admin@SomeOrg.org.au"}, []model.ServiceRecord{rec})
	assert.Equal(t, ActionMerge, res.Action)
}

func TestResolve_NoFalseMergeOnEmptyContacts(t *testing.T) {
	// Two candidates with different names, both with no address, phone, or
	// email, must never collapse into one record.
	rec := activeRecord("Service A")

	res := Resolve(model.Candidate{Name: "Service B"}, []model.ServiceRecord{rec})
	assert.Equal(t, ActionCreate, res.Action)
}

func TestMerge_FillsEmptyFields(t *testing.T) {
	rec := activeRecord("Gidgee Healing")
	rec.Provenance.SetFieldOrigin(model.FieldName, "seed", model.TierVeryHigh)

	res := Resolve(model.Candidate{
		Name:       "Gidgee Healing",
		Phone:      "07 4743 1234",
		Tier:       model.TierMedium,
		SourceName: "ask_izzy",
	}, []model.ServiceRecord{rec})

	require.Equal(t, ActionMerge, res.Action)
	assert.Equal(t, "07 4743 1234", res.Merged.Phone)
	assert.Contains(t, res.Changed, model.FieldPhone)
	assert.Equal(t, "ask_izzy", res.Merged.Provenance.Fields[model.FieldPhone].Source)
}

func TestMerge_HigherTierOverwrites(t *testing.T) {
	rec := activeRecord("Gidgee Healing")
	rec.Phone = "07 4743 9999"
	rec.Provenance.SetFieldOrigin(model.FieldPhone, "facebook_groups", model.TierMedium)

	res := Resolve(model.Candidate{
		Name:       "Gidgee Healing",
		Phone:      "0747493100",
		Tier:       model.TierVeryHigh,
		SourceName: "qld_health",
	}, []model.ServiceRecord{rec})

	require.Equal(t, ActionMerge, res.Action)
	assert.Equal(t, "0747493100", res.Merged.Phone)
	assert.Equal(t, model.TierVeryHigh, res.Merged.Provenance.Fields[model.FieldPhone].Tier)
}

func TestMerge_LowerTierDoesNotDowngrade(t *testing.T) {
	rec := activeRecord("Gidgee Healing")
	rec.Phone = "0747493100"
	rec.Provenance.SetFieldOrigin(model.FieldPhone, "qld_health", model.TierVeryHigh)

	res := Resolve(model.Candidate{
		Name:       "Gidgee Healing",
		Phone:      "07 4743 9999",
		Tier:       model.TierMedium,
		SourceName: "facebook_groups",
	}, []model.ServiceRecord{rec})

	require.Equal(t, ActionMerge, res.Action)
	assert.Equal(t, "0747493100", res.Merged.Phone)
	assert.Equal(t, "qld_health", res.Merged.Provenance.Fields[model.FieldPhone].Source)
	assert.NotContains(t, res.Changed, model.FieldPhone)
}

func TestMerge_ConfidenceIsMax(t *testing.T) {
	rec := activeRecord("Gidgee Healing")
	rec.ConfidenceScore = 0.95

	res := Resolve(model.Candidate{Name: "Gidgee Healing", Confidence: 0.75, Tier: model.TierMedium}, []model.ServiceRecord{rec})
	require.Equal(t, ActionMerge, res.Action)
	assert.Equal(t, 0.95, res.Merged.ConfidenceScore)

	rec.ConfidenceScore = 0.60
	res = Resolve(model.Candidate{Name: "Gidgee Healing", Confidence: 0.75, Tier: model.TierMedium}, []model.ServiceRecord{rec})
	require.Equal(t, ActionMerge, res.Action)
	assert.Equal(t, 0.75, res.Merged.ConfidenceScore)
	assert.Contains(t, res.Changed, "confidence_score")
}

func TestMerge_IdenticalCandidateChangesNothing(t *testing.T) {
	rec := activeRecord("Gidgee Healing")
	rec.Description = "health service"
	rec.Phone = "0747493100"
	rec.ConfidenceScore = 0.95
	rec.Suburb = "Mount Isa"
	rec.Postcode = "4825"
	rec.State = "QLD"
	rec.Category = model.CategoryHealth
	for _, f := range []string{
		model.FieldName, model.FieldDescription, model.FieldPhone,
		model.FieldSuburb, model.FieldPostcode, model.FieldCategory,
	} {
		rec.Provenance.SetFieldOrigin(f, "qld_health", model.TierVeryHigh)
	}

	res := Resolve(model.Candidate{
		Name:        "Gidgee Healing",
		Description: "health service",
		Phone:       "0747493100",
		Suburb:      "Mount Isa",
		Postcode:    "4825",
		State:       "QLD",
		Category:    model.CategoryHealth,
		Confidence:  0.95,
		Tier:        model.TierVeryHigh,
		SourceName:  "qld_health",
	}, []model.ServiceRecord{rec})

	require.Equal(t, ActionMerge, res.Action)
	assert.Empty(t, res.Changed)
}

func TestMerge_DefaultedDescriptionNeverOverwrites(t *testing.T) {
	rec := activeRecord("Gidgee Healing")
	rec.Description = "Comprehensive Aboriginal community controlled health service"
	rec.Provenance.SetFieldOrigin(model.FieldDescription, "curated_seed", model.TierMedium)

	// A higher-tier source that supplied no description of its own must not
	// replace real text with the normalizer's placeholder.
	res := Resolve(model.Candidate{
		Name:                 "Gidgee Healing",
		Description:          "health service in Mount Isa",
		DescriptionDefaulted: true,
		Tier:                 model.TierVeryHigh,
		SourceName:           "qld_health",
	}, []model.ServiceRecord{rec})

	require.Equal(t, ActionMerge, res.Action)
	assert.Equal(t, "Comprehensive Aboriginal community controlled health service", res.Merged.Description)
	assert.NotContains(t, res.Changed, model.FieldDescription)
	assert.Equal(t, "curated_seed", res.Merged.Provenance.Fields[model.FieldDescription].Source)
}

func TestMerge_RealDescriptionReplacesSynthesized(t *testing.T) {
	rec := activeRecord("Gidgee Healing")
	rec.Description = "health service in Mount Isa"
	rec.Provenance.SetFieldOrigin(model.FieldDescription, model.OriginSynthesized, model.TierLow)

	// Source-supplied text wins over a placeholder regardless of tier.
	res := Resolve(model.Candidate{
		Name:        "Gidgee Healing",
		Description: "Aboriginal community controlled health service",
		Tier:        model.TierLow,
		SourceName:  "facebook_groups",
	}, []model.ServiceRecord{rec})

	require.Equal(t, ActionMerge, res.Action)
	assert.Equal(t, "Aboriginal community controlled health service", res.Merged.Description)
	assert.Contains(t, res.Changed, model.FieldDescription)
	assert.Equal(t, "facebook_groups", res.Merged.Provenance.Fields[model.FieldDescription].Source)
}

func TestMerge_TierConfirmationPersists(t *testing.T) {
	rec := activeRecord("Gidgee Healing")
	rec.Phone = "0747493100"
	rec.Provenance.SetFieldOrigin(model.FieldName, "facebook_groups", model.TierMedium)
	rec.Provenance.SetFieldOrigin(model.FieldPhone, "facebook_groups", model.TierMedium)

	res := Resolve(model.Candidate{
		Name:       "Gidgee Healing",
		Phone:      "0747493100",
		Tier:       model.TierVeryHigh,
		SourceName: "qld_health",
	}, []model.ServiceRecord{rec})

	// Confirming an existing value at a higher tier is a change: the tier
	// upgrade must be written or a later medium source could overwrite it.
	require.Equal(t, ActionMerge, res.Action)
	assert.Contains(t, res.Changed, "provenance")
	assert.Equal(t, model.TierVeryHigh, res.Merged.Provenance.Fields[model.FieldPhone].Tier)
	assert.Equal(t, "qld_health", res.Merged.Provenance.Fields[model.FieldPhone].Source)

	// Once persisted, re-confirming at the same tier is a no-op.
	again := Resolve(model.Candidate{
		Name:       "Gidgee Healing",
		Phone:      "0747493100",
		Tier:       model.TierVeryHigh,
		SourceName: "qld_health",
	}, []model.ServiceRecord{*res.Merged})
	require.Equal(t, ActionMerge, again.Action)
	assert.Empty(t, again.Changed)
}

func TestMerge_PreservesRecordIdentity(t *testing.T) {
	rec := activeRecord("Gidgee Healing")
	rec.DataSource = "qld_health"

	res := Resolve(model.Candidate{
		Name:       "Gidgee Healing",
		SourceName: "ask_izzy",
		Tier:       model.TierHigh,
	}, []model.ServiceRecord{rec})

	require.Equal(t, ActionMerge, res.Action)
	assert.Equal(t, "rec-1", res.Merged.ID)
	assert.Equal(t, "qld_health", res.Merged.DataSource)
	assert.Equal(t, rec.CreatedAt, res.Merged.CreatedAt)
}

func TestMerge_DoesNotMutateTarget(t *testing.T) {
	rec := activeRecord("Gidgee Healing")

	res := Resolve(model.Candidate{
		Name:       "Gidgee Healing",
		Phone:      "0747493100",
		Tier:       model.TierHigh,
		SourceName: "ask_izzy",
	}, []model.ServiceRecord{rec})

	require.Equal(t, ActionMerge, res.Action)
	assert.Empty(t, res.Target.Phone)
	assert.Equal(t, "0747493100", res.Merged.Phone)
}

func TestSharesNameToken(t *testing.T) {
	assert.True(t, sharesNameToken("gidgee healing", "gidgee healing dental"))
	assert.False(t, sharesNameToken("youth hub", "legal advice centre"))
	// Short filler words do not count as shared identity.
	assert.False(t, sharesNameToken("the hub", "the centre"))
}
