package model

// CategoryTag classifies a service into one of a fixed but extensible set of
// directory categories.
type CategoryTag string

// Known categories.
const (
	CategoryHealth       CategoryTag = "health"
	CategoryMentalHealth CategoryTag = "mental_health"
	CategoryCommunity    CategoryTag = "community"
	CategoryYouth        CategoryTag = "youth"
	CategoryDisability   CategoryTag = "disability"
	CategoryAgedCare     CategoryTag = "aged_care"
	CategoryIndigenous   CategoryTag = "indigenous"
	CategoryLegal        CategoryTag = "legal"
	CategoryHousing      CategoryTag = "housing"
	CategoryEmployment   CategoryTag = "employment"
	CategoryEducation    CategoryTag = "education"
	CategoryEmergency    CategoryTag = "emergency"
	CategoryGeneral      CategoryTag = "general"
)

var knownCategories = map[CategoryTag]bool{
	CategoryHealth:       true,
	CategoryMentalHealth: true,
	CategoryCommunity:    true,
	CategoryYouth:        true,
	CategoryDisability:   true,
	CategoryAgedCare:     true,
	CategoryIndigenous:   true,
	CategoryLegal:        true,
	CategoryHousing:      true,
	CategoryEmployment:   true,
	CategoryEducation:    true,
	CategoryEmergency:    true,
	CategoryGeneral:      true,
}

// Valid reports whether the tag is one of the known categories.
func (c CategoryTag) Valid() bool {
	return knownCategories[c]
}
