package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLocality() LocalityConfig {
	return LocalityConfig{
		CanonicalName: "Mount Isa",
		Abbreviations: []string{"mt isa"},
		Postcodes:     []string{"4825", "4828"},
		DefaultSuburb: "Mount Isa",
		DefaultState:  "QLD",
	}
}

func TestLocalityValidate_OK(t *testing.T) {
	require.NoError(t, validLocality().Validate())
}

func TestLocalityValidate_MissingName(t *testing.T) {
	l := validLocality()
	l.CanonicalName = "  "
	err := l.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canonical_name")
}

func TestLocalityValidate_NoPostcodes(t *testing.T) {
	l := validLocality()
	l.Postcodes = nil
	require.Error(t, l.Validate())
}

func TestLocalityValidate_BadPostcode(t *testing.T) {
	l := validLocality()
	l.Postcodes = []string{"48a5"}
	err := l.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "48a5")

	l.Postcodes = []string{"482"}
	require.Error(t, l.Validate())
}

func TestLocalityValidate_MissingDefaults(t *testing.T) {
	l := validLocality()
	l.DefaultSuburb = ""
	require.Error(t, l.Validate())

	l = validLocality()
	l.DefaultState = ""
	require.Error(t, l.Validate())
}

func TestPrimaryPostcode(t *testing.T) {
	assert.Equal(t, "4825", validLocality().PrimaryPostcode())
	assert.Equal(t, "", LocalityConfig{}.PrimaryPostcode())
}

func TestValidPostcode(t *testing.T) {
	l := validLocality()
	assert.True(t, l.ValidPostcode("4825"))
	assert.True(t, l.ValidPostcode("4828"))
	assert.False(t, l.ValidPostcode("4000"))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "Mount Isa", cfg.Locality.CanonicalName)
	assert.Equal(t, "4825", cfg.Locality.PrimaryPostcode())
	assert.Equal(t, "QLD", cfg.Locality.DefaultState)
	assert.Equal(t, 8080, cfg.Server.Port)
}
