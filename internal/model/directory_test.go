package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_PalestineAlwaysPresent(t *testing.T) {
	d := NewDirectory()
	code, err := d.CountryCode("pse")
	require.NoError(t, err)
	assert.Equal(t, PalestineCode, code)
	assert.Equal(t, "PSE", d.ISO(PalestineCode))
}

func TestDirectory_FirstEntryWins(t *testing.T) {
	d := NewDirectory()
	d.AddCountry("GBR", 229)
	d.AddCountry("GBR", 999)
	d.AddItem(15, "Wheat")
	d.AddItem(15, "Wheat and products")

	code, err := d.CountryCode(" gbr ")
	require.NoError(t, err)
	assert.Equal(t, 229, code)

	name, ok := d.ItemName(15)
	assert.True(t, ok)
	assert.Equal(t, "Wheat", name)
	assert.True(t, d.HasItems())
}

func TestDirectory_UnknownCountry(t *testing.T) {
	d := NewDirectory()
	_, err := d.CountryCode("XXX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown country")
	assert.Empty(t, d.ISO(1))
}

func TestDirectory_BlankISOIgnored(t *testing.T) {
	d := NewDirectory()
	d.AddCountry("  ", 5)
	assert.Empty(t, d.ISO(5))
}
