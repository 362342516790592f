package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// PalestineCode is added to every directory; the FAO country export omits it.
const PalestineCode = 299

// Directory resolves country and item codes to readable names.
// It is used for annotation only; joins always use the numeric codes.
type Directory struct {
	isoByCode map[int]string
	codeByISO map[string]int
	items     map[int]string
}

// NewDirectory creates an empty directory that already knows PSE.
func NewDirectory() *Directory {
	d := &Directory{
		isoByCode: make(map[int]string),
		codeByISO: make(map[string]int),
		items:     make(map[int]string),
	}
	d.AddCountry("PSE", PalestineCode)
	return d
}

// AddCountry registers an ISO3 code. The first code seen for an ISO3 wins.
func (d *Directory) AddCountry(iso string, code int) {
	iso = strings.ToUpper(strings.TrimSpace(iso))
	if iso == "" {
		return
	}
	if _, ok := d.codeByISO[iso]; !ok {
		d.codeByISO[iso] = code
	}
	if _, ok := d.isoByCode[code]; !ok {
		d.isoByCode[code] = iso
	}
}

// AddItem registers an item name. The first name seen for a code wins.
func (d *Directory) AddItem(code int, name string) {
	if _, ok := d.items[code]; ok {
		return
	}
	d.items[code] = strings.TrimSpace(name)
}

// CountryCode returns the numeric code of an ISO3 country.
func (d *Directory) CountryCode(iso string) (int, error) {
	code, ok := d.codeByISO[strings.ToUpper(strings.TrimSpace(iso))]
	if !ok {
		return 0, eris.Errorf("directory: unknown country %q", iso)
	}
	return code, nil
}

// ISO returns the ISO3 code of a country, or "" when unknown.
func (d *Directory) ISO(code int) string {
	return d.isoByCode[code]
}

// ItemName returns the name of an item and whether it is known.
func (d *Directory) ItemName(code int) (string, bool) {
	name, ok := d.items[code]
	return name, ok
}

// HasItems reports whether any item names are registered.
func (d *Directory) HasItems() bool {
	return len(d.items) > 0
}
