package domain

import "strings"

// InternalKindPrefix marks name and address kinds reserved for internal use.
// Items with such a kind are never turned into address terms.
const InternalKindPrefix = "_"

// Address item kinds with special handling.
const (
	KindPostcode           = "postcode"
	KindHousenumber        = "housenumber"
	KindStreetnumber       = "streetnumber"
	KindConscriptionnumber = "conscriptionnumber"
	KindStreet             = "street"
	KindPlace              = "place"
	KindCountry            = "country"
	KindFull               = "full"
)

// NameItem is a single sanitized name of a place.
type NameItem struct {
	Name   string `json:"name"`
	Kind   string `json:"kind,omitempty"`
	Suffix string `json:"suffix,omitempty"`
	// Analyzer selects the variant analyzer. Empty means the default one.
	Analyzer string `json:"analyzer,omitempty"`
	// Country is an optional country context of the name.
	Country string `json:"country,omitempty"`
}

// AddressItem is a typed address component of a place.
type AddressItem struct {
	Kind   string `json:"kind"`
	Suffix string `json:"suffix,omitempty"`
	Name   string `json:"name"`
}

// IsHousenumber reports whether the item carries a housenumber of any flavour.
func (a AddressItem) IsHousenumber() bool {
	switch a.Kind {
	case KindHousenumber, KindStreetnumber, KindConscriptionnumber:
		return true
	}
	return false
}

// IsAddressTerm reports whether the item is a generic address term that is
// indexed by its partial words.
func (a AddressItem) IsAddressTerm() bool {
	if a.Suffix != "" || strings.HasPrefix(a.Kind, InternalKindPrefix) {
		return false
	}
	switch a.Kind {
	case KindPostcode, KindStreet, KindPlace, KindCountry, KindFull:
		return false
	}
	return !a.IsHousenumber()
}

// Place is one sanitized place record handed to the tokenizer.
type Place struct {
	ID          int64         `json:"place_id"`
	Names       []NameItem    `json:"names,omitempty"`
	Address     []AddressItem `json:"address,omitempty"`
	CountryCode string        `json:"country_code,omitempty"`
	RankAddress int           `json:"rank_address,omitempty"`
	Class       string        `json:"class,omitempty"`
	Type        string        `json:"type,omitempty"`
}

// IsCountry reports whether the place is the boundary of a country.
func (p *Place) IsCountry() bool {
	return p.RankAddress == 4 &&
		p.Class == "boundary" && p.Type == "administrative" &&
		p.CountryCode != ""
}
