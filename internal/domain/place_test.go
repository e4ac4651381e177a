package domain

import "testing"

func TestPlace_IsCountry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		place Place
		want  bool
	}{
		{
			name:  "country boundary",
			place: Place{RankAddress: 4, Class: "boundary", Type: "administrative", CountryCode: "de"},
			want:  true,
		},
		{
			name:  "no country code",
			place: Place{RankAddress: 4, Class: "boundary", Type: "administrative"},
			want:  false,
		},
		{
			name:  "state rank",
			place: Place{RankAddress: 8, Class: "boundary", Type: "administrative", CountryCode: "de"},
			want:  false,
		},
		{
			name:  "place node",
			place: Place{RankAddress: 4, Class: "place", Type: "country", CountryCode: "de"},
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.place.IsCountry(); got != tt.want {
				t.Errorf("IsCountry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddressItem_IsAddressTerm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		item AddressItem
		want bool
	}{
		{AddressItem{Kind: "city", Name: "Berlin"}, true},
		{AddressItem{Kind: "suburb", Name: "Mitte"}, true},
		{AddressItem{Kind: "city", Suffix: "de", Name: "Berlin"}, false},
		{AddressItem{Kind: "_internal", Name: "x"}, false},
		{AddressItem{Kind: "_internal", Suffix: "", Name: "x"}, false},
		{AddressItem{Kind: KindPostcode, Name: "12345"}, false},
		{AddressItem{Kind: KindStreet, Name: "Main St"}, false},
		{AddressItem{Kind: KindPlace, Name: "Village"}, false},
		{AddressItem{Kind: KindCountry, Name: "Germany"}, false},
		{AddressItem{Kind: KindFull, Name: "Some full address"}, false},
		{AddressItem{Kind: KindHousenumber, Name: "12"}, false},
		{AddressItem{Kind: KindConscriptionnumber, Name: "1234"}, false},
	}
	for _, tt := range tests {
		if got := tt.item.IsAddressTerm(); got != tt.want {
			t.Errorf("IsAddressTerm(%+v) = %v, want %v", tt.item, got, tt.want)
		}
	}
}
