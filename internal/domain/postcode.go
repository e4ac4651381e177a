package domain

import "strings"

// NormalizePostcode converts a postcode to its standardized form.
//
// The result must be identical to the SQL function token_normalized_postcode()
// installed with the word table, so only ASCII spaces are trimmed.
func NormalizePostcode(postcode string) string {
	return strings.ToUpper(strings.Trim(postcode, " "))
}

// IsAmbiguousPostcode reports whether the raw value looks like a list of
// postcodes. Such values are tokenized as they are.
func IsAmbiguousPostcode(postcode string) bool {
	return strings.ContainsAny(postcode, ":,;")
}
