package domain

// TokenType tags the rows of the token store.
type TokenType string

const (
	TokenTypeFull        TokenType = "W"
	TokenTypePartial     TokenType = "w"
	TokenTypeHousenumber TokenType = "H"
	TokenTypePostcode    TokenType = "P"
	TokenTypeCountry     TokenType = "C"
	TokenTypeSpecial     TokenType = "S"
)

func (t TokenType) String() string { return string(t) }

func (t TokenType) IsValid() bool {
	switch t {
	case TokenTypeFull, TokenTypePartial, TokenTypeHousenumber,
		TokenTypePostcode, TokenTypeCountry, TokenTypeSpecial:
		return true
	}
	return false
}

// WordTokenInfo describes how a single word maps onto the token store.
// ID is nil when no token exists.
type WordTokenInfo struct {
	Word  string `json:"word"`
	Token string `json:"token"`
	ID    *int64 `json:"id"`
}
