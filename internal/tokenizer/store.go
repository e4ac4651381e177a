package tokenizer

import (
	"context"

	"github.com/heartmarshall/geotokenizer/internal/domain"
)

// FullWordRequest asks for the full token of one dispatch key. Variants are
// the ASCII spellings stored as lookup terms; their words become partial
// tokens.
type FullWordRequest struct {
	Key      string
	Variants []string
}

// FullWord is the store answer to a FullWordRequest.
type FullWord struct {
	ID       int64
	Partials []int64
}

// Store is the token store used by one analyzer session. Batch methods must
// return the same ids as the equivalent single-key calls. Get-or-create
// methods must be safe against concurrent sessions creating the same token.
type Store interface {
	// GetOrCreateFullWords returns one entry per request key.
	GetOrCreateFullWords(ctx context.Context, reqs []FullWordRequest) (map[string]FullWord, error)
	// GetOrCreatePartialWords returns one id per word.
	GetOrCreatePartialWords(ctx context.Context, words []string) (map[string]int64, error)
	// GetOrCreateHousenumbers returns one id per normalized housenumber.
	GetOrCreateHousenumbers(ctx context.Context, hnrs []string) (map[string]int64, error)
	// LookupFullTokens returns the existing full token ids of search-folded
	// names. Names without tokens are absent from the result.
	LookupFullTokens(ctx context.Context, tokens []string) (map[string][]int64, error)

	PostcodeExists(ctx context.Context, postcode string) (bool, error)
	// AddPostcode inserts the postcode unless it is already present.
	AddPostcode(ctx context.Context, token, postcode string) error
	// PostcodeDiff compares the postcode tokens with the postcodes of the
	// place data: missing postcodes have no token yet, obsolete tokens no
	// longer have a postcode.
	PostcodeDiff(ctx context.Context) (missing, obsolete []string, err error)
	DeletePostcodes(ctx context.Context, postcodes []string) error

	CountryTokens(ctx context.Context, countryCode string) ([]string, error)
	AddCountryTokens(ctx context.Context, countryCode string, tokens []string) error

	// SpecialPhrases returns all stored phrases with NoOperator for
	// phrases stored without operator.
	SpecialPhrases(ctx context.Context) ([]domain.SpecialPhrase, error)
	AddSpecialPhrases(ctx context.Context, phrases []domain.SpecialPhraseToken) error
	DeleteSpecialPhrases(ctx context.Context, phrases []domain.SpecialPhrase) error

	// WordIDs maps tokens of the given type onto their ids.
	WordIDs(ctx context.Context, typ domain.TokenType, tokens []string) (map[string]int64, error)

	// RunInTx runs fn atomically. Store calls made with the context passed
	// to fn take part in the transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	Close() error
}

// StoreOpener opens a new store session.
type StoreOpener func(ctx context.Context) (Store, error)
