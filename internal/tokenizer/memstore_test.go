package tokenizer

import (
	"context"
	"sort"
	"strings"

	"github.com/heartmarshall/geotokenizer/internal/domain"
)

// ===========================================================================
// In-memory store (moq-style: func fields override the default behaviour)
// ===========================================================================

type memStore struct {
	GetOrCreateFullWordsFunc    func(ctx context.Context, reqs []FullWordRequest) (map[string]FullWord, error)
	GetOrCreatePartialWordsFunc func(ctx context.Context, words []string) (map[string]int64, error)
	LookupFullTokensFunc        func(ctx context.Context, tokens []string) (map[string][]int64, error)
	AddPostcodeFunc             func(ctx context.Context, token, postcode string) error
	AddSpecialPhrasesFunc       func(ctx context.Context, phrases []domain.SpecialPhraseToken) error

	nextID    int64
	fulls     map[string]FullWord
	fullToken map[string][]int64
	partials  map[string]int64
	hnrs      map[string]int64
	postcodes map[string]string
	countries map[string][]string
	phrases   map[domain.SpecialPhrase]string
	// placePostcodes are the postcodes found in the place data.
	placePostcodes []string

	calls  map[string]int
	inTx   bool
	closed bool
}

func newMemStore() *memStore {
	return &memStore{
		nextID:    100,
		fulls:     make(map[string]FullWord),
		fullToken: make(map[string][]int64),
		partials:  make(map[string]int64),
		hnrs:      make(map[string]int64),
		postcodes: make(map[string]string),
		countries: make(map[string][]string),
		phrases:   make(map[domain.SpecialPhrase]string),
		calls:     make(map[string]int),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) partial(word string) int64 {
	if id, ok := m.partials[word]; ok {
		return id
	}
	id := m.id()
	m.partials[word] = id
	return id
}

func (m *memStore) GetOrCreateFullWords(ctx context.Context, reqs []FullWordRequest) (map[string]FullWord, error) {
	m.calls["GetOrCreateFullWords"]++
	if m.GetOrCreateFullWordsFunc != nil {
		return m.GetOrCreateFullWordsFunc(ctx, reqs)
	}
	out := make(map[string]FullWord, len(reqs))
	for _, r := range reqs {
		w, ok := m.fulls[r.Key]
		if !ok {
			w.ID = m.id()
			for _, v := range r.Variants {
				m.fullToken[v] = append(m.fullToken[v], w.ID)
			}
		}
		w.Partials = nil
		seen := map[int64]bool{}
		for _, v := range r.Variants {
			for _, word := range strings.Fields(v) {
				id := m.partial(word)
				if !seen[id] {
					seen[id] = true
					w.Partials = append(w.Partials, id)
				}
			}
		}
		m.fulls[r.Key] = w
		out[r.Key] = w
	}
	return out, nil
}

func (m *memStore) GetOrCreatePartialWords(ctx context.Context, words []string) (map[string]int64, error) {
	m.calls["GetOrCreatePartialWords"]++
	if m.GetOrCreatePartialWordsFunc != nil {
		return m.GetOrCreatePartialWordsFunc(ctx, words)
	}
	out := make(map[string]int64, len(words))
	for _, w := range words {
		out[w] = m.partial(w)
	}
	return out, nil
}

func (m *memStore) GetOrCreateHousenumbers(_ context.Context, hnrs []string) (map[string]int64, error) {
	m.calls["GetOrCreateHousenumbers"]++
	out := make(map[string]int64, len(hnrs))
	for _, h := range hnrs {
		id, ok := m.hnrs[h]
		if !ok {
			id = m.id()
			m.hnrs[h] = id
		}
		out[h] = id
	}
	return out, nil
}

func (m *memStore) LookupFullTokens(ctx context.Context, tokens []string) (map[string][]int64, error) {
	m.calls["LookupFullTokens"]++
	if m.LookupFullTokensFunc != nil {
		return m.LookupFullTokensFunc(ctx, tokens)
	}
	out := make(map[string][]int64)
	for _, t := range tokens {
		if ids, ok := m.fullToken[t]; ok {
			out[t] = ids
		}
	}
	return out, nil
}

func (m *memStore) PostcodeExists(_ context.Context, postcode string) (bool, error) {
	m.calls["PostcodeExists"]++
	_, ok := m.postcodes[postcode]
	return ok, nil
}

func (m *memStore) AddPostcode(ctx context.Context, token, postcode string) error {
	m.calls["AddPostcode"]++
	if m.AddPostcodeFunc != nil {
		return m.AddPostcodeFunc(ctx, token, postcode)
	}
	if _, ok := m.postcodes[postcode]; !ok {
		m.postcodes[postcode] = token
	}
	return nil
}

func (m *memStore) PostcodeDiff(context.Context) ([]string, []string, error) {
	m.calls["PostcodeDiff"]++
	inPlaces := make(map[string]bool)
	var missing, obsolete []string
	for _, pc := range m.placePostcodes {
		inPlaces[pc] = true
		if _, ok := m.postcodes[pc]; !ok {
			missing = append(missing, pc)
		}
	}
	for pc := range m.postcodes {
		if !inPlaces[pc] {
			obsolete = append(obsolete, pc)
		}
	}
	sort.Strings(missing)
	sort.Strings(obsolete)
	return missing, obsolete, nil
}

func (m *memStore) DeletePostcodes(_ context.Context, postcodes []string) error {
	m.calls["DeletePostcodes"]++
	for _, pc := range postcodes {
		delete(m.postcodes, pc)
	}
	return nil
}

func (m *memStore) CountryTokens(_ context.Context, countryCode string) ([]string, error) {
	m.calls["CountryTokens"]++
	return m.countries[countryCode], nil
}

func (m *memStore) AddCountryTokens(_ context.Context, countryCode string, tokens []string) error {
	m.calls["AddCountryTokens"]++
	m.countries[countryCode] = append(m.countries[countryCode], tokens...)
	return nil
}

func (m *memStore) SpecialPhrases(context.Context) ([]domain.SpecialPhrase, error) {
	m.calls["SpecialPhrases"]++
	out := make([]domain.SpecialPhrase, 0, len(m.phrases))
	for p := range m.phrases {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) AddSpecialPhrases(ctx context.Context, phrases []domain.SpecialPhraseToken) error {
	m.calls["AddSpecialPhrases"]++
	if m.AddSpecialPhrasesFunc != nil {
		return m.AddSpecialPhrasesFunc(ctx, phrases)
	}
	for _, p := range phrases {
		m.phrases[p.SpecialPhrase] = p.Token
	}
	return nil
}

func (m *memStore) DeleteSpecialPhrases(_ context.Context, phrases []domain.SpecialPhrase) error {
	m.calls["DeleteSpecialPhrases"]++
	for _, p := range phrases {
		delete(m.phrases, p)
	}
	return nil
}

func (m *memStore) WordIDs(_ context.Context, typ domain.TokenType, tokens []string) (map[string]int64, error) {
	m.calls["WordIDs"]++
	out := make(map[string]int64)
	for _, t := range tokens {
		switch typ {
		case domain.TokenTypeFull:
			if ids := m.fullToken[t]; len(ids) > 0 {
				out[t] = ids[0]
			}
		case domain.TokenTypePartial:
			if id, ok := m.partials[t]; ok {
				out[t] = id
			}
		}
	}
	return out, nil
}

func (m *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls["RunInTx"]++
	m.inTx = true
	defer func() { m.inTx = false }()
	return fn(ctx)
}

func (m *memStore) Close() error {
	m.closed = true
	return nil
}

// creates sums the calls that may create tokens.
func (m *memStore) creates() int {
	return m.calls["GetOrCreateFullWords"] + m.calls["GetOrCreatePartialWords"] +
		m.calls["GetOrCreateHousenumbers"] + m.calls["AddPostcode"]
}
