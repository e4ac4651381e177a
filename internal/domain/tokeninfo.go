package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// IDArray is a list of token ids. It is serialized as a PostgreSQL array
// literal inside a JSON string, e.g. "{1,2,3}", which is the format the
// consuming SQL expects in the token_info column.
type IDArray []int64

// String returns the array literal.
func (a IDArray) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteByte('}')
	return b.String()
}

func (a IDArray) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *IDArray) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ids, err := ParseIDArray(s)
	if err != nil {
		return err
	}
	*a = ids
	return nil
}

// ParseIDArray parses an array literal produced by IDArray.String.
func ParseIDArray(s string) (IDArray, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, fmt.Errorf("malformed id array %q", s)
	}
	body := s[1 : len(s)-1]
	if body == "" {
		return IDArray{}, nil
	}
	parts := strings.Split(body, ",")
	ids := make(IDArray, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed id array %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// TokenInfo is the tokenizer output for a single place. Nil fields are
// omitted from the serialized form.
type TokenInfo struct {
	Names     *IDArray           `json:"names,omitempty"`
	HnrTokens *IDArray           `json:"hnr_tokens,omitempty"`
	Hnr       string             `json:"hnr,omitempty"`
	Street    *IDArray           `json:"street,omitempty"`
	Place     *IDArray           `json:"place,omitempty"`
	Addr      map[string]IDArray `json:"addr,omitempty"`
}

// IsEmpty reports whether no field is populated.
func (t *TokenInfo) IsEmpty() bool {
	return t.Names == nil && t.HnrTokens == nil && t.Hnr == "" &&
		t.Street == nil && t.Place == nil && len(t.Addr) == 0
}

// SetNames stores full tokens followed by partial tokens.
func (t *TokenInfo) SetNames(fulls, partials []int64) {
	names := make(IDArray, 0, len(fulls)+len(partials))
	names = append(names, fulls...)
	names = append(names, partials...)
	t.Names = &names
}

// SetHousenumbers stores housenumber tokens and their normalized spelling.
func (t *TokenInfo) SetHousenumbers(tokens []int64, hnrs []string) {
	ids := IDArray(tokens)
	t.HnrTokens = &ids
	t.Hnr = strings.Join(hnrs, ";")
}

// SetStreet stores the full tokens of addr:street.
func (t *TokenInfo) SetStreet(tokens []int64) {
	ids := IDArray(tokens)
	t.Street = &ids
}

// SetPlace stores the partial tokens of addr:place. Empty lists are ignored.
func (t *TokenInfo) SetPlace(tokens []int64) {
	if len(tokens) == 0 {
		return
	}
	ids := IDArray(tokens)
	t.Place = &ids
}

// AddAddressTerm stores the partial tokens of a generic address term.
// Empty lists are ignored.
func (t *TokenInfo) AddAddressTerm(kind string, tokens []int64) {
	if len(tokens) == 0 {
		return
	}
	if t.Addr == nil {
		t.Addr = make(map[string]IDArray)
	}
	t.Addr[kind] = IDArray(tokens)
}
