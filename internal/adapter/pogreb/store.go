package pogreb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/heartmarshall/geotokenizer/internal/domain"
	"github.com/heartmarshall/geotokenizer/internal/tokenizer"
)

type fullRecord struct {
	ID       int64    `msgpack:"id"`
	Variants []string `msgpack:"variants"`
}

type phraseRecord struct {
	Token string `msgpack:"token"`
}

// Store is one tokenizer session on a DB.
type Store struct {
	db     *DB
	closed bool
}

var _ tokenizer.Store = (*Store)(nil)

// do runs fn atomically: inside RunInTx it joins the running transaction,
// otherwise it takes the database lock for its own.
func (s *Store) do(ctx context.Context, fn func(tx *txn) error) error {
	if s.closed {
		return domain.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx, ok := ctx.Value(txCtxKey{}).(*txn); ok {
		return fn(tx)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	tx := &txn{db: s.db.db, writes: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

// RunInTx holds the database lock while fn runs. Writes become visible to
// other sessions only when fn succeeds.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.do(ctx, func(tx *txn) error {
		return fn(context.WithValue(ctx, txCtxKey{}, tx))
	})
}

// Close ends the session. The database stays open.
func (s *Store) Close() error {
	s.closed = true
	return nil
}

func (s *Store) GetOrCreateFullWords(ctx context.Context, reqs []tokenizer.FullWordRequest) (map[string]tokenizer.FullWord, error) {
	result := make(map[string]tokenizer.FullWord, len(reqs))
	err := s.do(ctx, func(tx *txn) error {
		for _, r := range reqs {
			fw, err := getOrCreateFull(tx, r)
			if err != nil {
				return err
			}
			result[r.Key] = fw
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("word %s: %w", domain.TokenTypeFull, err)
	}
	return result, nil
}

func getOrCreateFull(tx *txn, r tokenizer.FullWordRequest) (tokenizer.FullWord, error) {
	var rec fullRecord
	found, err := tx.getValue(prefixFull+r.Key, &rec)
	if err != nil {
		return tokenizer.FullWord{}, err
	}
	if !found {
		id, err := tx.nextID()
		if err != nil {
			return tokenizer.FullWord{}, err
		}
		rec = fullRecord{ID: id, Variants: r.Variants}
		if err := tx.putValue(prefixFull+r.Key, rec); err != nil {
			return tokenizer.FullWord{}, err
		}
		for _, v := range r.Variants {
			if err := addFullToken(tx, v, id); err != nil {
				return tokenizer.FullWord{}, err
			}
		}
	}

	fw := tokenizer.FullWord{ID: rec.ID, Partials: []int64{}}
	seen := make(map[int64]struct{})
	for _, v := range r.Variants {
		for _, part := range strings.Split(v, " ") {
			part = strings.Trim(part, " ")
			if part == "" {
				continue
			}
			id, err := getOrCreateID(tx, prefixPartial, part)
			if err != nil {
				return tokenizer.FullWord{}, err
			}
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				fw.Partials = append(fw.Partials, id)
			}
		}
	}
	return fw, nil
}

func addFullToken(tx *txn, token string, id int64) error {
	key := prefixFullToken + token
	var ids []int64
	if _, err := tx.getValue(key, &ids); err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return tx.putValue(key, ids)
}

func getOrCreateID(tx *txn, prefix, term string) (int64, error) {
	var id int64
	found, err := tx.getValue(prefix+term, &id)
	if err != nil || found {
		return id, err
	}
	if id, err = tx.nextID(); err != nil {
		return 0, err
	}
	return id, tx.putValue(prefix+term, id)
}

func (s *Store) getOrCreateIDs(ctx context.Context, prefix string, typ domain.TokenType, terms []string) (map[string]int64, error) {
	result := make(map[string]int64, len(terms))
	err := s.do(ctx, func(tx *txn) error {
		for _, t := range terms {
			if _, ok := result[t]; ok {
				continue
			}
			id, err := getOrCreateID(tx, prefix, t)
			if err != nil {
				return err
			}
			result[t] = id
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("word %s: %w", typ, err)
	}
	return result, nil
}

func (s *Store) GetOrCreatePartialWords(ctx context.Context, words []string) (map[string]int64, error) {
	return s.getOrCreateIDs(ctx, prefixPartial, domain.TokenTypePartial, words)
}

func (s *Store) GetOrCreateHousenumbers(ctx context.Context, hnrs []string) (map[string]int64, error) {
	return s.getOrCreateIDs(ctx, prefixHousenumber, domain.TokenTypeHousenumber, hnrs)
}

func (s *Store) LookupFullTokens(ctx context.Context, tokens []string) (map[string][]int64, error) {
	result := make(map[string][]int64, len(tokens))
	err := s.do(ctx, func(tx *txn) error {
		for _, t := range tokens {
			var ids []int64
			found, err := tx.getValue(prefixFullToken+t, &ids)
			if err != nil {
				return err
			}
			if found && len(ids) > 0 {
				result[t] = ids
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("word %s: %w", domain.TokenTypeFull, err)
	}
	return result, nil
}

func (s *Store) PostcodeExists(ctx context.Context, postcode string) (bool, error) {
	var exists bool
	err := s.do(ctx, func(tx *txn) error {
		_, ok, err := tx.get(prefixPostcode + postcode)
		exists = ok
		return err
	})
	if err != nil {
		return false, fmt.Errorf("word %s: %w", domain.TokenTypePostcode, err)
	}
	return exists, nil
}

func (s *Store) AddPostcode(ctx context.Context, token, postcode string) error {
	err := s.do(ctx, func(tx *txn) error {
		_, ok, err := tx.get(prefixPostcode + postcode)
		if err != nil || ok {
			return err
		}
		return tx.put(prefixPostcode+postcode, []byte(token))
	})
	if err != nil {
		return fmt.Errorf("word %s %q: %w", domain.TokenTypePostcode, postcode, err)
	}
	return nil
}

// PostcodeDiff compares the postcodes recorded with AddLocationPostcodes
// with the postcode tokens.
func (s *Store) PostcodeDiff(ctx context.Context) (missing, obsolete []string, err error) {
	err = s.do(ctx, func(tx *txn) error {
		locations := make(map[string]struct{})
		if err := tx.scan(prefixLocation, func(key string, _ []byte) error {
			locations[domain.NormalizePostcode(strings.TrimPrefix(key, prefixLocation))] = struct{}{}
			return nil
		}); err != nil {
			return err
		}

		tokens := make(map[string]struct{})
		if err := tx.scan(prefixPostcode, func(key string, _ []byte) error {
			tokens[strings.TrimPrefix(key, prefixPostcode)] = struct{}{}
			return nil
		}); err != nil {
			return err
		}

		for pc := range locations {
			if _, ok := tokens[pc]; !ok && pc != "" {
				missing = append(missing, pc)
			}
		}
		for pc := range tokens {
			if _, ok := locations[pc]; !ok {
				obsolete = append(obsolete, pc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("word %s: %w", domain.TokenTypePostcode, err)
	}
	sort.Strings(missing)
	sort.Strings(obsolete)
	return missing, obsolete, nil
}

func (s *Store) DeletePostcodes(ctx context.Context, postcodes []string) error {
	return s.do(ctx, func(tx *txn) error {
		for _, pc := range postcodes {
			tx.delete(prefixPostcode + pc)
		}
		return nil
	})
}

func (s *Store) CountryTokens(ctx context.Context, countryCode string) ([]string, error) {
	var tokens []string
	err := s.do(ctx, func(tx *txn) error {
		_, err := tx.getValue(prefixCountry+countryCode, &tokens)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("word %s %q: %w", domain.TokenTypeCountry, countryCode, err)
	}
	return tokens, nil
}

func (s *Store) AddCountryTokens(ctx context.Context, countryCode string, tokens []string) error {
	err := s.do(ctx, func(tx *txn) error {
		var stored []string
		if _, err := tx.getValue(prefixCountry+countryCode, &stored); err != nil {
			return err
		}
		return tx.putValue(prefixCountry+countryCode, append(stored, tokens...))
	})
	if err != nil {
		return fmt.Errorf("word %s %q: %w", domain.TokenTypeCountry, countryCode, err)
	}
	return nil
}

// phraseKey joins the phrase fields with NUL, which normalized text never contains.
func phraseKey(p domain.SpecialPhrase) string {
	return prefixPhrase + strings.Join([]string{p.Phrase, p.Class, p.Type, domain.NormalizeOperator(p.Operator)}, "\x00")
}

func parsePhraseKey(key string) (domain.SpecialPhrase, bool) {
	parts := strings.Split(strings.TrimPrefix(key, prefixPhrase), "\x00")
	if len(parts) != 4 {
		return domain.SpecialPhrase{}, false
	}
	return domain.SpecialPhrase{Phrase: parts[0], Class: parts[1], Type: parts[2], Operator: parts[3]}, true
}

func (s *Store) SpecialPhrases(ctx context.Context) ([]domain.SpecialPhrase, error) {
	var phrases []domain.SpecialPhrase
	err := s.do(ctx, func(tx *txn) error {
		return tx.scan(prefixPhrase, func(key string, _ []byte) error {
			if p, ok := parsePhraseKey(key); ok {
				phrases = append(phrases, p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("word %s: %w", domain.TokenTypeSpecial, err)
	}
	return phrases, nil
}

func (s *Store) AddSpecialPhrases(ctx context.Context, phrases []domain.SpecialPhraseToken) error {
	err := s.do(ctx, func(tx *txn) error {
		for _, p := range phrases {
			if err := tx.putValue(phraseKey(p.SpecialPhrase), phraseRecord{Token: p.Token}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("word %s: %w", domain.TokenTypeSpecial, err)
	}
	return nil
}

func (s *Store) DeleteSpecialPhrases(ctx context.Context, phrases []domain.SpecialPhrase) error {
	return s.do(ctx, func(tx *txn) error {
		for _, p := range phrases {
			tx.delete(phraseKey(p))
		}
		return nil
	})
}

// WordIDs looks tokens up in the key space of typ. Types without a token
// index are scanned.
func (s *Store) WordIDs(ctx context.Context, typ domain.TokenType, tokens []string) (map[string]int64, error) {
	result := make(map[string]int64, len(tokens))
	err := s.do(ctx, func(tx *txn) error {
		switch typ {
		case domain.TokenTypeFull:
			for _, t := range tokens {
				var ids []int64
				found, err := tx.getValue(prefixFullToken+t, &ids)
				if err != nil {
					return err
				}
				if found && len(ids) > 0 {
					result[t] = ids[0]
				}
			}
		case domain.TokenTypePartial, domain.TokenTypeHousenumber:
			prefix := prefixPartial
			if typ == domain.TokenTypeHousenumber {
				prefix = prefixHousenumber
			}
			for _, t := range tokens {
				var id int64
				found, err := tx.getValue(prefix+t, &id)
				if err != nil {
					return err
				}
				if found {
					result[t] = id
				}
			}
		default:
			return fmt.Errorf("%w: no ids for token type %s", domain.ErrValidation, typ)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("word %s: %w", typ, err)
	}
	return result, nil
}
