// Package word implements the token store on the PostgreSQL word table.
package word

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/geotokenizer/internal/adapter/postgres"
	"github.com/heartmarshall/geotokenizer/internal/domain"
	"github.com/heartmarshall/geotokenizer/internal/tokenizer"
)

const entity = "word"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Store is one tokenizer session on a single database connection.
type Store struct {
	conn    postgres.Conn
	tx      *postgres.TxManager
	release func()
}

var _ tokenizer.Store = (*Store)(nil)

// New creates a store on conn. release is called once by Close and may be nil.
func New(conn postgres.Conn, release func()) *Store {
	return &Store{conn: conn, tx: postgres.NewTxManager(conn), release: release}
}

// Opener returns a tokenizer.StoreOpener that acquires a pool connection per session.
func Opener(pool *pgxpool.Pool) tokenizer.StoreOpener {
	return func(ctx context.Context) (tokenizer.Store, error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire connection: %w", err)
		}
		return New(conn, conn.Release), nil
	}
}

func (s *Store) q(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromCtx(ctx, s.conn)
}

// RunInTx runs fn in a transaction on the session connection.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.tx.RunInTx(ctx, fn)
}

// Close hands the connection back. Further calls are no-ops.
func (s *Store) Close() error {
	if s.release != nil {
		s.release()
		s.release = nil
	}
	return nil
}

// GetOrCreateFullWords creates the full tokens of all requests in one batch.
// The partial words of all variants are created first in a separate
// statement, in sorted order, so the batch only finds existing partials.
// Requests run in key order so concurrent sessions take the advisory locks
// in the same order.
func (s *Store) GetOrCreateFullWords(ctx context.Context, reqs []tokenizer.FullWordRequest) (map[string]tokenizer.FullWord, error) {
	result := make(map[string]tokenizer.FullWord, len(reqs))
	if len(reqs) == 0 {
		return result, nil
	}

	if parts := variantParts(reqs); len(parts) > 0 {
		if _, err := s.GetOrCreatePartialWords(ctx, parts); err != nil {
			return nil, err
		}
	}

	sorted := make([]tokenizer.FullWordRequest, len(reqs))
	copy(sorted, reqs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	batch := &pgx.Batch{}
	for _, r := range sorted {
		batch.Queue(`SELECT full_token, partial_tokens FROM getorcreate_full_word($1, $2::text[])`, r.Key, r.Variants)
	}

	br := s.q(ctx).SendBatch(ctx, batch)
	defer br.Close()

	for _, r := range sorted {
		var fw tokenizer.FullWord
		if err := br.QueryRow().Scan(&fw.ID, &fw.Partials); err != nil {
			return nil, postgres.MapError(err, entity, fmt.Sprintf("%s %q", domain.TokenTypeFull, r.Key))
		}
		result[r.Key] = fw
	}

	if err := br.Close(); err != nil {
		return nil, postgres.MapError(err, entity, domain.TokenTypeFull.String())
	}
	return result, nil
}

// GetOrCreatePartialWords returns the partial token of each word.
func (s *Store) GetOrCreatePartialWords(ctx context.Context, words []string) (map[string]int64, error) {
	return s.getOrCreate(ctx, `SELECT t, getorcreate_partial_word(t) FROM unnest($1::text[]) AS t`,
		domain.TokenTypePartial, words)
}

// GetOrCreateHousenumbers returns the housenumber token of each normalized housenumber.
func (s *Store) GetOrCreateHousenumbers(ctx context.Context, hnrs []string) (map[string]int64, error) {
	return s.getOrCreate(ctx, `SELECT t, getorcreate_hnr_id(t) FROM unnest($1::text[]) AS t`,
		domain.TokenTypeHousenumber, hnrs)
}

func (s *Store) getOrCreate(ctx context.Context, sql string, typ domain.TokenType, terms []string) (map[string]int64, error) {
	result := make(map[string]int64, len(terms))
	if len(terms) == 0 {
		return result, nil
	}

	sorted := distinctSorted(terms)
	rows, err := s.q(ctx).Query(ctx, sql, sorted)
	if err != nil {
		return nil, postgres.MapError(err, entity, typ.String())
	}
	defer rows.Close()

	for rows.Next() {
		var (
			term string
			id   int64
		)
		if err := rows.Scan(&term, &id); err != nil {
			return nil, postgres.MapError(err, entity, typ.String())
		}
		result[term] = id
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, entity, typ.String())
	}
	return result, nil
}

// LookupFullTokens returns the ids of existing full words with the given search tokens.
func (s *Store) LookupFullTokens(ctx context.Context, tokens []string) (map[string][]int64, error) {
	result := make(map[string][]int64, len(tokens))
	if len(tokens) == 0 {
		return result, nil
	}

	rows, err := s.q(ctx).Query(ctx,
		`SELECT word_token, word_id FROM word
		 WHERE word_token = ANY($1) AND type = 'W'
		 ORDER BY word_token, word_id`,
		distinctSorted(tokens))
	if err != nil {
		return nil, postgres.MapError(err, entity, domain.TokenTypeFull.String())
	}
	defer rows.Close()

	for rows.Next() {
		var (
			token string
			id    int64
		)
		if err := rows.Scan(&token, &id); err != nil {
			return nil, postgres.MapError(err, entity, domain.TokenTypeFull.String())
		}
		ids := result[token]
		if len(ids) == 0 || ids[len(ids)-1] != id {
			result[token] = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, entity, domain.TokenTypeFull.String())
	}
	return result, nil
}

// PostcodeExists reports whether a postcode token exists for postcode.
func (s *Store) PostcodeExists(ctx context.Context, postcode string) (bool, error) {
	var exists bool
	err := s.q(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM word WHERE type = 'P' AND word = $1)`, postcode,
	).Scan(&exists)
	if err != nil {
		return false, postgres.MapError(err, entity, domain.TokenTypePostcode.String())
	}
	return exists, nil
}

// AddPostcode stores a postcode token unless the postcode is already known.
func (s *Store) AddPostcode(ctx context.Context, token, postcode string) error {
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO word (word_token, type, word) VALUES ($1, 'P', $2)
		 ON CONFLICT (word) WHERE type = 'P' DO NOTHING`,
		token, postcode)
	if err != nil {
		return postgres.MapError(err, entity, fmt.Sprintf("%s %q", domain.TokenTypePostcode, postcode))
	}
	return nil
}

// PostcodeDiff compares location_postcode with the postcode tokens.
func (s *Store) PostcodeDiff(ctx context.Context) (missing, obsolete []string, err error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT pc, word FROM (
		     SELECT DISTINCT token_normalized_postcode(postcode) AS pc FROM location_postcode
		 ) p FULL JOIN (
		     SELECT word FROM word WHERE type = 'P'
		 ) w ON pc = word
		 WHERE pc IS NULL OR word IS NULL
		 ORDER BY coalesce(pc, word)`)
	if err != nil {
		return nil, nil, postgres.MapError(err, entity, domain.TokenTypePostcode.String())
	}
	defer rows.Close()

	for rows.Next() {
		var pc, word *string
		if err := rows.Scan(&pc, &word); err != nil {
			return nil, nil, postgres.MapError(err, entity, domain.TokenTypePostcode.String())
		}
		switch {
		case word == nil && pc != nil && *pc != "":
			missing = append(missing, *pc)
		case pc == nil && word != nil:
			obsolete = append(obsolete, *word)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, postgres.MapError(err, entity, domain.TokenTypePostcode.String())
	}
	return missing, obsolete, nil
}

// DeletePostcodes removes the postcode tokens of the given postcodes.
func (s *Store) DeletePostcodes(ctx context.Context, postcodes []string) error {
	if len(postcodes) == 0 {
		return nil
	}
	_, err := s.q(ctx).Exec(ctx, `DELETE FROM word WHERE type = 'P' AND word = ANY($1)`, postcodes)
	if err != nil {
		return postgres.MapError(err, entity, domain.TokenTypePostcode.String())
	}
	return nil
}

// CountryTokens returns the name tokens registered for a country.
func (s *Store) CountryTokens(ctx context.Context, countryCode string) ([]string, error) {
	query, args, err := psql.Select("word_token").
		From("word").
		Where(squirrel.Eq{"type": domain.TokenTypeCountry.String(), "word": countryCode}).
		OrderBy("word_token").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build country query: %w", err)
	}

	rows, err := s.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, entity, fmt.Sprintf("%s %q", domain.TokenTypeCountry, countryCode))
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, postgres.MapError(err, entity, fmt.Sprintf("%s %q", domain.TokenTypeCountry, countryCode))
	}
	return tokens, nil
}

// AddCountryTokens registers name tokens for a country.
func (s *Store) AddCountryTokens(ctx context.Context, countryCode string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	insert := psql.Insert("word").Columns("word_token", "type", "word")
	for _, t := range tokens {
		insert = insert.Values(t, domain.TokenTypeCountry.String(), countryCode)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build country insert: %w", err)
	}

	if _, err := s.q(ctx).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, entity, fmt.Sprintf("%s %q", domain.TokenTypeCountry, countryCode))
	}
	return nil
}

// SpecialPhrases returns all stored special phrases.
func (s *Store) SpecialPhrases(ctx context.Context) ([]domain.SpecialPhrase, error) {
	query, args, err := psql.Select("word", "info->>'class'", "info->>'type'", "info->>'op'").
		From("word").
		Where(squirrel.Eq{"type": domain.TokenTypeSpecial.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build phrase query: %w", err)
	}

	rows, err := s.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, entity, domain.TokenTypeSpecial.String())
	}
	defer rows.Close()

	var phrases []domain.SpecialPhrase
	for rows.Next() {
		var (
			p  domain.SpecialPhrase
			op *string
		)
		if err := rows.Scan(&p.Phrase, &p.Class, &p.Type, &op); err != nil {
			return nil, postgres.MapError(err, entity, domain.TokenTypeSpecial.String())
		}
		p.Operator = domain.NoOperator
		if op != nil {
			p.Operator = domain.NormalizeOperator(*op)
		}
		phrases = append(phrases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, entity, domain.TokenTypeSpecial.String())
	}
	return phrases, nil
}

type phraseInfo struct {
	Class string  `json:"class"`
	Type  string  `json:"type"`
	Op    *string `json:"op"`
}

// AddSpecialPhrases inserts the phrases with their search tokens.
func (s *Store) AddSpecialPhrases(ctx context.Context, phrases []domain.SpecialPhraseToken) error {
	if len(phrases) == 0 {
		return nil
	}

	insert := psql.Insert("word").Columns("word_token", "type", "word", "info")
	for _, p := range phrases {
		info, err := json.Marshal(phraseInfo{Class: p.Class, Type: p.Type, Op: p.StoredOperator()})
		if err != nil {
			return fmt.Errorf("encode phrase info: %w", err)
		}
		insert = insert.Values(p.Token, domain.TokenTypeSpecial.String(), p.Phrase, squirrel.Expr("?::jsonb", string(info)))
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build phrase insert: %w", err)
	}

	if _, err := s.q(ctx).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, entity, domain.TokenTypeSpecial.String())
	}
	return nil
}

// DeleteSpecialPhrases removes the given phrases. A phrase with NoOperator
// matches rows stored without operator.
func (s *Store) DeleteSpecialPhrases(ctx context.Context, phrases []domain.SpecialPhrase) error {
	if len(phrases) == 0 {
		return nil
	}

	match := make(squirrel.Or, 0, len(phrases))
	for _, p := range phrases {
		cond := squirrel.And{
			squirrel.Eq{"word": p.Phrase},
			squirrel.Expr("info->>'class' = ?", p.Class),
			squirrel.Expr("info->>'type' = ?", p.Type),
		}
		if op := p.StoredOperator(); op != nil {
			cond = append(cond, squirrel.Expr("info->>'op' = ?", *op))
		} else {
			cond = append(cond, squirrel.Expr("info->>'op' IS NULL"))
		}
		match = append(match, cond)
	}

	query, args, err := psql.Delete("word").
		Where(squirrel.Eq{"type": domain.TokenTypeSpecial.String()}).
		Where(match).
		ToSql()
	if err != nil {
		return fmt.Errorf("build phrase delete: %w", err)
	}

	if _, err := s.q(ctx).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, entity, domain.TokenTypeSpecial.String())
	}
	return nil
}

// WordIDs maps tokens of one type onto their lowest id.
func (s *Store) WordIDs(ctx context.Context, typ domain.TokenType, tokens []string) (map[string]int64, error) {
	result := make(map[string]int64, len(tokens))
	if len(tokens) == 0 {
		return result, nil
	}

	query, args, err := psql.Select("word_token", "min(word_id)").
		From("word").
		Where(squirrel.Eq{"type": typ.String(), "word_token": distinctSorted(tokens)}).
		Where("word_id IS NOT NULL").
		GroupBy("word_token").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build word id query: %w", err)
	}

	rows, err := s.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, entity, typ.String())
	}
	defer rows.Close()

	for rows.Next() {
		var (
			token string
			id    int64
		)
		if err := rows.Scan(&token, &id); err != nil {
			return nil, postgres.MapError(err, entity, typ.String())
		}
		result[token] = id
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, entity, typ.String())
	}
	return result, nil
}

// variantParts splits the variants the way getorcreate_full_word does.
func variantParts(reqs []tokenizer.FullWordRequest) []string {
	var parts []string
	for _, r := range reqs {
		for _, v := range r.Variants {
			for _, p := range strings.Split(v, " ") {
				if p != "" {
					parts = append(parts, p)
				}
			}
		}
	}
	return parts
}

func distinctSorted(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
