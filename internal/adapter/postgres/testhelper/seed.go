package testhelper

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UniqueSuffix returns a short unique string for generating non-conflicting test data
// in the shared database.
func UniqueSuffix() string {
	return uuid.New().String()[:8]
}

var nextPlaceID atomic.Int64

// SeedLocationPostcode inserts a row into location_postcode and returns its place id.
func SeedLocationPostcode(t *testing.T, pool *pgxpool.Pool, countryCode, postcode string) int64 {
	t.Helper()

	placeID := nextPlaceID.Add(1)
	_, err := pool.Exec(context.Background(),
		`INSERT INTO location_postcode (place_id, country_code, postcode) VALUES ($1, $2, $3)`,
		placeID, countryCode, postcode,
	)
	if err != nil {
		t.Fatalf("SeedLocationPostcode: %v", err)
	}
	return placeID
}

// CountWords returns the number of rows in word with the given type and word column.
func CountWords(t *testing.T, pool *pgxpool.Pool, typ, word string) int {
	t.Helper()

	var n int
	err := pool.QueryRow(context.Background(),
		`SELECT count(*) FROM word WHERE type = $1 AND word = $2`, typ, word,
	).Scan(&n)
	if err != nil {
		t.Fatalf("CountWords: %v", err)
	}
	return n
}
