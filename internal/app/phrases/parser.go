// Package phrases reads special phrase lists from tab-separated files.
package phrases

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/heartmarshall/geotokenizer/internal/domain"
)

// Stats counts the rows of a phrase file.
type Stats struct {
	Rows    int
	Skipped int
}

// Load reads the phrase file at path.
func Load(path string) ([]domain.SpecialPhrase, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open phrase file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads rows of phrase, class, type and an optional operator. A
// header row starting with "phrase" and lines starting with '#' are
// ignored. Rows with an empty phrase, class or type are skipped.
func Parse(r io.Reader) ([]domain.SpecialPhrase, Stats, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		phrases []domain.SpecialPhrase
		stats   Stats
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read phrases: %w", err)
		}
		if stats.Rows == 0 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "phrase") {
			continue
		}
		stats.Rows++

		if len(record) < 3 {
			stats.Skipped++
			continue
		}
		p := domain.SpecialPhrase{
			Phrase:   strings.TrimSpace(record[0]),
			Class:    strings.TrimSpace(record[1]),
			Type:     strings.TrimSpace(record[2]),
			Operator: domain.NoOperator,
		}
		if len(record) > 3 {
			p.Operator = domain.NormalizeOperator(strings.ToLower(strings.TrimSpace(record[3])))
		}
		if p.Phrase == "" || p.Class == "" || p.Type == "" {
			stats.Skipped++
			continue
		}
		phrases = append(phrases, p)
	}
	return phrases, stats, nil
}
