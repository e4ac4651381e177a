// Package pogreb implements the token store on an embedded pogreb key-value
// database for single-process use.
package pogreb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/akrylysov/pogreb"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/heartmarshall/geotokenizer/internal/tokenizer"
)

// Key prefixes. Every token type lives in its own key space.
const (
	seqKey            = "seq"
	prefixFull        = "W:"
	prefixFullToken   = "t:"
	prefixPartial     = "w:"
	prefixHousenumber = "H:"
	prefixPostcode    = "P:"
	prefixCountry     = "C:"
	prefixPhrase      = "S:"
	prefixLocation    = "l:"
)

// DB is an open pogreb database shared by all store sessions. Writes of all
// sessions are serialised by one mutex.
type DB struct {
	db  *pogreb.DB
	log *slog.Logger
	mu  sync.Mutex
}

// Open opens or creates the database at path.
func Open(path string, logger *slog.Logger) (*DB, error) {
	db, err := pogreb.Open(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open pogreb %s: %w", path, err)
	}
	return &DB{db: db, log: logger.With("component", "pogreb", "path", path)}, nil
}

// Close syncs and closes the database.
func (d *DB) Close() error {
	if err := d.db.Sync(); err != nil {
		_ = d.db.Close()
		return fmt.Errorf("sync pogreb: %w", err)
	}
	return d.db.Close()
}

// Session returns a new store session on the database.
func (d *DB) Session() *Store {
	return &Store{db: d}
}

// Opener returns a tokenizer.StoreOpener handing out sessions of d.
func (d *DB) Opener() tokenizer.StoreOpener {
	return func(ctx context.Context) (tokenizer.Store, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return d.Session(), nil
	}
}

// AddLocationPostcodes records postcodes as present in the place data.
// They are compared with the postcode tokens by PostcodeDiff.
func (d *DB) AddLocationPostcodes(ctx context.Context, postcodes []string) error {
	return d.Session().do(ctx, func(tx *txn) error {
		for _, pc := range postcodes {
			if pc == "" {
				continue
			}
			if err := tx.put(prefixLocation+pc, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

type txCtxKey struct{}

// txn buffers the writes of one operation until commit. A nil entry marks a delete.
type txn struct {
	db     *pogreb.DB
	writes map[string][]byte
}

func (t *txn) get(key string) ([]byte, bool, error) {
	if v, ok := t.writes[key]; ok {
		return v, v != nil, nil
	}
	v, err := t.db.Get([]byte(key))
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	if v == nil {
		ok, err := t.db.Has([]byte(key))
		if err != nil {
			return nil, false, fmt.Errorf("has %q: %w", key, err)
		}
		return nil, ok, nil
	}
	return v, true, nil
}

func (t *txn) put(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	t.writes[key] = value
	return nil
}

func (t *txn) delete(key string) {
	t.writes[key] = nil
}

func (t *txn) getValue(key string, v any) (bool, error) {
	raw, ok, err := t.get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := msgpack.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (t *txn) putValue(key string, v any) error {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return t.put(key, raw)
}

// scan calls fn for every live key with the given prefix, buffered writes included.
func (t *txn) scan(prefix string, fn func(key string, value []byte) error) error {
	p := []byte(prefix)
	it := t.db.Items()
	for {
		k, v, err := it.Next()
		if errors.Is(err, pogreb.ErrIterationDone) {
			break
		}
		if err != nil {
			return fmt.Errorf("scan %q: %w", prefix, err)
		}
		if !bytes.HasPrefix(k, p) {
			continue
		}
		if _, ok := t.writes[string(k)]; ok {
			continue
		}
		if err := fn(string(k), v); err != nil {
			return err
		}
	}
	for k, v := range t.writes {
		if v == nil || !bytes.HasPrefix([]byte(k), p) {
			continue
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (t *txn) nextID() (int64, error) {
	var last int64
	if _, err := t.getValue(seqKey, &last); err != nil {
		return 0, err
	}
	last++
	return last, t.putValue(seqKey, last)
}

// kvWriter is the write side of *pogreb.DB.
type kvWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

func (t *txn) commit() error {
	return t.apply(t.db)
}

// apply writes the buffered changes to w. pogreb has no multi-key
// transactions, so a failing write leaves the earlier ones applied. The
// sequence is written first and the rest in key order: ids are never
// handed out twice even after a partial commit.
func (t *txn) apply(w kvWriter) error {
	keys := make([]string, 0, len(t.writes))
	for k := range t.writes {
		if k != seqKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := t.writes[seqKey]; ok {
		keys = append([]string{seqKey}, keys...)
	}

	for _, k := range keys {
		var err error
		if v := t.writes[k]; v == nil {
			err = w.Delete([]byte(k))
		} else {
			err = w.Put([]byte(k), v)
		}
		if err != nil {
			return fmt.Errorf("commit %q: %w", k, err)
		}
	}
	return nil
}
