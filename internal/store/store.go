// Package store provides a thin bbolt wrapper for yojitsu's local record
// store.
//
// The store is the data source of the dashboard: plan and actual records
// are written explicitly by `yojitsu import` and read by the charting
// commands. Each page/kind/set combination holds one record set, replaced
// wholesale on every import. Layout state is never stored here.
//
// Buckets:
//
//	records: record sets keyed by page+kind+set
//	imports: one import summary per record set
//	_meta:   schema version, created_at
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/yojitsu/internal/model"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// DefaultSet is the record set name used when none is given.
const DefaultSet = "default"

// Bucket name constants.
var (
	bucketRecords  = []byte("records")
	bucketImports  = []byte("imports")
	bucketInternal = []byte("_meta")
)

// AllBuckets lists every top-level bucket for stats and clear operations.
var AllBuckets = []string{"records", "imports"}

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

// migrate ensures all buckets exist and schema is current.
func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketImports, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ─── Keys ─────────────────────────────────────────────────────────────────────

// RecordKey builds the canonical key of a record set.
// Format: page:<page>|kind:<kind>|set:<set>. An empty set means DefaultSet.
func RecordKey(page model.Page, kind model.RecordKind, set string) string {
	if set == "" {
		set = DefaultSet
	}
	return "page:" + string(page) + "|kind:" + string(kind) + "|set:" + set
}

// ParseRecordKey splits a key built by RecordKey.
func ParseRecordKey(key string) (model.Page, model.RecordKind, string, error) {
	parts := strings.Split(key, "|")
	if len(parts) != 3 ||
		!strings.HasPrefix(parts[0], "page:") ||
		!strings.HasPrefix(parts[1], "kind:") ||
		!strings.HasPrefix(parts[2], "set:") {
		return "", "", "", fmt.Errorf("malformed record key %q", key)
	}
	return model.Page(strings.TrimPrefix(parts[0], "page:")),
		model.RecordKind(strings.TrimPrefix(parts[1], "kind:")),
		strings.TrimPrefix(parts[2], "set:"), nil
}

// ─── Record sets ──────────────────────────────────────────────────────────────

// storedRecords is the on-disk envelope of one record set.
type storedRecords struct {
	Key        string         `json:"key"`
	ImportedAt time.Time      `json:"imported_at"`
	Records    []model.Record `json:"records"`
}

// ImportInfo summarizes one stored record set.
type ImportInfo struct {
	Key        string           `json:"key"`
	Page       model.Page       `json:"page"`
	Kind       model.RecordKind `json:"kind"`
	Set        string           `json:"set"`
	Source     string           `json:"source"`
	Count      int              `json:"count"`
	Quantity   float64          `json:"quantity"`
	ImportedAt time.Time        `json:"imported_at"`
}

// PutRecords replaces the record set at (page, kind, set) and records an
// import summary naming source.
func (s *Store) PutRecords(page model.Page, kind model.RecordKind, set, source string, recs []model.Record) (ImportInfo, error) {
	key := RecordKey(page, kind, set)
	_, _, setName, _ := ParseRecordKey(key)
	now := time.Now().UTC()

	info := ImportInfo{
		Key: key, Page: page, Kind: kind, Set: setName,
		Source: source, Count: len(recs), ImportedAt: now,
	}
	for _, r := range recs {
		info.Quantity += r.Quantity
	}

	if recs == nil {
		recs = []model.Record{}
	}
	data, err := json.Marshal(storedRecords{Key: key, ImportedAt: now, Records: recs})
	if err != nil {
		return ImportInfo{}, fmt.Errorf("encoding records: %w", err)
	}
	summary, err := json.Marshal(info)
	if err != nil {
		return ImportInfo{}, fmt.Errorf("encoding import info: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketRecords).Put([]byte(key), data); err != nil {
			return err
		}
		return tx.Bucket(bucketImports).Put([]byte(key), summary)
	})
	if err != nil {
		return ImportInfo{}, fmt.Errorf("writing %s: %w", key, err)
	}
	return info, nil
}

// GetRecords retrieves a record set.
// Returns (records, true, nil) if found, (nil, false, nil) if not found.
func (s *Store) GetRecords(page model.Page, kind model.RecordKind, set string) ([]model.Record, bool, error) {
	key := RecordKey(page, kind, set)
	var envelope storedRecords
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRecords).Get([]byte(key))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &envelope)
	})
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	if envelope.Key == "" {
		return nil, false, nil
	}
	return envelope.Records, true, nil
}

// DeleteRecords removes a record set and its import summary.
func (s *Store) DeleteRecords(page model.Page, kind model.RecordKind, set string) error {
	key := []byte(RecordKey(page, kind, set))
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketRecords).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(bucketImports).Delete(key)
	})
}

// ListImports returns the import summaries for page, sorted by key.
// Pass page="" to list every page.
func (s *Store) ListImports(page model.Page) ([]ImportInfo, error) {
	prefix := []byte("page:")
	if page != "" {
		prefix = []byte("page:" + string(page) + "|")
	}
	var out []ImportInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketImports).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var info ImportInfo
			if err := json.Unmarshal(v, &info); err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			out = append(out, info)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, err
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all buckets, in
// AllBuckets order.
func (s *Store) Stats() ([]BucketStats, error) {
	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			var count int
			var size int64
			if err := b.ForEach(func(k, v []byte) error {
				count++
				size += int64(len(k) + len(v))
				return nil
			}); err != nil {
				return err
			}
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: size})
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	bname := []byte(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bname); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		_, err := tx.CreateBucket(bname)
		return err
	})
}

// ClearAll deletes all entries from every user-facing bucket.
func (s *Store) ClearAll() error {
	for _, name := range AllBuckets {
		if err := s.ClearBucket(name); err != nil {
			return err
		}
	}
	return nil
}

// Compact rewrites the database into a fresh file and swaps it in,
// returning the file size before and after. bbolt never shrinks its file
// on delete, so this is the only way to reclaim space after a clear.
func (s *Store) Compact() (before, after int64, err error) {
	path := s.db.Path()
	if fi, err := os.Stat(path); err == nil {
		before = fi.Size()
	}

	tmp := path + ".compact"
	_ = os.Remove(tmp)
	dst, err := bolt.Open(tmp, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("opening %s: %w", tmp, err)
	}
	if err := bolt.Compact(dst, s.db, compactTxSize); err != nil {
		dst.Close()
		os.Remove(tmp)
		return before, 0, fmt.Errorf("compacting: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return before, 0, err
	}
	if err := s.db.Close(); err != nil {
		os.Remove(tmp)
		return before, 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return before, 0, fmt.Errorf("replacing %s: %w", path, err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("reopening db %s: %w", path, err)
	}
	s.db = db
	if fi, err := os.Stat(path); err == nil {
		after = fi.Size()
	}
	return before, after, nil
}

// compactTxSize bounds the bytes copied per transaction during Compact.
const compactTxSize = 64 << 20
