// Package store provides a thin bbolt wrapper for roomnl-stats' local data
// store.
//
// Design philosophy: the store is an intentional data accumulator, not a
// transparent HTTP cache. Listings are written explicitly via fetch commands
// and read by analysis commands. No TTL, no auto-invalidation — you own your
// data. Repeated fetches of the same listing overwrite the same key, so the
// listings bucket stays deduplicated across scrapes.
//
// Buckets:
//
//	listings   — accumulated rental listings keyed by row identity
//	trends     — saved month-multiplier profiles keyed by name
//	snapshots  — saved command lines for reproducible workflows
//	_meta      — internal: schema version, created_at
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
	"github.com/KaiErikNiermann/roomnl-stats/internal/util"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketListings  = []byte("listings")
	bucketTrends    = []byte("trends")
	bucketSnapshots = []byte("snapshots")
	bucketInternal  = []byte("_meta")
)

// AllBuckets lists every top-level bucket for stats and clear operations.
var AllBuckets = []string{"listings", "trends", "snapshots"}

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
		// Create all buckets if they don't exist.
		for _, name := range [][]byte{bucketListings, bucketTrends, bucketSnapshots, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		// Write schema version if not set.
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

// ─── Listings ─────────────────────────────────────────────────────────────────

// ListingKey builds the canonical key for a listing. The key covers every
// field, so two rows collide only when the site served the same row twice.
func ListingKey(l model.Listing) string {
	return strings.Join([]string{
		util.FormatDate(l.ContractDate),
		l.City,
		l.TypeOfRoom,
		l.Street,
		l.StreetNumber,
		fmt.Sprintf("%d", l.NumReactions),
		fmt.Sprintf("%t", l.Priority),
		fmt.Sprintf("%d", l.RegistrationTime),
	}, "|")
}

// PutListings stores a batch of listings in a single transaction, keyed by
// row identity. Returns the number of keys that were new.
func (s *Store) PutListings(listings []model.Listing) (added int, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketListings)
		for _, l := range listings {
			key := []byte(ListingKey(l))
			if b.Get(key) == nil {
				added++
			}
			data, err := json.Marshal(l)
			if err != nil {
				return fmt.Errorf("encoding listing: %w", err)
			}
			if err := b.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
	return added, err
}

// ListListings returns all stored listings in key order (contract date first,
// so roughly chronological).
func (s *Store) ListListings() ([]model.Listing, error) {
	var listings []model.Listing
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketListings).ForEach(func(k, v []byte) error {
			var l model.Listing
			if err := json.Unmarshal(v, &l); err != nil {
				return err
			}
			listings = append(listings, l)
			return nil
		})
	})
	return listings, err
}

// ─── Trend Profiles ───────────────────────────────────────────────────────────

// storedTrend is the on-disk envelope for a saved month-multiplier profile.
type storedTrend struct {
	Name    string                  `json:"name"`
	SavedAt time.Time               `json:"saved_at"`
	Months  []model.MonthMultiplier `json:"months"`
}

// PutTrend saves a month-multiplier profile under name, stamping SavedAt.
func (s *Store) PutTrend(name string, months []model.MonthMultiplier) error {
	b, err := json.Marshal(storedTrend{Name: name, SavedAt: time.Now().UTC(), Months: months})
	if err != nil {
		return fmt.Errorf("encoding trend profile: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTrends).Put([]byte(name), b)
	})
}

// GetTrend retrieves a saved profile by name.
// Returns (months, true, nil) if found, (nil, false, nil) if not found.
func (s *Store) GetTrend(name string) ([]model.MonthMultiplier, bool, error) {
	var envelope storedTrend
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketTrends).Get([]byte(name))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &envelope)
	})
	if err != nil {
		return nil, false, err
	}
	if envelope.Name == "" {
		return nil, false, nil
	}
	return envelope.Months, true, nil
}

// ListTrendNames returns the names of all saved profiles in key order.
func (s *Store) ListTrendNames() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTrends).ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// ─── Snapshots ────────────────────────────────────────────────────────────────

// Snapshot represents a saved command for reproducible workflows.
type Snapshot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CommandLine string    `json:"command_line"`
	CreatedAt   time.Time `json:"created_at"`
}

// PutSnapshot saves a snapshot. The key is snap:<ID>.
func (s *Store) PutSnapshot(snap Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte("snap:"+snap.ID), b)
	})
}

// GetSnapshot retrieves a snapshot by ID.
func (s *Store) GetSnapshot(id string) (Snapshot, bool, error) {
	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSnapshots).Get([]byte("snap:" + id))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &snap)
	})
	if err != nil {
		return snap, false, err
	}
	return snap, snap.ID != "", nil
}

// ListSnapshots returns all snapshots in creation order.
func (s *Store) ListSnapshots() ([]Snapshot, error) {
	var snaps []Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).ForEach(func(k, v []byte) error {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return err
			}
			snaps = append(snaps, snap)
			return nil
		})
	})
	return snaps, err
}

// DeleteSnapshot removes a snapshot by ID.
func (s *Store) DeleteSnapshot(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Delete([]byte("snap:" + id))
	})
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all buckets.
func (s *Store) Stats() ([]BucketStats, error) {
	buckets := map[string][]byte{
		"listings":  bucketListings,
		"trends":    bucketTrends,
		"snapshots": bucketSnapshots,
	}

	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for name, bname := range buckets {
			b := tx.Bucket(bname)
			if b == nil {
				continue
			}
			var count int
			var bytes int64
			b.ForEach(func(k, v []byte) error {
				count++
				bytes += int64(len(k) + len(v))
				return nil
			})
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: bytes})
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
