// Package store is the schema-versioned SQLite catalog of clips. It owns
// migration from the legacy raw-float (v0) payload to the length-prefixed
// Opus container (v1), and every CRUD operation the rest of the engine
// needs against the catalog.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"oxygen/internal/clip"
	"oxygen/internal/codec"
	"oxygen/internal/oxerr"
)

// Store persists clip metadata and encoded payloads in SQLite.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Option configures Store construction.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger overrides the default (slog.Default) logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open opens (creating if necessary) the SQLite database at path and runs
// any pending migrations.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite database: %w", err)
	}
	// The catalog has a single writer by design (see spec non-goals:
	// "no concurrent write transactions"); one connection keeps that true
	// even under database/sql's pooling.
	db.SetMaxOpenConns(1)

	st := &Store{db: db, log: cfg.logger}
	if err := st.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

// OpenDefault opens the catalog at its platform-appropriate location,
// performing the one-time relocation of a legacy ./oxygen.sqlite file if
// the new location doesn't exist yet.
func OpenDefault(opts ...Option) (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("store: resolve data directory: %w", err)
	}
	if err := relocateLegacyFile(path); err != nil {
		return nil, err
	}
	return Open(path, opts...)
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) userVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("store: read user_version: %w", err)
	}
	return v, nil
}

func (s *Store) setUserVersion(v int) error {
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", v))
	return err
}

// migrate applies schema migrations in order: v<1 creates the table with
// a "samples" blob column; v<2 re-encodes every row from v0 to v1 and
// renames that column to "opus".
func (s *Store) migrate() error {
	v, err := s.userVersion()
	if err != nil {
		return err
	}

	if v < 1 {
		s.log.Info("store: migrating schema", "to", 1)
		if _, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS clips (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				date TEXT NOT NULL,
				sample_rate INTEGER NOT NULL,
				samples BLOB NOT NULL
			)`); err != nil {
			return fmt.Errorf("store: create schema: %w", err)
		}
		v = 1
	}

	if v < 2 {
		s.log.Info("store: migrating schema", "to", 2)
		if err := s.migrateV0ToV1(); err != nil {
			return fmt.Errorf("store: migrate v0 payloads: %w", err)
		}
		if _, err := s.db.Exec(`ALTER TABLE clips RENAME COLUMN samples TO opus`); err != nil {
			return fmt.Errorf("store: rename samples column: %w", err)
		}
		v = 2
	}

	return s.setUserVersion(v)
}

func (s *Store) migrateV0ToV1() error {
	rows, err := s.db.Query(`SELECT id, name, date, sample_rate, samples FROM clips`)
	if err != nil {
		return err
	}
	type legacyRow struct {
		id         int64
		name, date string
		rate       uint32
		payload    []byte
	}
	var legacy []legacyRow
	for rows.Next() {
		var r legacyRow
		if err := rows.Scan(&r.id, &r.name, &r.date, &r.rate, &r.payload); err != nil {
			rows.Close()
			return err
		}
		legacy = append(legacy, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, r := range legacy {
		date, err := time.Parse(time.RFC3339, r.date)
		if err != nil {
			date, err = time.Parse("2006-01-02 15:04:05.999999999 -0700 MST", r.date)
			if err != nil {
				return fmt.Errorf("parse date for clip %d: %w", r.id, err)
			}
		}
		id := r.id
		c := clip.Clip{
			ID:         &id,
			Name:       r.name,
			Date:       date,
			SampleRate: r.rate,
			Samples:    codec.DecodeV0(r.payload),
		}
		rate, opusPayload, err := codec.EncodeV1(c)
		if err != nil {
			return fmt.Errorf("re-encode clip %d (%q): %w", r.id, r.name, err)
		}
		if _, err := s.db.Exec(
			`INSERT OR REPLACE INTO clips (id, name, date, sample_rate, samples) VALUES (?, ?, ?, ?, ?)`,
			r.id, r.name, r.date, rate, opusPayload,
		); err != nil {
			return fmt.Errorf("write re-encoded clip %d: %w", r.id, err)
		}
	}
	return nil
}

// Save encodes c via v1 and inserts or replaces its row, keyed on id.
// If c had no id, one is assigned from the last insert rowid. A duplicate
// name on a clip with no id (or whose id doesn't already own that name)
// is rejected with oxerr.ErrConflict rather than silently replacing the
// other row.
func (s *Store) Save(c *clip.Clip) error {
	existingID, found, err := s.idForName(c.Name)
	if err != nil {
		return err
	}
	if found && (c.ID == nil || *c.ID != existingID) {
		return fmt.Errorf("store: clip named %q already exists: %w", c.Name, oxerr.ErrConflict)
	}

	rate, payload, err := codec.EncodeV1(*c)
	if err != nil {
		return fmt.Errorf("store: encode clip %q: %w", c.Name, err)
	}

	var idArg any
	if c.ID != nil {
		idArg = *c.ID
	}

	res, err := s.db.Exec(
		`INSERT OR REPLACE INTO clips (id, name, date, sample_rate, opus) VALUES (?, ?, ?, ?, ?)`,
		idArg, c.Name, c.Date.UTC().Format(sortableDate), rate, payload,
	)
	if err != nil {
		return fmt.Errorf("store: save clip %q: %w", c.Name, err)
	}

	if c.ID == nil {
		newID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("store: read assigned id: %w", err)
		}
		c.ID = &newID
	}
	return nil
}

// sortableDate is RFC 3339 with a fixed nine-digit fraction, so that the
// text order of stored UTC dates is their time order (RFC3339Nano drops
// trailing zeros, which breaks that within a second). time.RFC3339Nano
// still parses it.
const sortableDate = "2006-01-02T15:04:05.000000000Z07:00"

func (s *Store) idForName(name string) (id int64, found bool, err error) {
	row := s.db.QueryRow(`SELECT id FROM clips WHERE name = ?`, name)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("store: lookup name %q: %w", name, err)
	}
	return id, true, nil
}

// Load fetches the clip named name, or (nil, nil) if no such clip exists.
func (s *Store) Load(name string) (*clip.Clip, error) {
	return s.load(`SELECT id, name, date, sample_rate, opus FROM clips WHERE name = ?`, name)
}

// LoadByID fetches the clip with the given id, or (nil, nil) if absent.
func (s *Store) LoadByID(id int64) (*clip.Clip, error) {
	return s.load(`SELECT id, name, date, sample_rate, opus FROM clips WHERE id = ?`, id)
}

func (s *Store) load(query string, arg any) (*clip.Clip, error) {
	row := s.db.QueryRow(query, arg)

	var id int64
	var name, date string
	var rate uint32
	var payload []byte
	if err := row.Scan(&id, &name, &date, &rate, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: load: %w", err)
	}

	parsedDate, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return nil, fmt.Errorf("store: parse date for clip %d: %w", id, err)
	}
	samples, err := codec.DecodeV1(rate, payload)
	if err != nil {
		return nil, fmt.Errorf("store: decode clip %d (%q): %w", id, name, err)
	}

	return &clip.Clip{
		ID:         &id,
		Name:       name,
		Date:       parsedDate,
		SampleRate: rate,
		Samples:    samples,
	}, nil
}

// List returns clip metadata ordered by date ascending.
func (s *Store) List() ([]clip.Meta, error) {
	rows, err := s.db.Query(`SELECT id, name, date FROM clips ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var metas []clip.Meta
	for rows.Next() {
		var m clip.Meta
		var date string
		if err := rows.Scan(&m.ID, &m.Name, &date); err != nil {
			return nil, fmt.Errorf("store: scan listing row: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, date)
		if err != nil {
			return nil, fmt.Errorf("store: parse date for clip %d: %w", m.ID, err)
		}
		m.Date = parsed
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// Delete removes the clip named name. It is idempotent: deleting an
// absent name is not an error.
func (s *Store) Delete(name string) error {
	_, err := s.db.Exec(`DELETE FROM clips WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", name, err)
	}
	return nil
}

// DeleteByID removes the clip with the given id. Idempotent.
func (s *Store) DeleteByID(id int64) error {
	_, err := s.db.Exec(`DELETE FROM clips WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete id %d: %w", id, err)
	}
	return nil
}

// Rename renames oldName to newName. Returns oxerr.ErrNotFound if no row
// is named oldName, or oxerr.ErrConflict if newName is already taken by
// a different row.
func (s *Store) Rename(oldName, newName string) error {
	targetID, found, err := s.idForName(oldName)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("store: no clip named %q: %w", oldName, oxerr.ErrNotFound)
	}
	return s.renameID(targetID, newName, fmt.Sprintf("named %q", oldName))
}

// RenameByID renames the clip with the given id to newName.
func (s *Store) RenameByID(id int64, newName string) error {
	return s.renameID(id, newName, fmt.Sprintf("with id %d", id))
}

// renameID performs the actual UPDATE once the subject row's id is known,
// rejecting a newName already owned by a *different* row.
func (s *Store) renameID(targetID int64, newName, describeSubject string) error {
	if existingID, found, err := s.idForName(newName); err != nil {
		return err
	} else if found && existingID != targetID {
		return fmt.Errorf("store: name %q already taken: %w", newName, oxerr.ErrConflict)
	}

	res, err := s.db.Exec(`UPDATE clips SET name = ? WHERE id = ?`, newName, targetID)
	if err != nil {
		if isUniqueConstraint(err) {
			return fmt.Errorf("store: name %q already taken: %w", newName, oxerr.ErrConflict)
		}
		return fmt.Errorf("store: rename clip %s: %w", describeSubject, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rename clip %s: %w", describeSubject, err)
	}
	if n == 0 {
		return fmt.Errorf("store: no clip %s: %w", describeSubject, oxerr.ErrNotFound)
	}
	return nil
}

func isUniqueConstraint(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "UNIQUE CONSTRAINT")
}
