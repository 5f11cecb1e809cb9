package store

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"oxygen/internal/clip"
	"oxygen/internal/oxerr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.sqlite")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sineSamples(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 48000))
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := newTestStore(t)

	c := clip.Clip{Name: "sine", Date: time.Now().UTC(), SampleRate: 48000, Samples: sineSamples(96000)}
	if err := st.Save(&c); err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.ID == nil {
		t.Fatal("expected id to be assigned")
	}

	loaded, err := st.Load("sine")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected clip, got nil")
	}
	if loaded.Name != "sine" || len(loaded.Samples) != 96000 {
		t.Fatalf("unexpected clip: name=%q len=%d", loaded.Name, len(loaded.Samples))
	}

	metas, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != 1 || metas[0].Name != "sine" {
		t.Fatalf("unexpected listing: %+v", metas)
	}
}

func TestLoadMissingReturnsNilNil(t *testing.T) {
	st := newTestStore(t)
	c, err := st.Load("nope")
	if err != nil || c != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", c, err)
	}
}

func TestSaveDuplicateNameConflicts(t *testing.T) {
	st := newTestStore(t)

	a := clip.Clip{Name: "dup", Date: time.Now().UTC(), SampleRate: 48000, Samples: sineSamples(4800)}
	if err := st.Save(&a); err != nil {
		t.Fatalf("save a: %v", err)
	}

	b := clip.Clip{Name: "dup", Date: time.Now().UTC(), SampleRate: 48000, Samples: sineSamples(4800)}
	err := st.Save(&b)
	if !errors.Is(err, oxerr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestIDImmutableAcrossReloads(t *testing.T) {
	st := newTestStore(t)
	c := clip.Clip{Name: "stable", Date: time.Now().UTC(), SampleRate: 48000, Samples: sineSamples(4800)}
	if err := st.Save(&c); err != nil {
		t.Fatalf("save: %v", err)
	}
	firstID := *c.ID

	c.Name = "stable" // re-save same row
	if err := st.Save(&c); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if *c.ID != firstID {
		t.Fatalf("id changed across resave: %d -> %d", firstID, *c.ID)
	}

	loaded, err := st.Load("stable")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *loaded.ID != firstID {
		t.Fatalf("id changed across reload: %d -> %d", firstID, *loaded.ID)
	}
}

func TestRenameConflict(t *testing.T) {
	st := newTestStore(t)
	a := clip.Clip{Name: "a", Date: time.Now().UTC(), SampleRate: 48000, Samples: sineSamples(4800)}
	b := clip.Clip{Name: "b", Date: time.Now().UTC(), SampleRate: 48000, Samples: sineSamples(4800)}
	if err := st.Save(&a); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := st.Save(&b); err != nil {
		t.Fatalf("save b: %v", err)
	}

	err := st.Rename("a", "b")
	if !errors.Is(err, oxerr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// state unchanged
	if got, _ := st.Load("a"); got == nil {
		t.Fatal("clip a should still exist")
	}
	if got, _ := st.Load("b"); got == nil {
		t.Fatal("clip b should still exist")
	}
}

func TestRenameNotFound(t *testing.T) {
	st := newTestStore(t)
	err := st.Rename("ghost", "whatever")
	if !errors.Is(err, oxerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	if err := st.Delete("never-existed"); err != nil {
		t.Fatalf("delete absent clip should not error: %v", err)
	}
}

// TestMigrationFromV0 constructs a v1-schema (user_version=1, "samples"
// column) database by hand, the way a pre-Opus installation would have
// looked, then opens it through Store and checks the rows survive the
// v0->v1 payload migration with the same names, dates, and sample counts.
func TestMigrationFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.sqlite")

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := raw.Exec(`CREATE TABLE clips (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		date TEXT NOT NULL,
		sample_rate INTEGER NOT NULL,
		samples BLOB NOT NULL
	)`); err != nil {
		t.Fatalf("create legacy schema: %v", err)
	}

	names := []string{"one", "two"}
	dates := []string{
		time.Now().UTC().Add(-time.Hour).Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	}
	sampleCounts := []int{4800, 9600}
	for i, name := range names {
		payload := make([]byte, sampleCounts[i]*4)
		samples := sineSamples(sampleCounts[i])
		for j, s := range samples {
			binary.BigEndian.PutUint32(payload[j*4:j*4+4], math.Float32bits(s))
		}
		if _, err := raw.Exec(
			`INSERT INTO clips (name, date, sample_rate, samples) VALUES (?, ?, ?, ?)`,
			name, dates[i], 48000, payload,
		); err != nil {
			t.Fatalf("insert legacy row %d: %v", i, err)
		}
	}
	if _, err := raw.Exec(`PRAGMA user_version = 1`); err != nil {
		t.Fatalf("set legacy user_version: %v", err)
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	st, err := Open(path)
	if err != nil {
		t.Fatalf("open migrated store: %v", err)
	}
	defer st.Close()

	metas, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != len(names) {
		t.Fatalf("got %d clips, want %d", len(metas), len(names))
	}
	for i, name := range names {
		c, err := st.Load(name)
		if err != nil {
			t.Fatalf("load %q: %v", name, err)
		}
		if c == nil {
			t.Fatalf("clip %q missing after migration", name)
		}
		if len(c.Samples) != sampleCounts[i] {
			t.Fatalf("clip %q: got %d samples, want %d", name, len(c.Samples), sampleCounts[i])
		}
	}
}
