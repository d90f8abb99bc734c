package storage

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]Database {
	t.Helper()
	dir := t.TempDir()
	level, err := NewLevelDB(filepath.Join(dir, "level"))
	if err != nil {
		t.Fatalf("open leveldb: %v", err)
	}
	bolt, err := NewBoltDB(filepath.Join(dir, "ledger.bolt"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	dbs := map[string]Database{"mem": NewMemDB(), "leveldb": level, "bolt": bolt}
	t.Cleanup(func() {
		for _, db := range dbs {
			db.Close()
		}
	})
	return dbs
}

func TestDatabaseRoundTrip(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := db.Put([]byte("k"), []byte("v1")); err != nil {
				t.Fatalf("put: %v", err)
			}
			got, err := db.Get([]byte("k"))
			if err != nil || !bytes.Equal(got, []byte("v1")) {
				t.Fatalf("get: %q, %v", got, err)
			}
			// Returned slices are owned by the caller.
			got[0] = 'x'
			again, _ := db.Get([]byte("k"))
			if !bytes.Equal(again, []byte("v1")) {
				t.Fatalf("stored value mutated through returned slice: %q", again)
			}
			if err := db.Delete([]byte("k")); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := db.Get([]byte("k")); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestDatabaseWriteBatch(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := db.Put([]byte("stale"), []byte("old")); err != nil {
				t.Fatalf("put: %v", err)
			}
			batch := NewBatch()
			batch.Put([]byte("a"), []byte("1"))
			batch.Put([]byte("b"), []byte("2"))
			batch.Delete([]byte("stale"))
			if batch.Len() != 3 {
				t.Fatalf("batch length: got %d want 3", batch.Len())
			}
			if err := db.Write(batch); err != nil {
				t.Fatalf("write: %v", err)
			}
			for key, want := range map[string]string{"a": "1", "b": "2"} {
				got, err := db.Get([]byte(key))
				if err != nil || string(got) != want {
					t.Fatalf("get %s: %q, %v", key, got, err)
				}
			}
			if _, err := db.Get([]byte("stale")); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected stale key removed, got %v", err)
			}
			if err := db.Write(NewBatch()); err != nil {
				t.Fatalf("empty batch: %v", err)
			}
		})
	}
}

func TestLevelDBPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level")
	db, err := NewLevelDB(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	db, err = NewLevelDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	got, err := db.Get([]byte("k"))
	if err != nil || string(got) != "v" {
		t.Fatalf("get after reopen: %q, %v", got, err)
	}
}
