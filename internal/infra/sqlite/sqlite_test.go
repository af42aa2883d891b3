package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/homesolution/homesolution/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var _ domain.JournalStore = (*DB)(nil)

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, FileName)); os.IsNotExist(err) {
		t.Errorf("%s should exist", FileName)
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		db, err := Open(dir)
		if err != nil {
			t.Fatalf("Open() #%d error: %v", i, err)
		}
		db.Close()
	}
}

// ─── Metadata ──────────────────────────────────────────────────────────────

func TestMeta(t *testing.T) {
	db := newTestDB(t)

	got, err := db.GetMeta("instance")
	if err != nil {
		t.Fatalf("GetMeta() error: %v", err)
	}
	if got != "" {
		t.Errorf("missing key = %q, want empty", got)
	}

	db.SetMeta("instance", "a")
	db.SetMeta("instance", "b")
	got, _ = db.GetMeta("instance")
	if got != "b" {
		t.Errorf("GetMeta() = %q, want %q", got, "b")
	}
}

// ─── Cost Journal ───────────────────────────────────────────────────────────

func entry(ref string, typ domain.EventType, project int, amount float64) domain.JournalEntry {
	return domain.JournalEntry{
		Ref:         ref,
		Timestamp:   time.Now(),
		Type:        typ,
		ProjectCode: project,
		Task:        "pintura",
		WorkerID:    7,
		Amount:      amount,
		Days:        3,
		Description: "test",
	}
}

func TestInsertJournalEntry(t *testing.T) {
	db := newTestDB(t)

	id, err := db.InsertJournalEntry(entry("r1", domain.EventAssigned, 1, 300))
	if err != nil {
		t.Fatalf("InsertJournalEntry() error: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, want 1", id)
	}

	entries, err := db.JournalEntries(1, 10)
	if err != nil {
		t.Fatalf("JournalEntries() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Ref != "r1" || e.Type != domain.EventAssigned || e.Task != "pintura" || e.WorkerID != 7 {
		t.Errorf("entry = %+v, unexpected", e)
	}
	if e.Amount != 300 || e.Days != 3 {
		t.Errorf("amount/days = %v/%v, want 300/3", e.Amount, e.Days)
	}
}

func TestInsertJournalEntry_DuplicateRef(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.InsertJournalEntry(entry("dup", domain.EventDelay, 1, 0)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := db.InsertJournalEntry(entry("dup", domain.EventDelay, 1, 0)); err == nil {
		t.Error("duplicate ref should fail")
	}
}

func TestJournalEntries_FilterAndOrder(t *testing.T) {
	db := newTestDB(t)
	db.InsertJournalEntry(entry("a", domain.EventAssigned, 1, 100))
	db.InsertJournalEntry(entry("b", domain.EventAssigned, 2, 200))
	db.InsertJournalEntry(entry("c", domain.EventTaskFinalized, 1, 102))

	all, err := db.JournalEntries(0, 10)
	if err != nil {
		t.Fatalf("JournalEntries() error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	if all[0].Ref != "c" {
		t.Errorf("newest first: got %q, want %q", all[0].Ref, "c")
	}

	p1, _ := db.JournalEntries(1, 10)
	if len(p1) != 2 {
		t.Errorf("project 1 entries = %d, want 2", len(p1))
	}

	limited, _ := db.JournalEntries(0, 1)
	if len(limited) != 1 {
		t.Errorf("limited = %d, want 1", len(limited))
	}
}

func TestJournalTotal(t *testing.T) {
	db := newTestDB(t)

	total, err := db.JournalTotal(1, domain.EventTaskFinalized)
	if err != nil {
		t.Fatalf("JournalTotal() error: %v", err)
	}
	if total != 0 {
		t.Errorf("empty total = %v, want 0", total)
	}

	db.InsertJournalEntry(entry("a", domain.EventTaskFinalized, 1, 306))
	db.InsertJournalEntry(entry("b", domain.EventTaskFinalized, 1, 400))
	db.InsertJournalEntry(entry("c", domain.EventAssigned, 1, 999))
	db.InsertJournalEntry(entry("d", domain.EventTaskFinalized, 2, 50))

	total, _ = db.JournalTotal(1, domain.EventTaskFinalized)
	if total != 706 {
		t.Errorf("total = %v, want 706", total)
	}
}
