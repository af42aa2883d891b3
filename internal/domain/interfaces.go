package domain

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// JournalStore abstracts the append-only cost journal.
// Implemented by infra/sqlite.DB.
type JournalStore interface {
	// InsertJournalEntry appends an entry and returns its row id.
	InsertJournalEntry(e JournalEntry) (int64, error)

	// JournalEntries returns the newest entries first. A zero project code
	// selects every project.
	JournalEntries(projectCode int, limit int) ([]JournalEntry, error)

	// JournalTotal sums Amount over entries of the given type for a project.
	JournalTotal(projectCode int, typ EventType) (float64, error)
}
