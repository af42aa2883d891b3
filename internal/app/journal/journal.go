// Package journal implements the append-only cost journal.
// Every assignment, delay report and finalization the registry commits is
// recorded with its money figure, so finalized costs can be reconciled
// against the journal after the fact.
package journal

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/homesolution/homesolution/internal/domain"
)

// Service writes and reads journal entries.
type Service struct {
	store domain.JournalStore
	now   func() time.Time
}

// NewService creates a journal service over store.
func NewService(store domain.JournalStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Record stamps e with a fresh ref and timestamp and appends it.
func (s *Service) Record(e domain.JournalEntry) error {
	if e.Type == "" {
		return fmt.Errorf("journal entry without type")
	}
	if e.ProjectCode <= 0 {
		return fmt.Errorf("journal entry without project, got %d", e.ProjectCode)
	}
	if e.Ref == "" {
		e.Ref = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	if _, err := s.store.InsertJournalEntry(e); err != nil {
		return fmt.Errorf("insert %s entry: %w", e.Type, err)
	}
	return nil
}

// History returns recent entries for a project, or for all projects when
// projectCode is 0.
func (s *Service) History(projectCode, limit int) ([]domain.JournalEntry, error) {
	return s.store.JournalEntries(projectCode, limit)
}

// FinalizedTotal sums the final costs journaled for a project.
func (s *Service) FinalizedTotal(projectCode int) (float64, error) {
	return s.store.JournalTotal(projectCode, domain.EventTaskFinalized)
}

// Reconcile checks that the journaled final costs of a project add up to
// want, within a cent.
func (s *Service) Reconcile(projectCode int, want float64) error {
	got, err := s.FinalizedTotal(projectCode)
	if err != nil {
		return fmt.Errorf("journal total: %w", err)
	}
	if math.Abs(got-want) > 0.01 {
		return fmt.Errorf("project %d: journal final cost %.2f, registry %.2f", projectCode, got, want)
	}
	return nil
}
