package store

import (
	"sort"
	"sync"

	"github.com/examsafe/examsafe/internal/app/models"
)

// RecordStore is the in-memory cache of exam records loaded from the ledger.
// It is rebuilt on demand; the ledger stays the single source of truth. The
// whole snapshot is replaced atomically so readers never observe a half-loaded
// record set.
type RecordStore struct {
	mu      sync.RWMutex
	records []*models.ExamRecord
	byID    map[string]*models.ExamRecord
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		byID: make(map[string]*models.ExamRecord),
	}
}

// ReplaceAll swaps the full record snapshot. Records are kept in ledger
// submission order: creation timestamp, then id as a tie-breaker.
func (s *RecordStore) ReplaceAll(records []*models.ExamRecord) {
	sorted := make([]*models.ExamRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt != sorted[j].CreatedAt {
			return sorted[i].CreatedAt < sorted[j].CreatedAt
		}
		return sorted[i].ID < sorted[j].ID
	})

	byID := make(map[string]*models.ExamRecord, len(sorted))
	for _, r := range sorted {
		byID[r.ID] = r
	}

	s.mu.Lock()
	s.records = sorted
	s.byID = byID
	s.mu.Unlock()
}

// List returns a copy of the current snapshot.
func (s *RecordStore) List() []*models.ExamRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ExamRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record with the given id, if loaded.
func (s *RecordStore) Get(id string) (*models.ExamRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	return r, ok
}

// Len returns the number of loaded records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
