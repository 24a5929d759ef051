package storage

import (
	"errors"
	"sort"
	"sync"

	"payment-reconciler/internal/models"
)

var ErrRecordNotFound = errors.New("reconciliation record not found")

type InMemoryStore struct {
	records map[string]*models.ReconciliationRecord
	mutex   sync.RWMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*models.ReconciliationRecord),
	}
}

func (s *InMemoryStore) SaveRecord(record *models.ReconciliationRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records[record.RecordID] = record
	return nil
}

func (s *InMemoryStore) GetRecord(recordID string) (*models.ReconciliationRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, exists := s.records[recordID]
	if !exists {
		return nil, ErrRecordNotFound
	}

	return record, nil
}

func (s *InMemoryStore) ListRecordsByResource(resourceID string, limit, offset int) ([]*models.ReconciliationRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var matched []*models.ReconciliationRecord
	for _, record := range s.records {
		if record.ResourceID == resourceID {
			matched = append(matched, record)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}
