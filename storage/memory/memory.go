// Package memory provides an in-memory storage repository for tests and
// short-lived processes.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/heirloom-app/heirloom/storage"
)

// Store implements storage.Repository with an in-memory map.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns an empty in-memory repository.
func NewRepository() *Store {
	return &Store{data: make(map[string][]byte)}
}

func key(recordType, recordID string) string {
	return recordType + ":" + recordID
}

func (s *Store) Put(recordType, recordID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[key(recordType, recordID)] = cp
	return nil
}

func (s *Store) Get(recordType, recordID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key(recordType, recordID)]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", recordType, recordID, storage.ErrNotFound)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *Store) List(recordType string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := recordType + ":"
	var ids []string
	for k := range s.data {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			ids = append(ids, k[len(prefix):])
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Delete(recordType, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(recordType, recordID)
	if _, ok := s.data[k]; !ok {
		return fmt.Errorf("%s/%s: %w", recordType, recordID, storage.ErrNotFound)
	}
	delete(s.data, k)
	return nil
}
