package recordstore

import (
	"context"
	"sync"

	"github.com/bigkaa/audioqr/internal/domain/model"
)

// MemoryStore — in-memory хранилище записей.
// Мьютекс защищает только отдельный вызов Load/Save: цикл
// «прочитать, изменить, записать» остаётся неизолированным, как у FileStore.
// Load и Save работают с копиями, внешние изменения не влияют на содержимое.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*model.Record
}

// NewMemoryStore создаёт хранилище с начальным набором записей.
func NewMemoryStore(records ...*model.Record) *MemoryStore {
	return &MemoryStore{records: model.CloneAll(records)}
}

// Load возвращает копию всех записей.
func (s *MemoryStore) Load(_ context.Context) ([]*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneAll(s.records), nil
}

// Save заменяет набор записей копией records.
func (s *MemoryStore) Save(_ context.Context, records []*model.Record) error {
	copied := model.CloneAll(records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = copied
	return nil
}

// Count возвращает количество записей.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
