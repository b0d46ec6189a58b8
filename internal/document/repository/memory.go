package repository

import (
	"context"
	"sync"
)

// DefaultSlotKey is the key the whole document collection is stored under.
const DefaultSlotKey = "spk-document-tracker-documents"

// Slot is one durable key holding the serialized document collection.
// Load returns nil, nil when nothing has been stored yet.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Store(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// MemorySlot keeps the collection in process memory. Used by tests and by
// ephemeral runs where nothing should survive a restart.
type MemorySlot struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Load(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil, nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemorySlot) Store(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemorySlot) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
