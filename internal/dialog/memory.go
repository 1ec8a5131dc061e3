package dialog

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store. Payloads are stored encoded so that
// reads behave like the persistent backends.
type MemoryStore struct {
	mu    sync.Mutex
	items map[Key]memoryItem
}

type memoryItem struct {
	state   State
	payload []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[Key]memoryItem)}
}

func (m *MemoryStore) Get(_ context.Context, key Key) (*Session, error) {
	m.mu.Lock()
	it, ok := m.items[key]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	p, err := decodePayload(it.payload)
	if err != nil {
		return nil, err
	}
	return &Session{Key: key, State: it.state, Payload: p}, nil
}

func (m *MemoryStore) Set(_ context.Context, key Key, state State, fields Payload) error {
	if !state.Valid() {
		return ErrInvalidState
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p := Payload{}
	if it, ok := m.items[key]; ok {
		cur, err := decodePayload(it.payload)
		if err != nil {
			return err
		}
		p = cur
	}
	raw, err := encodePayload(merge(p, fields))
	if err != nil {
		return err
	}
	m.items[key] = memoryItem{state: state, payload: raw}
	return nil
}

func (m *MemoryStore) Update(_ context.Context, key Key, fields Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[key]
	if !ok {
		return ErrNoSession
	}
	cur, err := decodePayload(it.payload)
	if err != nil {
		return err
	}
	raw, err := encodePayload(merge(cur, fields))
	if err != nil {
		return err
	}
	it.payload = raw
	m.items[key] = it
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, key Key) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}
