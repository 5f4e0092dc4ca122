package storage

import (
	"context"
	"sync"

	"taskly/internal/tasks"
)

// Memory is a process-local key/value store. It still encodes the blob so
// it behaves like the durable backends.
type Memory struct {
	mu   sync.Mutex
	key  string
	data map[string][]byte
}

func NewMemory(key string) *Memory {
	if key == "" {
		key = DefaultKey
	}
	return &Memory{key: key, data: make(map[string][]byte)}
}

// Set replaces the raw blob, e.g. to seed a test with hand-written JSON.
func (m *Memory) Set(raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.key] = append([]byte(nil), raw...)
}

func (m *Memory) Load(context.Context) ([]tasks.Task, error) {
	m.mu.Lock()
	raw, ok := m.data[m.key]
	m.mu.Unlock()
	if !ok {
		return []tasks.Task{}, nil
	}
	return decode(m.key, raw)
}

func (m *Memory) Save(_ context.Context, list []tasks.Task) error {
	data, err := tasks.Encode(list)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.key] = data
	return nil
}
