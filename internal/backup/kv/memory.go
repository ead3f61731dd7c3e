package kv

import (
	"sort"
	"strings"

	"github.com/Rani367/Hativon-sub000/internal/cache"
)

type MemoryStore struct {
	namespace string
	items     *cache.Cache[string, []byte]
}

// NewMemoryStore returns a store that forgets everything on exit. Stores built
// from the same shared cache but different namespaces never see each other's keys.
func NewMemoryStore(namespace string, shared *cache.Cache[string, []byte]) *MemoryStore {
	if shared == nil {
		shared = cache.NewCache[string, []byte]()
	}
	return &MemoryStore{namespace: namespace, items: shared}
}

func (m *MemoryStore) key(k string) string {
	return m.namespace + "/" + k
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	v, ok := m.items.Get(m.key(key))
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Put(key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	m.items.Set(m.key(key), v)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.items.Delete(m.key(key))
	return nil
}

func (m *MemoryStore) Rename(from, to string) error {
	if !m.items.Move(m.key(from), m.key(to)) {
		return ErrNotFound
	}
	return nil
}

func (m *MemoryStore) Keys() ([]string, error) {
	prefix := m.key("")
	var out []string
	for _, k := range m.items.Keys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, strings.TrimPrefix(k, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}
