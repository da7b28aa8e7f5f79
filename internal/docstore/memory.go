package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

type memoryEntry struct {
	body    []byte
	version int64
}

// MemoryBackend keeps documents in process memory. Used in development and tests.
type MemoryBackend struct {
	mutex sync.Mutex
	docs  map[Key]memoryEntry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		docs: make(map[Key]memoryEntry),
	}
}

func (b *MemoryBackend) Load(_ context.Context, key Key) (*Document, int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	entry, ok := b.docs[key]
	if !ok {
		return nil, 0, ErrDocumentNotFound
	}

	var doc Document
	if err := json.Unmarshal(entry.body, &doc); err != nil {
		return nil, 0, err
	}
	return &doc, entry.version, nil
}

func (b *MemoryBackend) Save(_ context.Context, key Key, doc *Document, expectedVersion int64) (int64, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return 0, err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.docs[key].version != expectedVersion {
		return 0, ErrVersionConflict
	}

	newVersion := expectedVersion + 1
	b.docs[key] = memoryEntry{body: body, version: newVersion}
	return newVersion, nil
}

func (b *MemoryBackend) Keys(_ context.Context) ([]Key, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	keys := make([]Key, 0, len(b.docs))
	for k := range b.docs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}
