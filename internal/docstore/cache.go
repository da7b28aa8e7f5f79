package docstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

type cachedDocument struct {
	Version int64     `json:"v"`
	Doc     *Document `json:"d"`
}

// CachedBackend serves Load from an in-process freecache and keeps it coherent
// with its own writes. A conflict drops the cached entry.
type CachedBackend struct {
	backend    Backend
	cache      *freecache.Cache
	ttlSeconds int
}

func NewCachedBackend(backend Backend, sizeMB, ttlSeconds int) *CachedBackend {
	return &CachedBackend{
		backend:    backend,
		cache:      freecache.NewCache(sizeMB * 1024 * 1024),
		ttlSeconds: ttlSeconds,
	}
}

func (b *CachedBackend) Load(ctx context.Context, key Key) (*Document, int64, error) {
	if raw, err := b.cache.Get([]byte(key)); err == nil {
		var entry cachedDocument
		if err := json.Unmarshal(raw, &entry); err == nil && entry.Doc != nil {
			return entry.Doc, entry.Version, nil
		}
		b.cache.Del([]byte(key))
	}

	doc, version, err := b.backend.Load(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	b.put(key, doc, version)
	return doc, version, nil
}

func (b *CachedBackend) Save(ctx context.Context, key Key, doc *Document, expectedVersion int64) (int64, error) {
	version, err := b.backend.Save(ctx, key, doc, expectedVersion)
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			b.cache.Del([]byte(key))
		}
		return 0, err
	}
	b.put(key, doc, version)
	return version, nil
}

func (b *CachedBackend) Keys(ctx context.Context) ([]Key, error) {
	return b.backend.Keys(ctx)
}

func (b *CachedBackend) Invalidate(key Key) {
	b.cache.Del([]byte(key))
}

func (b *CachedBackend) put(key Key, doc *Document, version int64) {
	raw, err := json.Marshal(cachedDocument{Version: version, Doc: doc})
	if err != nil {
		log.Warnf("doc cache, marshal %s: %s", key, err)
		return
	}
	if err := b.cache.Set([]byte(key), raw, b.ttlSeconds); err != nil {
		log.Warnf("doc cache, set %s: %s", key, err)
	}
}
