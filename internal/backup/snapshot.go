package backup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/2beens/gymplan/internal/docstore"
)

// documentSource is the read side of a docstore.Backend.
type documentSource interface {
	Load(ctx context.Context, key docstore.Key) (*docstore.Document, int64, error)
	Keys(ctx context.Context) ([]docstore.Key, error)
}

type DocumentEntry struct {
	Key      docstore.Key       `json:"key"`
	Version  int64              `json:"version"`
	Document *docstore.Document `json:"document"`
}

type Snapshot struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Documents  []DocumentEntry `json:"documents"`
}

// TakeSnapshot reads every plan document of the backend, ordered by key.
// Documents removed between listing and loading are skipped.
func TakeSnapshot(ctx context.Context, source documentSource, now time.Time) (*Snapshot, error) {
	keys, err := source.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list document keys: %w", err)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	snapshot := &Snapshot{
		ExportedAt: now.UTC(),
		Documents:  make([]DocumentEntry, 0, len(keys)),
	}
	for _, key := range keys {
		doc, version, err := source.Load(ctx, key)
		if err != nil {
			if errors.Is(err, docstore.ErrDocumentNotFound) {
				continue
			}
			return nil, fmt.Errorf("load document %s: %w", key, err)
		}
		snapshot.Documents = append(snapshot.Documents, DocumentEntry{
			Key:      key,
			Version:  version,
			Document: doc,
		})
	}

	return snapshot, nil
}
