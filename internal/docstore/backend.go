package docstore

import (
	"context"
	"errors"
)

//go:generate mockgen -source=$GOFILE -destination=backend_mocks_test.go -package=docstore_test

var (
	ErrDocumentNotFound = errors.New("plan document not found")
	ErrVersionConflict  = errors.New("plan document version conflict")
	ErrTabNotFound      = errors.New("tab not found in plan document")
)

// Backend persists plan documents under an optimistic concurrency version.
//
// Load returns ErrDocumentNotFound when there is no document for key.
// Save writes doc only if the stored version still equals expectedVersion
// (0 means the document must not exist yet) and returns the new version,
// or ErrVersionConflict otherwise.
type Backend interface {
	Load(ctx context.Context, key Key) (*Document, int64, error)
	Save(ctx context.Context, key Key, doc *Document, expectedVersion int64) (int64, error)
	Keys(ctx context.Context) ([]Key, error)
}
