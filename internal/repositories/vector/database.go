package vector

import "context"

type Database interface {
	// EnsureCollection creates the collection if it does not exist yet.
	EnsureCollection(ctx context.Context) error
	// FetchExistingKeys pages through all stored points and returns the set
	// of primary keys already present in the collection.
	FetchExistingKeys(ctx context.Context) (map[string]struct{}, error)
	BulkUpsert(ctx context.Context, points []Point) error
	CreateScalarIndex(ctx context.Context, field string) error
	UpdateIndexingThreshold(ctx context.Context, indexingThreshold int64) error
	GetCollectionInfo(ctx context.Context) (*CollectionInfoResponse, error)
}
