package ports

import "context"

// SignatureStore persists rasterized signature images and returns an opaque
// object key the diagnosis record keeps as its reference.
type SignatureStore interface {
	Put(ctx context.Context, diagnosisID string, data []byte, contentType string) (string, error)
}

// ListCache is a best-effort mirror of fetched subject collections. It is
// never a source of truth: entries expire on their own and are invalidated
// on every successful mutation.
type ListCache interface {
	// Get unmarshals the cached value into v and reports whether the key was
	// present.
	Get(ctx context.Context, key string, v any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Invalidate(ctx context.Context, keys ...string) error
}
