package embedding

import "context"

// Store generates embeddings for batches of text through the remote
// embedding API. One call maps to one API request; callers are responsible
// for splitting inputs into API-sized batches.
type Store interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
