package vector

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyInfoDb panics on the first GetCollectionInfo calls, then answers.
type flakyInfoDb struct {
	calls      atomic.Int64
	panicUntil int64
}

func (d *flakyInfoDb) EnsureCollection(ctx context.Context) error { return nil }

func (d *flakyInfoDb) FetchExistingKeys(ctx context.Context) (map[string]struct{}, error) {
	return nil, nil
}

func (d *flakyInfoDb) BulkUpsert(ctx context.Context, points []Point) error { return nil }

func (d *flakyInfoDb) CreateScalarIndex(ctx context.Context, field string) error { return nil }

func (d *flakyInfoDb) UpdateIndexingThreshold(ctx context.Context, indexingThreshold int64) error {
	return nil
}

func (d *flakyInfoDb) GetCollectionInfo(ctx context.Context) (*CollectionInfoResponse, error) {
	n := d.calls.Add(1)
	if n <= d.panicUntil {
		panic("collection info lookup blew up")
	}
	return &CollectionInfoResponse{Status: "green", PointsCount: 42}, nil
}

func TestPublishLoopReturnsAfterPanic(t *testing.T) {
	db := &flakyInfoDb{panicUntil: 1}

	done := make(chan struct{})
	go func() {
		defer close(done)
		publishLoop(db, time.Millisecond, "meetings")
	}()

	// The loop must recover the panic and return rather than crash or hang.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish loop neither recovered nor returned after the panic")
	}
	require.EqualValues(t, 1, db.calls.Load())

	// A restarted loop gets its own fresh ticker, so publishing resumes.
	go publishLoop(db, time.Millisecond, "meetings")
	assert.Eventually(t, func() bool {
		return db.calls.Load() >= 3
	}, 2*time.Second, time.Millisecond)
}
