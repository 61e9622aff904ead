package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportStoreSaveAndGet(t *testing.T) {
	store := &ReportStore{reports: make(map[string]*RunReport)}

	_, ok := store.Get("missing")
	assert.False(t, ok)

	report := &RunReport{RunId: "run-1", State: StateDone}
	store.Save(report)

	got, ok := store.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, StateDone, got.State)
	assert.Len(t, store.List(), 1)
}

func TestRunSavesReportToStore(t *testing.T) {
	db := &stubVectorDb{}
	store := &stubEmbedStore{}
	runner := testRunner(db, store, newStubCache(), testConfig(250, 1000, 3))

	report, err := runner.RunWithId(context.Background(), "run-xyz", "meetings", testSchema, makeRecords(2), false)
	require.NoError(t, err)
	assert.Equal(t, "run-xyz", report.RunId)

	saved, ok := Reports().Get("run-xyz")
	require.True(t, ok)
	assert.Equal(t, StateDone, saved.State)
}

// gateEmbedStore blocks Embed until its gate is closed, keeping a run in
// flight long enough for another goroutine to observe it.
type gateEmbedStore struct {
	gate chan struct{}
}

func (s *gateEmbedStore) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	<-s.gate
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vecFor(t)
	}
	return out, nil
}

func TestRunIdResolvableWhileRunInFlight(t *testing.T) {
	gate := make(chan struct{})
	runner := testRunner(&stubVectorDb{}, &stubEmbedStore{}, newStubCache(), testConfig(250, 1000, 3))
	runner.embedStore = &gateEmbedStore{gate: gate}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = runner.RunWithId(context.Background(), "run-inflight", "meetings", testSchema, makeRecords(3), false)
	}()

	// An async caller hands the run ID out immediately, so the store must
	// resolve it while the embed call is still blocked.
	require.Eventually(t, func() bool {
		saved, ok := Reports().Get("run-inflight")
		return ok && saved.State == StateEmbedding
	}, time.Second, 5*time.Millisecond)

	close(gate)
	<-done

	saved, ok := Reports().Get("run-inflight")
	require.True(t, ok)
	assert.Equal(t, StateDone, saved.State)
}
