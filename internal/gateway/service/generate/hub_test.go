package generate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stencil/internal/gateway/repository/jobstore"
)

func TestHubSnapshotAndLive(t *testing.T) {
	h := NewHub()
	h.Publish(jobstore.Event{RunID: "run-1", Stage: "validate"})

	snapshot, ch, cancel := h.Subscribe("run-1")
	defer cancel()
	require.Len(t, snapshot, 1)
	require.Equal(t, "validate", snapshot[0].Stage)

	h.Publish(jobstore.Event{RunID: "run-1", Stage: "assemble"})
	ev := <-ch
	require.Equal(t, "assemble", ev.Stage)
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	h := NewHub()
	_, ch, cancel := h.Subscribe("run-1")
	defer cancel()

	h.Close("run-1")
	_, open := <-ch
	require.False(t, open)

	// Publishing after close is a no-op.
	h.Publish(jobstore.Event{RunID: "run-1", Stage: "late"})
	snapshot, done, _ := h.Subscribe("run-1")
	require.Empty(t, snapshot)
	_, open = <-done
	require.False(t, open)
}

func TestHubRunsAreIsolated(t *testing.T) {
	h := NewHub()
	_, ch, cancel := h.Subscribe("run-a")
	defer cancel()

	h.Publish(jobstore.Event{RunID: "run-b", Stage: "validate"})
	select {
	case ev := <-ch:
		t.Fatalf("run-a received run-b event: %+v", ev)
	default:
	}
}

func TestHubCancelDetaches(t *testing.T) {
	h := NewHub()
	_, ch, cancel := h.Subscribe("run-1")
	cancel()
	_, open := <-ch
	require.False(t, open)
}

func TestHubSequencesEvents(t *testing.T) {
	h := NewHub()
	h.Publish(jobstore.Event{RunID: "run-1", Stage: "a"})
	h.Publish(jobstore.Event{RunID: "run-1", Stage: "b"})
	snapshot, _, cancel := h.Subscribe("run-1")
	defer cancel()
	require.Equal(t, int64(1), snapshot[0].Seq)
	require.Equal(t, int64(2), snapshot[1].Seq)
}
