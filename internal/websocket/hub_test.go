package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/songmasher/api/internal/model"
)

func newTestClient(jobID string, sendBuf int) *Client {
	return &Client{
		JobID: jobID,
		Send:  make(chan []byte, sendBuf),
		done:  make(chan struct{}),
	}
}

func TestHubDeliversProgress(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	client := newTestClient("job-1", 4)
	hub.Register(client)

	hub.NotifyProgress("job-1", model.StageMixing, 0.65)

	select {
	case raw := <-client.Send:
		var msg model.WSProgressMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != model.WSMessageTypeProgress || msg.Stage != model.StageMixing {
			t.Errorf("message = %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}

	hub.Unregister(client)
	select {
	case <-client.done:
	case <-time.After(2 * time.Second):
		t.Fatal("unregister did not signal teardown")
	}
}

func TestHubIsolatesJobs(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	watching := newTestClient("job-1", 4)
	other := newTestClient("job-2", 4)
	hub.Register(watching)
	hub.Register(other)

	hub.NotifyComplete("job-1", model.ResultRefs{MashupAudioRef: "a", ProjectFileRef: "p"})

	select {
	case <-watching.Send:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber missed its job's update")
	}
	select {
	case raw := <-other.Send:
		t.Fatalf("unsubscribed job received %s", raw)
	case <-time.After(100 * time.Millisecond):
	}
}

// A subscriber that stops draining gets evicted; an inbound ping racing
// the eviction must fall through to done instead of panicking on Send.
func TestHubEvictsSlowSubscriberSafely(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	client := newTestClient("job-1", 0)
	hub.Register(client)

	hub.NotifyError("job-1", "RenderError:StageTimeout")

	select {
	case <-client.done:
	case <-time.After(2 * time.Second):
		t.Fatal("slow subscriber was not evicted")
	}

	pong, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
	select {
	case client.Send <- pong:
		t.Fatal("send landed after eviction")
	case <-client.done:
	}

	// A second unregister for the same client must be a no-op.
	hub.Unregister(client)
	hub.NotifyProgress("job-1", model.StageMastering, 0.85)
}
