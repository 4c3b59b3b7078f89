package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_PublishToChannel(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("channel"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	teacher, _, err := websocket.Dial(ctx, wsURL+"?channel=t1", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer teacher.CloseNow()
	other, _, err := websocket.Dial(ctx, wsURL+"?channel=t2", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer other.CloseNow()

	waitFor(t, func() bool { return hub.Subscribers("t1") == 1 && hub.Subscribers("t2") == 1 })

	hub.Publish(ctx, "t1", Message{Type: TypeSubmission, Data: map[string]any{"quizId": "q1", "score": 3}})

	var got struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := wsjson.Read(ctx, teacher, &got); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Type != TypeSubmission || got.Data["quizId"] != "q1" {
		t.Errorf("message = %+v", got)
	}

	// The other channel receives nothing.
	readCtx, readCancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer readCancel()
	if _, _, err := other.Read(readCtx); err == nil {
		t.Error("subscriber on another channel should not receive the message")
	}
}

func TestHub_RemovesClosedSubscribers(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, "t1")
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	waitFor(t, func() bool { return hub.Subscribers("t1") == 1 })

	conn.Close(websocket.StatusNormalClosure, "bye")
	waitFor(t, func() bool { return hub.Subscribers("t1") == 0 })

	// Publishing to an empty channel is a no-op.
	hub.Publish(ctx, "t1", Message{Type: TypeSubmission})
}
