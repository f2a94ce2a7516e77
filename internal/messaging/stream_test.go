package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kapalua/ordersbot/internal/catalog"
	"github.com/kapalua/ordersbot/internal/chatlog"
)

type handledCall struct{ receiver, sender, text string }

type stubHandler struct {
	mu    sync.Mutex
	calls []handledCall
}

func (s *stubHandler) HandleIncoming(_ context.Context, receiver, sender, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, handledCall{receiver, sender, text})
	return nil
}

func (s *stubHandler) handled() []handledCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]handledCall(nil), s.calls...)
}

func newListenerFixture(url string) (*StreamListener, *memAppender, *stubHandler) {
	turns := &memAppender{}
	handler := &stubHandler{}
	customers := &stubCustomers{byPhone: map[string]catalog.Customer{
		"34699888777": {Code: 42},
	}}
	managers := &stubManagers{byPhone: map[string]chatlog.Manager{
		"34600111222": {ID: 7, Phone: "34600111222"},
	}}
	l := NewStreamListener(url, customers, managers, turns, handler, nil)
	l.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return l, turns, handler
}

func TestHandleEventReceivedTextIsPersistedAndDispatched(t *testing.T) {
	l, turns, handler := newListenerFixture("")

	l.handleEvent(context.Background(), InboundEvent{
		From:      "+34699888777:3@s.whatsapp.net",
		To:        "34600111222@s.whatsapp.net",
		Text:      "ponme dos\ndel A100",
		Type:      "text",
		Timestamp: "2026-03-01T11:59:00Z",
	})

	if len(turns.recs) != 1 {
		t.Fatalf("expected 1 persisted turn, got %d", len(turns.recs))
	}
	rec := turns.recs[0]
	if rec.Direction != chatlog.DirectionReceived || rec.ClientID != 42 || rec.UserID != 7 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.ClientPhone != "34699888777" || rec.UserPhone != "34600111222" {
		t.Errorf("phones not normalized: %+v", rec)
	}
	if strings.Contains(rec.Content, "\n") {
		t.Error("newlines should be flattened before persisting")
	}
	if len(handler.calls) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(handler.calls))
	}
	if handler.calls[0].receiver != "34600111222" || handler.calls[0].sender != "34699888777" {
		t.Errorf("dispatch parties wrong: %+v", handler.calls[0])
	}
}

func TestHandleEventSentTurnIsPersistedNotDispatched(t *testing.T) {
	l, turns, handler := newListenerFixture("")

	l.handleEvent(context.Background(), InboundEvent{
		From:      "34600111222",
		To:        "34699888777",
		Text:      "Listo, anotado",
		Type:      "text",
		Timestamp: "2026-03-01 11:59:00",
	})

	if len(turns.recs) != 1 {
		t.Fatalf("expected 1 persisted turn, got %d", len(turns.recs))
	}
	if turns.recs[0].Direction != chatlog.DirectionSent {
		t.Errorf("expected sent direction, got %s", turns.recs[0].Direction)
	}
	if len(handler.calls) != 0 {
		t.Error("sent turns must not re-enter the pipeline")
	}
}

func TestHandleEventUnattributableIsDropped(t *testing.T) {
	l, turns, handler := newListenerFixture("")

	l.handleEvent(context.Background(), InboundEvent{
		From: "111", To: "222", Text: "hola", Type: "text",
	})

	if len(turns.recs) != 0 || len(handler.calls) != 0 {
		t.Error("events with no known customer on either side are dropped")
	}
}

func TestHandleEventMediaIsPersistedNotDispatched(t *testing.T) {
	l, turns, handler := newListenerFixture("")

	l.handleEvent(context.Background(), InboundEvent{
		From:     "34699888777",
		To:       "34600111222",
		Text:     "factura.pdf",
		Type:     "media",
		Filename: "factura.pdf",
	})

	if len(turns.recs) != 1 {
		t.Fatalf("expected media turn persisted, got %d", len(turns.recs))
	}
	if len(handler.calls) != 0 {
		t.Error("media turns must not be dispatched to the pipeline")
	}
}

func TestHandleEventUnknownTimestampFallsBackToNow(t *testing.T) {
	l, turns, _ := newListenerFixture("")

	l.handleEvent(context.Background(), InboundEvent{
		From: "34699888777", To: "34600111222", Text: "hola", Type: "text",
		Timestamp: "not-a-time",
	})

	if len(turns.recs) != 1 {
		t.Fatal("expected turn to be persisted")
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !turns.recs[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want fallback %v", turns.recs[0].Timestamp, want)
	}
}

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		name    string
		prev    time.Duration
		connAge time.Duration
		want    time.Duration
	}{
		{"first failure", 0, 0, reconnectMin},
		{"quick failure doubles", reconnectMin, time.Second, 2 * time.Second},
		{"doubling is capped", 20 * time.Second, time.Second, reconnectMax},
		{"stays at cap", reconnectMax, time.Second, reconnectMax},
		{"healthy connection resets", reconnectMax, 2 * time.Minute, reconnectMin},
		{"threshold is inclusive", 8 * time.Second, healthyConnAge, reconnectMin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextBackoff(tt.prev, tt.connAge); got != tt.want {
				t.Errorf("nextBackoff(%v, %v) = %v, want %v", tt.prev, tt.connAge, got, tt.want)
			}
		})
	}
}

func TestStreamListenerRunConsumesAndStopsOnCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(InboundEvent{
			From: "34699888777", To: "34600111222", Text: "hola", Type: "text",
			Timestamp: "2026-03-01T11:59:00Z",
		})
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	l, turns, handler := newListenerFixture(wsURL)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for len(handler.handled()) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the event to be handled")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if len(turns.records()) == 0 {
		t.Error("expected the streamed event to be persisted")
	}
}
