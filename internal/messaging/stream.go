package messaging

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kapalua/ordersbot/internal/catalog"
	"github.com/kapalua/ordersbot/internal/chatlog"
	"github.com/kapalua/ordersbot/pkg/logging"
)

// InboundEvent is one message observed by the WhatsApp bridge. Media
// content arrives already normalized to text by the bridge's extraction
// collaborators; events that stay binary keep type "media".
type InboundEvent struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
	Type      string `json:"type"`
	Filename  string `json:"filename"`
	Timestamp string `json:"timestamp"`
}

// MessageHandler runs the decision pipeline for one received message.
type MessageHandler interface {
	HandleIncoming(ctx context.Context, receiver, sender, messageText string) error
}

const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second

	// A connection that lived at least this long counts as healthy and
	// resets the reconnect backoff.
	healthyConnAge = time.Minute
)

// StreamListener consumes the bridge's message stream over a websocket,
// persists every turn it can attribute to a customer, and routes received
// text through the handler. It reconnects with capped backoff until the
// context is cancelled.
type StreamListener struct {
	url       string
	dialer    *websocket.Dialer
	customers CustomerResolver
	managers  ManagerResolver
	turns     TurnAppender
	handler   MessageHandler
	logger    *logging.Logger

	now func() time.Time
}

func NewStreamListener(url string, customers CustomerResolver, managers ManagerResolver, turns TurnAppender, handler MessageHandler, logger *logging.Logger) *StreamListener {
	if logger == nil {
		logger = logging.Default()
	}
	return &StreamListener{
		url:       url,
		dialer:    websocket.DefaultDialer,
		customers: customers,
		managers:  managers,
		turns:     turns,
		handler:   handler,
		logger:    logger,
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled.
func (l *StreamListener) Run(ctx context.Context) error {
	var backoff time.Duration
	for {
		started := l.now()
		err := l.listenOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, l.now().Sub(started))
		l.logger.Error("bridge stream disconnected, reconnecting", "error", err, "backoff", backoff.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// nextBackoff doubles the reconnect delay up to the cap, starting over at
// the minimum after any connection that lived long enough to count as
// healthy.
func nextBackoff(prev, connAge time.Duration) time.Duration {
	if connAge >= healthyConnAge || prev == 0 {
		return reconnectMin
	}
	next := prev * 2
	if next > reconnectMax {
		next = reconnectMax
	}
	return next
}

func (l *StreamListener) listenOnce(ctx context.Context) error {
	conn, resp, err := l.dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()
	l.logger.Info("connected to bridge stream", "url", l.url)

	// Unblock ReadJSON when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var event InboundEvent
		if err := conn.ReadJSON(&event); err != nil {
			return err
		}
		l.handleEvent(ctx, event)
	}
}

// handleEvent attributes, persists, and dispatches a single event. Any
// failure is logged and swallowed so the read loop keeps going.
func (l *StreamListener) handleEvent(ctx context.Context, event InboundEvent) {
	sender := NormalizeNumber(event.From)
	receiver := NormalizeNumber(event.To)
	l.logger.Info("bridge event", "from", sender, "to", receiver, "type", event.Type)

	customer, direction, err := l.resolveDirection(ctx, sender, receiver)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			l.logger.Error("could not attribute bridge event", "error", err)
		}
		return
	}

	ts, ok := ParseTimestamp(event.Timestamp)
	if !ok {
		l.logger.Warn("unknown timestamp format, using current time", "timestamp", event.Timestamp)
		ts = l.now().UTC()
	}

	msgType := event.Type
	if msgType == "" {
		msgType = "text"
	}
	content := strings.ReplaceAll(event.Text, "\n", " ")

	rec := chatlog.TurnRecord{
		ClientID:  customer.Code,
		Direction: direction,
		Type:      msgType,
		Content:   content,
		Timestamp: ts,
	}
	if direction == chatlog.DirectionSent {
		rec.ClientPhone = receiver
		rec.UserPhone = sender
	} else {
		rec.ClientPhone = sender
		rec.UserPhone = receiver
	}
	if manager, err := l.managers.ManagerByPhoneFuzzy(ctx, rec.UserPhone); err == nil {
		rec.UserID = manager.ID
	}

	if err := l.turns.Append(ctx, rec); err != nil {
		l.logger.Error("failed to persist turn", "client_id", rec.ClientID, "error", err)
		return
	}

	if direction != chatlog.DirectionReceived || msgType != "text" || strings.TrimSpace(content) == "" {
		return
	}
	if err := l.handler.HandleIncoming(ctx, receiver, sender, content); err != nil {
		l.logger.Error("message handling failed", "client_id", rec.ClientID, "error", err)
	}
}

// resolveDirection decides which side of the conversation the customer is
// on: a customer sender means a received turn, a customer receiver means
// the manager's device sent it.
func (l *StreamListener) resolveDirection(ctx context.Context, sender, receiver string) (catalog.Customer, chatlog.Direction, error) {
	customer, err := l.customers.CustomerByPhone(ctx, sender)
	if err == nil {
		return customer, chatlog.DirectionReceived, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return catalog.Customer{}, "", err
	}
	customer, err = l.customers.CustomerByPhone(ctx, receiver)
	if err != nil {
		return catalog.Customer{}, "", err
	}
	return customer, chatlog.DirectionSent, nil
}
