package messaging

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/kapalua/ordersbot/internal/catalog"
	"github.com/kapalua/ordersbot/internal/chatlog"
	"github.com/kapalua/ordersbot/internal/conversation"
	"github.com/kapalua/ordersbot/pkg/logging"
)

// TurnAppender records conversation turns.
type TurnAppender interface {
	Append(ctx context.Context, rec chatlog.TurnRecord) error
}

// CustomerResolver resolves ERP customers by phone.
type CustomerResolver interface {
	CustomerByPhone(ctx context.Context, phone string) (catalog.Customer, error)
}

// ManagerResolver resolves account managers by phone.
type ManagerResolver interface {
	ManagerByPhoneFuzzy(ctx context.Context, phone string) (chatlog.Manager, error)
}

// PersistingTransport wraps a Transport so every sent message lands in the
// chat log. The bridge does not echo API-sent messages on its stream, and
// the unattended sweep's already-answered check depends on these rows.
type PersistingTransport struct {
	inner     conversation.Transport
	turns     TurnAppender
	customers CustomerResolver
	managers  ManagerResolver
	logger    *logging.Logger
}

// WrapWithPersistence wraps transport; a nil turns store returns the
// transport unchanged.
func WrapWithPersistence(transport conversation.Transport, turns TurnAppender, customers CustomerResolver, managers ManagerResolver, logger *logging.Logger) conversation.Transport {
	if turns == nil {
		return transport
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PersistingTransport{
		inner:     transport,
		turns:     turns,
		customers: customers,
		managers:  managers,
		logger:    logger,
	}
}

var _ conversation.Transport = (*PersistingTransport)(nil)

func (p *PersistingTransport) SendText(ctx context.Context, to, from, text string) error {
	if err := p.inner.SendText(ctx, to, from, text); err != nil {
		return err
	}
	p.record(ctx, to, from, "text", text)
	return nil
}

func (p *PersistingTransport) SendFile(ctx context.Context, to, from, path string) error {
	if err := p.inner.SendFile(ctx, to, from, path); err != nil {
		return err
	}
	p.record(ctx, to, from, "media", filepath.Base(path))
	return nil
}

// record appends the sent turn. Persistence failure is logged, never
// surfaced: delivery already happened.
func (p *PersistingTransport) record(ctx context.Context, to, from, msgType, content string) {
	customer, err := p.customers.CustomerByPhone(ctx, to)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			p.logger.Warn("could not resolve customer for sent turn", "phone", to, "error", err)
		}
		return
	}

	rec := chatlog.TurnRecord{
		ClientID:    customer.Code,
		ClientPhone: to,
		UserPhone:   from,
		Direction:   chatlog.DirectionSent,
		Type:        msgType,
		Content:     content,
		Timestamp:   time.Now().UTC(),
	}
	if manager, err := p.managers.ManagerByPhoneFuzzy(ctx, from); err == nil {
		rec.UserID = manager.ID
	}

	if err := p.turns.Append(ctx, rec); err != nil {
		p.logger.Warn("failed to persist sent turn", "client_id", rec.ClientID, "error", err)
	}
}
