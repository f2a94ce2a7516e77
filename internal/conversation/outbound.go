package conversation

import (
	"context"

	"github.com/kapalua/ordersbot/internal/catalog"
	"github.com/kapalua/ordersbot/internal/chatlog"
	"github.com/kapalua/ordersbot/internal/order"
)

// Transport delivers outbound traffic to a customer phone. The concrete
// implementation lives behind the WhatsApp bridge; this package only
// decides what to send.
type Transport interface {
	SendText(ctx context.Context, to, from, text string) error
	SendFile(ctx context.Context, to, from, path string) error
}

// Notifier escalates a confirmed order to the assigned account manager.
// attachmentPath may be empty when no spreadsheet could be produced.
type Notifier interface {
	NotifyConfirmedOrder(ctx context.Context, manager chatlog.Manager, customer catalog.Customer, customerPhone, confirmedText, attachmentPath string) error
}

// Renderer produces the order-summary artifact sent to the customer
// alongside the confirmation request.
type Renderer interface {
	RenderOrderSummary(lines []order.SummaryLine, dir string) (string, error)
}

// RendererFunc adapts a plain function to Renderer.
type RendererFunc func(lines []order.SummaryLine, dir string) (string, error)

func (f RendererFunc) RenderOrderSummary(lines []order.SummaryLine, dir string) (string, error) {
	return f(lines, dir)
}
