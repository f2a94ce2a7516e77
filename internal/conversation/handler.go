package conversation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kapalua/ordersbot/internal/catalog"
	"github.com/kapalua/ordersbot/internal/chatlog"
	"github.com/kapalua/ordersbot/internal/observability/metrics"
	"github.com/kapalua/ordersbot/internal/order"
	"github.com/kapalua/ordersbot/pkg/logging"
)

var handlerTracer = otel.Tracer("ordersbot.internal.conversation")

const defaultHistoryWindow = 6

// ProductDirectory resolves catalog products for summary enrichment.
type ProductDirectory interface {
	ProductByCode(ctx context.Context, code string) (catalog.Product, error)
}

// CustomerDirectory resolves ERP customers by phone.
type CustomerDirectory interface {
	CustomerByPhone(ctx context.Context, phone string) (catalog.Customer, error)
}

// ManagerDirectory resolves account managers by phone.
type ManagerDirectory interface {
	ManagerByPhoneFuzzy(ctx context.Context, phone string) (chatlog.Manager, error)
}

// HistoryReader provides the bounded recent-history window for a customer.
type HistoryReader interface {
	RecentTurns(ctx context.Context, clientID, limit int) ([]chatlog.Turn, error)
}

// Handler runs the full per-message pipeline: resolve the parties, decide
// the action, and dispatch it. It is the entry point for both the live
// stream listener and the unattended-message sweep.
type Handler struct {
	llm       LLMClient
	transport Transport
	notifier  Notifier
	renderer  Renderer

	products  ProductDirectory
	customers CustomerDirectory
	managers  ManagerDirectory
	history   HistoryReader

	artifactDir string
	window      int
	metrics     *metrics.BotMetrics
	logger      *logging.Logger
}

// HandlerConfig wires a Handler. Renderer defaults to the PDF summary
// builder and Window to the standard six-turn history.
type HandlerConfig struct {
	LLM         LLMClient
	Transport   Transport
	Notifier    Notifier
	Renderer    Renderer
	Products    ProductDirectory
	Customers   CustomerDirectory
	Managers    ManagerDirectory
	History     HistoryReader
	ArtifactDir string
	Window      int
	Metrics     *metrics.BotMetrics
	Logger      *logging.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.LLM == nil {
		panic("conversation: llm client cannot be nil")
	}
	if cfg.Transport == nil {
		panic("conversation: transport cannot be nil")
	}
	if cfg.Renderer == nil {
		cfg.Renderer = RendererFunc(order.BuildSummaryPDF)
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = os.TempDir()
	}
	if cfg.Window <= 0 {
		cfg.Window = defaultHistoryWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		llm:         cfg.LLM,
		transport:   cfg.Transport,
		notifier:    cfg.Notifier,
		renderer:    cfg.Renderer,
		products:    cfg.Products,
		customers:   cfg.Customers,
		managers:    cfg.Managers,
		history:     cfg.History,
		artifactDir: cfg.ArtifactDir,
		window:      cfg.Window,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
}

// HandleIncoming processes one received message. receiver is the manager
// phone the customer wrote to, sender the customer phone. Unresolvable
// parties are a no-op, not an error; everything else returns the error to
// the enclosing loop, which logs and moves on.
func (h *Handler) HandleIncoming(ctx context.Context, receiver, sender, messageText string) error {
	ctx, span := handlerTracer.Start(ctx, "conversation.handle")
	defer span.End()
	span.SetAttributes(attribute.String("ordersbot.customer_phone", sender))

	customer, err := h.customers.CustomerByPhone(ctx, sender)
	if errors.Is(err, catalog.ErrNotFound) {
		h.logger.Warn("no customer for phone, skipping message", "phone", sender)
		return nil
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: resolve customer: %w", err)
	}

	manager, err := h.managers.ManagerByPhoneFuzzy(ctx, receiver)
	if errors.Is(err, chatlog.ErrNotFound) {
		h.logger.Warn("no account manager for phone, skipping message", "phone", receiver)
		return nil
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: resolve manager: %w", err)
	}
	managerName := manager.Name
	if managerName == "" {
		managerName = "el vendedor"
	}

	history, err := h.history.RecentTurns(ctx, customer.Code, h.window)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: load history: %w", err)
	}

	action, err := Decide(ctx, h.llm, managerName, history, messageText)
	if err != nil {
		span.RecordError(err)
		h.metrics.ObserveMessage("error")
		return err
	}
	span.SetAttributes(attribute.String("ordersbot.action", action.Kind.String()))
	h.metrics.ObserveMessage(action.Kind.String())

	switch action.Kind {
	case ActionReply:
		return h.sendReply(ctx, sender, receiver, action.ReplyText)
	case ActionSendOrderSummary:
		return h.sendOrderSummary(ctx, sender, receiver, action.Items)
	case ActionNotifyConfirmedOrder:
		return h.notifyConfirmedOrder(ctx, manager, customer, sender, receiver, action.ConfirmedText)
	default:
		h.logger.Info("no action for message", "client_id", customer.Code)
		return nil
	}
}

func (h *Handler) sendReply(ctx context.Context, to, from, text string) error {
	if err := h.transport.SendText(ctx, to, from, text); err != nil {
		return fmt.Errorf("conversation: send reply: %w", err)
	}
	h.logger.Info("reply sent", "to", to)
	return nil
}

func (h *Handler) sendOrderSummary(ctx context.Context, to, from string, items []order.LineItem) error {
	lines := make([]order.SummaryLine, 0, len(items))
	for _, item := range items {
		line := order.SummaryLine{Code: item.Code, Quantity: item.Quantity}
		product, err := h.products.ProductByCode(ctx, item.Code)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			line.Description = catalog.PlaceholderDescription
		case err != nil:
			return fmt.Errorf("conversation: enrich item %q: %w", item.Code, err)
		default:
			line.Code = product.Code
			line.Description = product.Description
		}
		lines = append(lines, line)
	}

	// Render before sending anything: a failed render must not leave the
	// customer with a confirmation request and no summary to confirm.
	path, err := h.renderer.RenderOrderSummary(lines, h.artifactDir)
	if err != nil {
		return fmt.Errorf("conversation: render order summary: %w", err)
	}
	defer h.removeArtifact(path)

	if err := h.transport.SendText(ctx, to, from, ConfirmationRequest); err != nil {
		return fmt.Errorf("conversation: send confirmation request: %w", err)
	}

	if err := h.transport.SendFile(ctx, to, from, path); err != nil {
		return fmt.Errorf("conversation: send order summary: %w", err)
	}
	h.metrics.ObserveOrderExtracted()
	h.logger.Info("order summary sent", "to", to, "items", len(lines))
	return nil
}

func (h *Handler) notifyConfirmedOrder(ctx context.Context, manager chatlog.Manager, customer catalog.Customer, sender, receiver, confirmedText string) error {
	workbookPath, err := order.BuildWorkbook(confirmedText, h.artifactDir)
	switch {
	case errors.Is(err, order.ErrMalformedOrder):
		// Notify without the spreadsheet rather than dropping the order.
		h.logger.Warn("confirmed order has odd token count, notifying without spreadsheet", "client_id", customer.Code)
		workbookPath = ""
	case err != nil:
		return fmt.Errorf("conversation: build workbook: %w", err)
	default:
		defer h.removeArtifact(workbookPath)
	}

	if h.notifier != nil {
		if err := h.notifier.NotifyConfirmedOrder(ctx, manager, customer, sender, confirmedText, workbookPath); err != nil {
			return fmt.Errorf("conversation: notify manager: %w", err)
		}
	}

	pdfPath, err := order.BuildPDF(confirmedText, h.artifactDir)
	if err != nil {
		return fmt.Errorf("conversation: build confirmation pdf: %w", err)
	}
	defer h.removeArtifact(pdfPath)

	if err := h.transport.SendFile(ctx, sender, receiver, pdfPath); err != nil {
		return fmt.Errorf("conversation: send confirmation pdf: %w", err)
	}
	h.metrics.ObserveOrderConfirmed()
	h.logger.Info("confirmed order dispatched", "client_id", customer.Code, "manager_id", manager.ID)
	return nil
}

func (h *Handler) removeArtifact(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		h.logger.Warn("could not remove artifact", "path", path, "error", err)
	}
}
