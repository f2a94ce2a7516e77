package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/kapalua/ordersbot/internal/catalog"
	"github.com/kapalua/ordersbot/internal/chatlog"
	"github.com/kapalua/ordersbot/internal/conversation"
	"github.com/kapalua/ordersbot/pkg/logging"
)

var _ conversation.Notifier = (*Service)(nil)

const orderBodyTemplate = `Hola %s,

Has recibido un nuevo pedido confirmado por parte de:

- Cliente: %s
- Teléfono: %s

Adjunto encontrarás el detalle del pedido en formato Excel.

Por favor, revisa el archivo y continúa con el proceso correspondiente.

Un saludo,
El asistente automático`

// Service emails confirmed orders to the assigned account manager.
type Service struct {
	email  EmailSender
	logger *logging.Logger
	now    func() time.Time
}

// NewService creates an order notification service.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:  email,
		logger: logger,
		now:    time.Now,
	}
}

// NotifyConfirmedOrder sends the confirmed-order email. A manager with no
// configured email is logged and skipped, not an error. attachmentPath may
// be empty when no spreadsheet could be built; the raw order text is
// inlined instead so the order is never silently lost.
func (s *Service) NotifyConfirmedOrder(ctx context.Context, manager chatlog.Manager, customer catalog.Customer, customerPhone, confirmedText, attachmentPath string) error {
	if manager.Email == "" {
		s.logger.Warn("account manager has no email configured", "manager_id", manager.ID, "name", manager.Name)
		return nil
	}

	clientName := customer.Name
	if clientName == "" {
		clientName = "Sin nombre registrado"
	}
	subjectName := customer.Name
	if subjectName == "" {
		subjectName = "cliente"
	}

	msg := EmailMessage{
		To:      manager.Email,
		ToName:  manager.Name,
		Subject: fmt.Sprintf("Nuevo pedido confirmado de %s - %s", subjectName, s.now().UTC().Format("2006-01-02 15:04")),
		Body:    fmt.Sprintf(orderBodyTemplate, manager.Name, clientName, customerPhone),
	}
	if attachmentPath != "" {
		msg.Attachments = []string{attachmentPath}
	} else {
		msg.Body += "\n\nDetalle del pedido:\n" + confirmedText
	}

	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: confirmed order email: %w", err)
	}
	s.logger.Info("confirmed order emailed", "manager_id", manager.ID, "client_id", customer.Code)
	return nil
}
