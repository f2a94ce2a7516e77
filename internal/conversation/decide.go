package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/kapalua/ordersbot/internal/chatlog"
	"github.com/kapalua/ordersbot/internal/extract"
	"github.com/kapalua/ordersbot/internal/order"
)

// Disclaimer is appended to every generated reply.
const Disclaimer = "[Este mensaje fue generado automáticamente por un asistente en versión de pruebas]"

// ConfirmationRequest is the fixed copy sent alongside an order summary.
const ConfirmationRequest = "Confirma si el pedido es correcto respondiendo con *Es correcto*. " +
	"Se lo pasaremos a tu comercial que se encargará de todo o te contactará si hay alguna duda. " +
	"En caso de que no sea correcto, sientete libre de repetirme el pedido o indicar unicamente las correcciones " +
	Disclaimer

// ActionKind tags the single outbound action decided for a message.
type ActionKind int

const (
	// ActionNone means the message produces no outbound traffic.
	ActionNone ActionKind = iota
	// ActionReply sends a generated conversational reply.
	ActionReply
	// ActionSendOrderSummary sends the confirmation request plus a
	// rendered summary of the consolidated items.
	ActionSendOrderSummary
	// ActionNotifyConfirmedOrder escalates a confirmed order to the
	// account manager and returns the receipt to the customer.
	ActionNotifyConfirmedOrder
)

// String names the action for logs and metrics labels.
func (k ActionKind) String() string {
	switch k {
	case ActionReply:
		return "reply"
	case ActionSendOrderSummary:
		return "order_summary"
	case ActionNotifyConfirmedOrder:
		return "confirmed_order"
	default:
		return "none"
	}
}

// Action is the outcome of Decide. At most one of the payload fields is
// set, selected by Kind.
type Action struct {
	Kind ActionKind

	// ReplyText is set for ActionReply, disclaimer included.
	ReplyText string
	// Items is set for ActionSendOrderSummary: the consolidated order,
	// positive quantities only, extraction order preserved.
	Items []order.LineItem
	// ConfirmedText is set for ActionNotifyConfirmedOrder: the raw
	// PEDIDO summary text recovered from history.
	ConfirmedText string
}

// Decide classifies one inbound message against the recent history and
// returns the single action to take. It is a pure decision: the only
// side channel is the injected LLM, and no message is sent from here.
//
// history must be oldest-first, as RecentTurns returns it.
func Decide(ctx context.Context, llm LLMClient, managerName string, history []chatlog.Turn, message string) (Action, error) {
	raw, err := llm.Complete(ctx, IsOrderPrompt(message))
	if err != nil {
		return Action{}, fmt.Errorf("conversation: order classification: %w", err)
	}

	if extract.IsOrder(raw) {
		if extract.IsConfirmation(message) {
			// A miss here is deliberate silence: the customer affirmed
			// but no valid summary exists in the window, so the next
			// message restarts the cycle.
			text, ok := order.FindConfirmed(history)
			if !ok {
				return Action{Kind: ActionNone}, nil
			}
			return Action{Kind: ActionNotifyConfirmedOrder, ConfirmedText: text}, nil
		}

		raw, err = llm.Complete(ctx, MentionedProductsPrompt(HistoryText(history), message))
		if err != nil {
			return Action{}, fmt.Errorf("conversation: item extraction: %w", err)
		}
		items := order.FromPairs(extract.Items(raw))

		// A removal message ("quita el A100") corrects the pending
		// summary rather than starting a fresh order: recover the prior
		// state from history and drop the codes the customer names.
		var prior *order.Snapshot
		var removals map[string]bool
		if extract.HasRemovalHint(message) {
			if prior = order.LatestSummary(history); prior != nil {
				removals = removedCodes(prior, message)
			}
		}
		if snapshot := order.Consolidate(items, prior, removals); snapshot.Len() > 0 {
			return Action{Kind: ActionSendOrderSummary, Items: snapshot.Items()}, nil
		}
		// Classified as an order but nothing extractable; fall through
		// to the chat decision rather than going quiet.
	}

	raw, err = llm.Complete(ctx, ChatPrompt(managerName, HistoryText(history), message))
	if err != nil {
		return Action{}, fmt.Errorf("conversation: reply decision: %w", err)
	}
	reply, ok := extract.ReplyText(raw)
	reply = strings.TrimSpace(reply)
	if !ok || reply == "" {
		return Action{Kind: ActionNone}, nil
	}
	return Action{Kind: ActionReply, ReplyText: reply + "\n" + Disclaimer}, nil
}

// removedCodes collects the pending-summary codes the customer names in a
// removal message. Matching is case-insensitive on the rendered code.
func removedCodes(prior *order.Snapshot, message string) map[string]bool {
	lower := strings.ToLower(message)
	removals := make(map[string]bool)
	for _, item := range prior.Items() {
		if strings.Contains(lower, strings.ToLower(item.Code)) {
			removals[item.Code] = true
		}
	}
	return removals
}
