package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kapalua/ordersbot/internal/chatlog"
)

// scriptedLLM routes prompts to canned responses by the role line each
// prompt template carries.
type scriptedLLM struct {
	classify string
	extract  string
	chat     string
	err      error
	prompts  []string
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	switch {
	case strings.Contains(prompt, "clasificador de intención"):
		return s.classify, nil
	case strings.Contains(prompt, "EXTRAER códigos"):
		return s.extract, nil
	default:
		return s.chat, nil
	}
}

func TestDecideChatReply(t *testing.T) {
	llm := &scriptedLLM{
		classify: `{ "order": false }`,
		chat:     `{"responder": true, "respuesta": "Hola, ¿quieres dejar tu pedido?"}`,
	}
	action, err := Decide(context.Background(), llm, "Ana", nil, "Hola")
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if action.Kind != ActionReply {
		t.Fatalf("expected ActionReply, got %v", action.Kind)
	}
	if !strings.HasPrefix(action.ReplyText, "Hola, ¿quieres dejar tu pedido?") {
		t.Errorf("unexpected reply text: %q", action.ReplyText)
	}
	if !strings.HasSuffix(action.ReplyText, Disclaimer) {
		t.Errorf("reply missing disclaimer: %q", action.ReplyText)
	}
}

func TestDecideChatDeclines(t *testing.T) {
	llm := &scriptedLLM{
		classify: `{ "order": false }`,
		chat:     `{ "responder": false }`,
	}
	action, err := Decide(context.Background(), llm, "Ana", nil, "dejad de escribirme")
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if action.Kind != ActionNone {
		t.Fatalf("expected ActionNone, got %v", action.Kind)
	}
}

func TestDecideExtractsOrder(t *testing.T) {
	llm := &scriptedLLM{
		classify: `{ "order": true }`,
		extract:  `{"items":[["A100","2"],["B200","3"],["A100","5"]]}`,
	}
	action, err := Decide(context.Background(), llm, "Ana", nil, "ponme 5 del A100 y 3 del B200")
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if action.Kind != ActionSendOrderSummary {
		t.Fatalf("expected ActionSendOrderSummary, got %v", action.Kind)
	}
	if len(action.Items) != 2 {
		t.Fatalf("expected 2 consolidated items, got %d", len(action.Items))
	}
	if action.Items[0].Code != "A100" || action.Items[0].Quantity != 5 {
		t.Errorf("last occurrence should win: got %+v", action.Items[0])
	}
	if action.Items[1].Code != "B200" || action.Items[1].Quantity != 3 {
		t.Errorf("unexpected second item: %+v", action.Items[1])
	}
}

func TestDecideRemovalTrimsPendingSummary(t *testing.T) {
	history := []chatlog.Turn{
		{Direction: chatlog.DirectionSent, Content: `PEDIDO: \A100 \2 \B200 \3`},
	}
	llm := &scriptedLLM{
		classify: `{ "order": true }`,
		extract:  `{ "items": [] }`,
	}
	action, err := Decide(context.Background(), llm, "Ana", history, "quita el A100 por favor")
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if action.Kind != ActionSendOrderSummary {
		t.Fatalf("expected corrected summary, got %v", action.Kind)
	}
	if len(action.Items) != 1 || action.Items[0].Code != "B200" || action.Items[0].Quantity != 3 {
		t.Errorf("expected the remaining item only, got %+v", action.Items)
	}
}

func TestDecideRemovalWithReplacement(t *testing.T) {
	history := []chatlog.Turn{
		{Direction: chatlog.DirectionSent, Content: `PEDIDO: \A100 \2 \B200 \3`},
	}
	llm := &scriptedLLM{
		classify: `{ "order": true }`,
		extract:  `{"items":[["A100","6"]]}`,
	}
	action, err := Decide(context.Background(), llm, "Ana", history, "quita el A100, mejor ponme 6")
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if action.Kind != ActionSendOrderSummary {
		t.Fatalf("expected corrected summary, got %v", action.Kind)
	}
	got := map[string]int{}
	for _, item := range action.Items {
		got[item.Code] = item.Quantity
	}
	if got["A100"] != 6 || got["B200"] != 3 || len(got) != 2 {
		t.Errorf("re-added code should carry the new quantity, got %+v", action.Items)
	}
}

func TestDecideFreshOrderIgnoresPendingSummary(t *testing.T) {
	history := []chatlog.Turn{
		{Direction: chatlog.DirectionSent, Content: `PEDIDO: \A100 \2 \B200 \3`},
	}
	llm := &scriptedLLM{
		classify: `{ "order": true }`,
		extract:  `{"items":[["C300","1"]]}`,
	}
	action, err := Decide(context.Background(), llm, "Ana", history, "ponme 1 del C300")
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if action.Kind != ActionSendOrderSummary {
		t.Fatalf("expected ActionSendOrderSummary, got %v", action.Kind)
	}
	// Without a removal hint the message starts a fresh order.
	if len(action.Items) != 1 || action.Items[0].Code != "C300" {
		t.Errorf("prior summary must not leak into a fresh order, got %+v", action.Items)
	}
}

func TestDecideOrderWithoutItemsFallsToChat(t *testing.T) {
	llm := &scriptedLLM{
		classify: `{ "order": true }`,
		extract:  `{ "items": [] }`,
		chat:     `{"responder": true, "respuesta": "No he entendido los códigos, ¿me los repites?"}`,
	}
	action, err := Decide(context.Background(), llm, "Ana", nil, "quiero pedir cosas")
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if action.Kind != ActionReply {
		t.Fatalf("expected ActionReply fallback, got %v", action.Kind)
	}
	if len(llm.prompts) != 3 {
		t.Errorf("expected classify+extract+chat prompts, got %d", len(llm.prompts))
	}
}

func TestDecideConfirmation(t *testing.T) {
	history := []chatlog.Turn{
		{Direction: chatlog.DirectionSent, Content: `PEDIDO: \A100 \2 \B200 \3`},
		{Direction: chatlog.DirectionReceived, Content: "Es correcto"},
	}
	llm := &scriptedLLM{classify: `{ "order": true }`}
	action, err := Decide(context.Background(), llm, "Ana", history, "Es correcto")
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if action.Kind != ActionNotifyConfirmedOrder {
		t.Fatalf("expected ActionNotifyConfirmedOrder, got %v", action.Kind)
	}
	if !strings.Contains(action.ConfirmedText, "A100") {
		t.Errorf("confirmed text should be the summary, got %q", action.ConfirmedText)
	}
}

func TestDecideConfirmationWithoutSummaryIsSilent(t *testing.T) {
	history := []chatlog.Turn{
		{Direction: chatlog.DirectionReceived, Content: "Es correcto"},
	}
	llm := &scriptedLLM{classify: `{ "order": true }`}
	action, err := Decide(context.Background(), llm, "Ana", history, "Es correcto")
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if action.Kind != ActionNone {
		t.Fatalf("scanner miss must be a silent no-op, got %v", action.Kind)
	}
	if len(llm.prompts) != 1 {
		t.Errorf("confirmation path should not run extra prompts, got %d", len(llm.prompts))
	}
}

func TestDecideClassificationError(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("boom")}
	if _, err := Decide(context.Background(), llm, "Ana", nil, "hola"); err == nil {
		t.Fatal("expected error from failed classification")
	}
}

func TestHistoryTextLabels(t *testing.T) {
	history := []chatlog.Turn{
		{Direction: chatlog.DirectionReceived, Content: "ponme dos del A100"},
		{Direction: chatlog.DirectionSent, Content: "Anotado"},
		{Direction: chatlog.DirectionReceived, Content: ""},
	}
	got := HistoryText(history)
	want := "Cliente: ponme dos del A100\nComercial: Anotado"
	if got != want {
		t.Errorf("HistoryText = %q, want %q", got, want)
	}
}
