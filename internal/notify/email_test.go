package notify

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func TestNewSendGridSenderRequiresAPIKey(t *testing.T) {
	if s := NewSendGridSender(SendGridConfig{FromEmail: "bot@kapalua.example"}, nil); s != nil {
		t.Error("expected nil sender without an api key")
	}
	if s := NewSendGridSender(SendGridConfig{APIKey: "SG.test", FromEmail: "bot@kapalua.example"}, nil); s == nil {
		t.Error("expected a sender with an api key")
	}
}

func TestBuildAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pedido.xlsx")
	if err := os.WriteFile(path, []byte("sheet-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := buildAttachment(path)
	if err != nil {
		t.Fatalf("buildAttachment: %v", err)
	}
	if a.Filename != "pedido.xlsx" {
		t.Errorf("filename = %q", a.Filename)
	}
	if a.Disposition != "attachment" {
		t.Errorf("disposition = %q", a.Disposition)
	}
	decoded, err := base64.StdEncoding.DecodeString(a.Content)
	if err != nil {
		t.Fatalf("content is not base64: %v", err)
	}
	if string(decoded) != "sheet-bytes" {
		t.Errorf("decoded content = %q", decoded)
	}
}

func TestBuildAttachmentUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.qqq")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := buildAttachment(path)
	if err != nil {
		t.Fatalf("buildAttachment: %v", err)
	}
	if a.Type != "application/octet-stream" {
		t.Errorf("type = %q, want octet-stream fallback", a.Type)
	}
}

func TestBuildAttachmentMissingFile(t *testing.T) {
	if _, err := buildAttachment("/does/not/exist.xlsx"); err == nil {
		t.Fatal("expected error for missing attachment")
	}
}

func TestStubEmailSender(t *testing.T) {
	s := NewStubEmailSender(nil)
	if err := s.Send(context.Background(), EmailMessage{To: "a@b.c", Subject: "x"}); err != nil {
		t.Fatalf("stub sender should never fail: %v", err)
	}
}
