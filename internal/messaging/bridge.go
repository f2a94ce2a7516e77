package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kapalua/ordersbot/internal/conversation"
	"github.com/kapalua/ordersbot/pkg/logging"
)

var bridgeTracer = otel.Tracer("ordersbot.internal.messaging.bridge")

const sendAttempts = 3

// BridgeClient talks to the WhatsApp bridge's HTTP API. The bridge owns
// the device sessions; this client only addresses messages by the manager
// phone whose device should send them.
type BridgeClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewBridgeClient builds a transport against the bridge at baseURL.
func NewBridgeClient(baseURL string, logger *logging.Logger) *BridgeClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &BridgeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

var _ conversation.Transport = (*BridgeClient)(nil)

// SendText posts a text message, retrying transient failures.
func (c *BridgeClient) SendText(ctx context.Context, to, from, text string) error {
	if to == "" {
		return errors.New("messaging: to required")
	}
	if from == "" {
		return errors.New("messaging: from required")
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("messaging: text required")
	}

	ctx, span := bridgeTracer.Start(ctx, "messaging.bridge.send_text")
	defer span.End()
	span.SetAttributes(
		attribute.String("ordersbot.to", to),
		attribute.String("ordersbot.from", from),
	)

	payload, err := json.Marshal(map[string]string{
		"to":   to,
		"from": from,
		"text": text,
	})
	if err != nil {
		return fmt.Errorf("messaging: marshal send payload: %w", err)
	}

	err = c.post(ctx, c.baseURL+"/send/text", func() (io.Reader, string, error) {
		return bytes.NewReader(payload), "application/json", nil
	})
	if err != nil {
		span.RecordError(err)
		c.logger.Error("failed to send text via bridge", "error", err, "to", to)
		return fmt.Errorf("messaging: send text: %w", err)
	}
	c.logger.Info("text sent via bridge", "to", to, "from", from)
	return nil
}

// SendFile uploads a file from the local filesystem as a document message.
func (c *BridgeClient) SendFile(ctx context.Context, to, from, path string) error {
	if to == "" {
		return errors.New("messaging: to required")
	}
	if from == "" {
		return errors.New("messaging: from required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("messaging: read file: %w", err)
	}

	ctx, span := bridgeTracer.Start(ctx, "messaging.bridge.send_file")
	defer span.End()
	span.SetAttributes(
		attribute.String("ordersbot.to", to),
		attribute.String("ordersbot.filename", filepath.Base(path)),
	)

	// Each attempt gets a fresh multipart body; the writer's boundary is
	// random per build, so the content type must come from the same writer
	// that produced the body it accompanies.
	build := func() (io.Reader, string, error) {
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		for field, value := range map[string]string{"to": to, "from": from, "filename": filepath.Base(path)} {
			if err := w.WriteField(field, value); err != nil {
				return nil, "", fmt.Errorf("messaging: write field %s: %w", field, err)
			}
		}
		part, err := w.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			return nil, "", fmt.Errorf("messaging: create form file: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", fmt.Errorf("messaging: write form file: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("messaging: close multipart: %w", err)
		}
		return body, w.FormDataContentType(), nil
	}

	err = c.post(ctx, c.baseURL+"/send/file", build)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("failed to send file via bridge", "error", err, "to", to, "path", path)
		return fmt.Errorf("messaging: send file: %w", err)
	}
	c.logger.Info("file sent via bridge", "to", to, "file", filepath.Base(path))
	return nil
}

// post issues the request up to sendAttempts times, rebuilding the body
// and its content type together per attempt. Non-2xx responses count as
// failures.
func (c *BridgeClient) post(ctx context.Context, url string, body func() (io.Reader, string, error)) error {
	var lastErr error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		reader, contentType, err := body()
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			lastErr = fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}

		if attempt < sendAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(200+rand.Intn(300)) * time.Millisecond):
			}
		}
	}
	return lastErr
}
