package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NtfyNotifier publishes to an ntfy topic.
type NtfyNotifier struct {
	server     string
	topic      string
	clickURL   string
	httpClient *http.Client
}

// NewNtfyNotifier creates a notifier for server/topic. clickURL is attached to
// messages that do not carry their own link.
func NewNtfyNotifier(server, topic, clickURL string) *NtfyNotifier {
	return &NtfyNotifier{
		server:     strings.TrimRight(server, "/"),
		topic:      topic,
		clickURL:   clickURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *NtfyNotifier) Notify(ctx context.Context, msg Message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.server+"/"+n.topic, strings.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("failed to create ntfy request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", msg.Title)
	click := msg.Click
	if click == "" {
		click = n.clickURL
	}
	if click != "" {
		req.Header.Set("Click", click)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to publish to ntfy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ntfy returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
