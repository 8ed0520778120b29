package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"bonjourarcade/internal/compose"
	"bonjourarcade/pkg/logx"
)

// sendWebhook posts the plain body to a chat webhook. The secret is the
// webhook URL itself. Discord and Google Chat differ only in the JSON
// field name and the bold markup convention.
func (d *Dispatcher) sendWebhook(ctx context.Context, content compose.Content, ch Channel, url string) error {
	text := compose.WithBold(content.PlainBody, boldFor(ch.Spec.Type))

	var payload any
	switch ch.Spec.Type {
	case TypeDiscord:
		payload = map[string]string{"content": text}
	case TypeGoogleChat:
		payload = map[string]string{"text": text}
	default:
		return fmt.Errorf("not a webhook channel type: %s", ch.Spec.Type)
	}

	if d.dryRun {
		d.log.Info("dry run, webhook not called",
			logx.String("channel", ch.Label),
			logx.String("type", string(ch.Spec.Type)))
		return nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("post webhook: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}
