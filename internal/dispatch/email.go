package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bonjourarcade/internal/compose"
	"bonjourarcade/pkg/logx"
)

// broadcastPayload is the ConvertKit v3 broadcast creation body. The
// send_at a minute out schedules immediate delivery while leaving a
// short window to cancel a bad run from the provider dashboard.
type broadcastPayload struct {
	APISecret   string `json:"api_secret"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	SendAt      string `json:"send_at"`
	Content     string `json:"content"`
}

func (d *Dispatcher) sendEmail(ctx context.Context, content compose.Content, secret string) error {
	sendAt := d.now().UTC().Add(time.Minute).Format("2006-01-02T15:04:05Z")
	payload := broadcastPayload{
		APISecret:   secret,
		Description: content.Description,
		Subject:     content.Subject,
		SendAt:      sendAt,
		Content:     content.HTMLBody,
	}

	url := d.mailAPI + "/broadcasts"
	if d.dryRun {
		d.log.Info("dry run, broadcast not created",
			logx.String("url", url),
			logx.String("subject", content.Subject),
			logx.String("send_at", sendAt))
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode broadcast: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build broadcast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("create broadcast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Surface the provider's error body; it names the bad field.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("create broadcast: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	d.log.Info("broadcast scheduled",
		logx.String("subject", content.Subject),
		logx.String("send_at", sendAt))
	return nil
}
