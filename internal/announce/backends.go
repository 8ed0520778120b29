package announce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openAIAPIURL    = "https://api.openai.com/v1/chat/completions"
	anthropicAPIURL = "https://api.anthropic.com/v1/messages"

	openAIModel = "gpt-4o-mini"
	claudeModel = "claude-3-haiku-20240307"

	maxTokens = 300
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

type openAIGenerator struct {
	apiKey string
	// URL overrides the endpoint (tests).
	URL string
}

func (g *openAIGenerator) Name() string { return "openai" }

func (g *openAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model": openAIModel,
		"messages": []map[string]string{
			{"role": "system", "content": "Tu es un expert en jeux vidéo rétro qui écrit des annonces en français."},
			{"role": "user", "content": prompt},
		},
		"max_tokens":  maxTokens,
		"temperature": 0.8,
	}
	url := g.URL
	if url == "" {
		url = openAIAPIURL
	}
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + g.apiKey}
	if err := postJSON(ctx, url, headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type claudeGenerator struct {
	apiKey string
	URL    string
}

func (g *claudeGenerator) Name() string { return "claude" }

func (g *claudeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":      claudeModel,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	url := g.URL
	if url == "" {
		url = anthropicAPIURL
	}
	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	headers := map[string]string{
		"x-api-key":         g.apiKey,
		"anthropic-version": "2023-06-01",
	}
	if err := postJSON(ctx, url, headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", errors.New("claude: empty content")
	}
	return resp.Content[0].Text, nil
}

func postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
