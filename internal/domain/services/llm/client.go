// Package llm talks to the language model used for intent classification and
// for narrating an analysis in plain English and Hindi.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dhankavach/internal/domain/models"
	"dhankavach/pkg/logger"
)

// Providers
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Config holds LLM client configuration
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
}

// Client calls a local Ollama server or the Gemini API
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	config     Config
}

// NewClient creates a client, filling provider defaults
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}

	switch cfg.Provider {
	case ProviderOllama:
		if cfg.Model == "" {
			cfg.Model = "llama3.2"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434"
		}
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an api key")
		}
		if cfg.Model == "" {
			cfg.Model = "gemini-2.0-flash"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://generativelanguage.googleapis.com"
		}
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.WithComponent("llm-client"),
		config:     cfg,
	}, nil
}

// Chat sends one system and one user turn and returns the model's text
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	switch c.config.Provider {
	case ProviderGemini:
		return c.callGemini(ctx, system, user)
	default:
		return c.callOllama(ctx, system, user)
	}
}

const classifySystemPrompt = `You route requests for an Indian fraud-safety assistant.
Classify the user's input into exactly one agent:
- "transaction_safety": the user wants to send or pay money to someone
- "document_analyzer": the input is a document such as a loan offer, policy or agreement
- "scam_detector": the input is a forwarded SMS, WhatsApp or e-mail message
- "advisor": a general question about safe banking practice, or anything unclear
Reply with JSON only: {"agent": "<one of the four>"}`

// ClassifyIntent asks the model which agent should handle text
func (c *Client) ClassifyIntent(ctx context.Context, text string) (string, error) {
	content, err := c.Chat(ctx, classifySystemPrompt, text)
	if err != nil {
		return "", fmt.Errorf("failed to classify intent: %w", err)
	}

	var out struct {
		Agent string `json:"agent"`
	}
	if err := parseJSON(content, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Agent), nil
}

const narrateSystemPrompt = `You explain fraud-risk findings to Indian families who may not be technical.
You receive a JSON analysis with a verdict, risk score and signals. Do not change the verdict.
Write two short paragraphs: first in simple English, then the same advice in Hindi (Devanagari).
If is_connected is true, say clearly that this number or ID was flagged before.`

// Narrate turns a structured result into a bilingual explanation
func (c *Client) Narrate(ctx context.Context, result models.AnalysisResult) (string, error) {
	payload, err := json.Marshal(struct {
		Verdict        models.Verdict        `json:"verdict"`
		Recommendation models.Recommendation `json:"recommendation"`
		RiskScore      int                   `json:"risk_score"`
		IsConnected    bool                  `json:"is_connected"`
		Signals        []models.Signal       `json:"signals"`
	}{result.Verdict, result.Recommendation, result.RiskScore, result.IsConnected, result.Signals})
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis: %w", err)
	}

	text, err := c.Chat(ctx, narrateSystemPrompt, string(payload))
	if err != nil {
		return "", fmt.Errorf("failed to narrate analysis: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) callOllama(ctx context.Context, system, user string) (string, error) {
	reqBody := map[string]any{
		"model": c.config.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"stream":  false,
		"options": map[string]any{"temperature": c.config.Temperature},
	}

	body, err := c.post(ctx, c.config.BaseURL+"/api/chat", reqBody, nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return resp.Message.Content, nil
}

func (c *Client) callGemini(ctx context.Context, system, user string) (string, error) {
	reqBody := map[string]any{
		"systemInstruction": map[string]any{
			"parts": []map[string]string{{"text": system}},
		},
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]string{{"text": user}}},
		},
		"generationConfig": map[string]any{"temperature": c.config.Temperature},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.config.BaseURL, c.config.Model)
	body, err := c.post(ctx, url, reqBody, map[string]string{"x-goog-api-key": c.config.APIKey})
	if err != nil {
		return "", err
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func (c *Client) post(ctx context.Context, url string, payload any, headers map[string]string) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.config.Provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s API error %d: %s", c.config.Provider, resp.StatusCode, string(body))
	}
	return body, nil
}

// parseJSON pulls the first JSON object out of a model reply, which may be
// wrapped in a markdown fence or surrounded by prose
func parseJSON(content string, dest any) error {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		content = content[start : end+1]
	}

	if err := json.Unmarshal([]byte(content), dest); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
