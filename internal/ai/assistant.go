package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/palmyard/backend/internal/analytics"
)

const systemPrompt = `You are an operations analyst for a palm-oil mill weighbridge.
Write a short briefing (max 5 sentences) for the receiving supervisor from the JSON context.
Mention intake versus target, fruit quality (BJR, kg per bunch) and how upcoming weather may affect supply.
Use only the numbers provided.`

// OpenAICompatNarrator calls a chat-completions endpoint. Identical
// contexts within cacheTTL reuse the previous answer.
type OpenAICompatNarrator struct {
	BaseURL   string
	Model     string
	APIKey    string
	MaxTokens int
	Client    *http.Client
}

var (
	cacheMu    sync.Mutex
	cacheStore = map[string]cacheEntry{}
	cacheTTL   = 60 * time.Second
)

type cacheEntry struct {
	value string
	exp   time.Time
}

type RateLimitError struct {
	RetryAfter time.Duration
}

func (r RateLimitError) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", r.RetryAfter)
	}
	return "rate limited"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (a OpenAICompatNarrator) Narrate(ctx context.Context, in analytics.InsightContext) (Insight, error) {
	if strings.TrimSpace(a.BaseURL) == "" {
		return Insight{}, fmt.Errorf("AI_URL is not set")
	}
	if strings.TrimSpace(a.Model) == "" {
		return Insight{}, fmt.Errorf("AI_MODEL is not set")
	}

	contextJSON, err := json.Marshal(in)
	if err != nil {
		return Insight{}, err
	}
	prompt := string(contextJSON)
	if v, ok := cacheGet(a.Model + "|" + prompt); ok {
		return Insight{Text: v, ModelVersion: a.Model}, nil
	}

	payload := struct {
		Model     string        `json:"model"`
		MaxTokens int           `json:"max_tokens,omitempty"`
		Messages  []chatMessage `json:"messages"`
	}{
		Model:     a.Model,
		MaxTokens: a.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	b, _ := json.Marshal(payload)
	url := strings.TrimRight(a.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return Insight{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(a.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+a.APIKey)
	}

	client := a.Client
	if client == nil {
		timeout := 45 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
				timeout = remaining
			}
		}
		client = &http.Client{Timeout: timeout}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Insight{}, fmt.Errorf("insight request timed out")
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return Insight{}, fmt.Errorf("insight request timed out")
		}
		return Insight{}, fmt.Errorf("insight request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if resp.StatusCode == http.StatusTooManyRequests {
			return Insight{}, RateLimitError{RetryAfter: retryAfter(resp.Header.Get("Retry-After"), errBody)}
		}
		return Insight{}, fmt.Errorf("insight http error: %s: %v", resp.Status, errBody)
	}

	var res struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Insight{}, err
	}
	if len(res.Choices) == 0 {
		return Insight{}, fmt.Errorf("empty insight response")
	}
	answer := strings.TrimSpace(res.Choices[0].Message.Content)
	cacheSet(a.Model+"|"+prompt, answer)

	model := res.Model
	if model == "" {
		model = a.Model
	}
	return Insight{Text: answer, ModelVersion: model, LatencyMs: time.Since(start).Milliseconds()}, nil
}

func cacheGet(key string) (string, bool) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if e, ok := cacheStore[key]; ok {
		if time.Now().Before(e.exp) {
			return e.value, true
		}
		delete(cacheStore, key)
	}
	return "", false
}

func cacheSet(key, value string) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cacheStore[key] = cacheEntry{
		value: value,
		exp:   time.Now().Add(cacheTTL),
	}
}

// retryAfter prefers the Retry-After header (seconds) and falls back to a
// RetryInfo detail in the error body.
func retryAfter(header string, errBody map[string]any) time.Duration {
	if header != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(header) + "s"); err == nil {
			return d
		}
	}
	errObj, ok := errBody["error"].(map[string]any)
	if !ok {
		return 0
	}
	details, ok := errObj["details"].([]any)
	if !ok {
		return 0
	}
	for _, d := range details {
		m, ok := d.(map[string]any)
		if !ok {
			continue
		}
		if t, ok := m["@type"].(string); ok && strings.Contains(t, "RetryInfo") {
			if s, ok := m["retryDelay"].(string); ok {
				if dur, err := time.ParseDuration(s); err == nil {
					return dur
				}
			}
		}
	}
	return 0
}
