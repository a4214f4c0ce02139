package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"medisim/internal/config"
	"medisim/internal/platform/metrics"
)

var (
	ErrEmptyResponse = errors.New("model returned no text")
	ErrBlocked       = errors.New("model refused the prompt")
)

// Gemini talks to the generateContent REST endpoint. One client serves the
// persona, the tutor and content generation; calls share a rate limiter and
// a circuit breaker.
type Gemini struct {
	baseURL    string
	apiKey     string
	models     config.LLMModels
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     logrus.FieldLogger
	metrics    *metrics.Metrics
}

func NewGemini(cfg config.LLMConfig, logger logrus.FieldLogger, m *metrics.Metrics) *Gemini {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Gemini{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		models:  cfg.Models,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), burst),
		breaker: newBreaker("gemini", logger),
		logger:  logger,
		metrics: m,
	}
}

func newBreaker(name string, logger logrus.FieldLogger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// schema is the OpenAPI subset accepted as responseSchema.
type schema struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]schema `json:"properties,omitempty"`
	Items       *schema           `json:"items,omitempty"`
	Required    []string          `json:"required,omitempty"`
	Enum        []string          `json:"enum,omitempty"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	TopP             float64 `json:"topP,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func system(text string) *content {
	return &content{Parts: []part{{Text: text}}}
}

func userTurn(text string) content {
	return content{Role: "user", Parts: []part{{Text: text}}}
}

// generate runs one generateContent call and returns the concatenated text
// of the first candidate.
func (g *Gemini) generate(ctx context.Context, operation, model string, req generateRequest) (string, error) {
	started := time.Now()
	text, err := g.call(ctx, model, req)
	g.metrics.ObserveLLM(operation, started, err)
	if err != nil {
		g.logger.WithError(err).WithFields(logrus.Fields{
			"operation": operation,
			"model":     model,
		}).Warn("Gemini call failed")
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	return text, nil
}

func (g *Gemini) call(ctx context.Context, model string, req generateRequest) (string, error) {
	if g.apiKey == "" {
		return "", errors.New("gemini api key is not configured")
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.post(ctx, model, req)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (g *Gemini) post(ctx context.Context, model string, body generateRequest) (string, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s:generateContent", g.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("gemini API error: %s - %s", resp.Status, apiErr.Error.Message)
		}
		return "", fmt.Errorf("gemini API error: %s", resp.Status)
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decoding gemini response: %w", err)
	}
	if out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
