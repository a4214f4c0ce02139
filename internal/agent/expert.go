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

	"medisim/internal/config"
	"medisim/internal/platform/metrics"
)

const expertPrompt = `You are an experienced clinician. Read this doctor-patient interview and give, in at most
three sentences, the most likely diagnosis and the key question or examination that was missing.

%s`

// Expert asks a locally hosted model, served through an Ollama-compatible
// /api/generate endpoint, for a second opinion on a consultation.
type Expert struct {
	url        string
	model      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     logrus.FieldLogger
	metrics    *metrics.Metrics
}

func NewExpert(cfg config.ExpertConfig, logger logrus.FieldLogger, m *metrics.Metrics) *Expert {
	return &Expert{
		url:   strings.TrimRight(cfg.URL, "/") + "/api/generate",
		model: cfg.Model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		breaker: newBreaker("expert", logger),
		logger:  logger,
		metrics: m,
	}
}

type expertRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type expertResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (e *Expert) Advise(ctx context.Context, conversation string) (string, error) {
	started := time.Now()
	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.post(ctx, conversation)
	})
	e.metrics.ObserveLLM("expert", started, err)
	if err != nil {
		e.logger.WithError(err).Debug("Expert call failed")
		return "", err
	}
	return result.(string), nil
}

func (e *Expert) post(ctx context.Context, conversation string) (string, error) {
	jsonBody, err := json.Marshal(expertRequest{
		Model:  e.model,
		Prompt: fmt.Sprintf(expertPrompt, conversation),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("expert API error: %s - %s", resp.Status, string(body))
	}

	var out expertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding expert response: %w", err)
	}
	if out.Error != "" {
		return "", errors.New(out.Error)
	}
	return strings.TrimSpace(out.Response), nil
}
