// Package assistant drafts answers to ticket questions with a chat-completion provider.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/knowledge"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// User-facing messages for provider failures.
const (
	RateLimitedMessage       = "Limite de requisições excedido. Tente novamente em alguns instantes."
	QuotaExceededMessage     = "Créditos insuficientes. Entre em contato com o administrador."
	UpstreamFailureMessage   = "Erro ao processar resposta da IA"
	MissingCredentialMessage = "LOVABLE_API_KEY não configurada"
)

// Answerer produces a free-text answer for a question grounded in kb.
type Answerer interface {
	GenerateAnswer(ctx context.Context, question string, kb knowledge.Context) (string, error)
}

// StatusError is returned by the transport for non-2xx provider responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion provider returned %d: %s", e.StatusCode, e.Body)
}

// statusDoer turns non-2xx responses into *StatusError before the SDK decodes them.
type statusDoer struct {
	client *http.Client
}

func (d *statusDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}

// Generator calls an OpenAI-compatible chat-completion endpoint.
type Generator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewGenerator builds a generator. Without an API key every call fails with
// a configuration error.
func NewGenerator(cfg config.AIConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Generator{model: cfg.Model, logger: logger}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return g
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &statusDoer{client: &http.Client{Timeout: cfg.Timeout()}}
	g.client = openai.NewClientWithConfig(clientCfg)
	return g
}

// GenerateAnswer sends the system instruction and the raw question. An empty
// knowledge base still results in a provider call.
func (g *Generator) GenerateAnswer(ctx context.Context, question string, kb knowledge.Context) (string, error) {
	if g.client == nil {
		return "", apperrors.NewConfigurationError(MissingCredentialMessage)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(kb)},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		return "", g.mapError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		g.logger.Error("completion provider returned no content", zap.String("model", g.model))
		return "", apperrors.NewUpstreamError(UpstreamFailureMessage, errors.New("empty completion"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *Generator) mapError(err error) error {
	status, body := providerStatus(err)
	switch status {
	case http.StatusTooManyRequests:
		g.logger.Warn("completion provider rate limited")
		return apperrors.NewRateLimited(RateLimitedMessage)
	case http.StatusPaymentRequired:
		g.logger.Warn("completion provider credits exhausted")
		return apperrors.NewQuotaExceeded(QuotaExceededMessage)
	}
	g.logger.Error("completion request failed",
		zap.Int("status", status),
		zap.String("body", body),
		zap.Error(err))
	return apperrors.NewUpstreamError(UpstreamFailureMessage, err)
}

func providerStatus(err error) (int, string) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, statusErr.Body
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, apiErr.Message
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, ""
	}
	return 0, ""
}
