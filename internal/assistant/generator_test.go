package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/knowledge"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type capturedRequest struct {
	Path          string
	Authorization string
	Body          struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
}

func newProvider(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.Path = r.URL.Path
			captured.Authorization = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&captured.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGenerator(baseURL string) *Generator {
	return NewGenerator(config.AIConfig{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Model:      "google/gemini-2.5-flash",
		TimeoutSec: 5,
	}, nil)
}

const okCompletion = `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Reinicie o roteador."},"finish_reason":"stop"}]}`

func TestGenerateAnswer_SendsTwoTurnsWithKnowledge(t *testing.T) {
	var captured capturedRequest
	srv := newProvider(t, http.StatusOK, okCompletion, &captured)
	gen := newTestGenerator(srv.URL)

	kb := knowledge.NewContext(
		knowledge.Pair{Question: "Wi-Fi caiu", Answer: "Reinicie o roteador."},
		knowledge.Pair{Question: "Senha", Answer: "Use o portal."},
	)
	answer, err := gen.GenerateAnswer(context.Background(), "Sem internet", kb)
	require.NoError(t, err)
	assert.Equal(t, "Reinicie o roteador.", answer)

	assert.Equal(t, "/chat/completions", captured.Path)
	assert.Equal(t, "Bearer test-key", captured.Authorization)
	assert.Equal(t, "google/gemini-2.5-flash", captured.Body.Model)
	require.Len(t, captured.Body.Messages, 2)
	assert.Equal(t, "system", captured.Body.Messages[0].Role)
	assert.Contains(t, captured.Body.Messages[0].Content, "Q: Wi-Fi caiu\nA: Reinicie o roteador.\n\nQ: Senha\nA: Use o portal.")
	assert.Equal(t, "user", captured.Body.Messages[1].Role)
	assert.Equal(t, "Sem internet", captured.Body.Messages[1].Content)
}

func TestGenerateAnswer_EmptyKnowledgeStillCallsProvider(t *testing.T) {
	var captured capturedRequest
	srv := newProvider(t, http.StatusOK, okCompletion, &captured)
	gen := newTestGenerator(srv.URL)

	_, err := gen.GenerateAnswer(context.Background(), "pergunta", knowledge.Context{})
	require.NoError(t, err)
	require.Len(t, captured.Body.Messages, 2)
	assert.Contains(t, captured.Body.Messages[0].Content, "Base de conhecimento:\n\n\nDiretrizes:")
}

func TestGenerateAnswer_MapsProviderStatus(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, "RATE_LIMITED", RateLimitedMessage},
		{"quota", http.StatusPaymentRequired, `payment required`, "QUOTA_EXCEEDED", QuotaExceededMessage},
		{"server error", http.StatusInternalServerError, `boom`, "UPSTREAM_ERROR", UpstreamFailureMessage},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad model"}}`, "UPSTREAM_ERROR", UpstreamFailureMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newProvider(t, tc.status, tc.body, nil)
			gen := newTestGenerator(srv.URL)

			_, err := gen.GenerateAnswer(context.Background(), "q", knowledge.Context{})
			require.Error(t, err)
			de := apperrors.ToDomainError(err)
			assert.Equal(t, tc.code, de.Code)
			assert.Equal(t, tc.message, de.Message)
		})
	}
}

func TestGenerateAnswer_EmptyChoicesIsUpstreamError(t *testing.T) {
	srv := newProvider(t, http.StatusOK, `{"id":"c1","choices":[]}`, nil)
	gen := newTestGenerator(srv.URL)

	_, err := gen.GenerateAnswer(context.Background(), "q", knowledge.Context{})
	assert.True(t, apperrors.IsCode(err, "UPSTREAM_ERROR"))
}

func TestGenerateAnswer_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestGenerator(url).GenerateAnswer(context.Background(), "q", knowledge.Context{})
	assert.True(t, apperrors.IsCode(err, "UPSTREAM_ERROR"))
}

func TestGenerateAnswer_MissingCredential(t *testing.T) {
	gen := NewGenerator(config.AIConfig{Model: "m"}, nil)

	_, err := gen.GenerateAnswer(context.Background(), "q", knowledge.Context{})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFIGURATION_ERROR", de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
}

func TestSystemPrompt_ContainsPolicy(t *testing.T) {
	prompt := SystemPrompt(knowledge.Context{})
	assert.True(t, strings.HasPrefix(prompt, "Você é um assistente de suporte técnico especializado."))
	assert.Contains(t, prompt, "sugira abrir um chamado específico")
	assert.Contains(t, prompt, "concisas")
}
