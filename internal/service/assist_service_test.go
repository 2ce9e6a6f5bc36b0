package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/knowledge"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type stubAnswerer struct {
	question string
	kb       knowledge.Context
	answer   string
	err      error
	calls    int
}

func (s *stubAnswerer) GenerateAnswer(_ context.Context, question string, kb knowledge.Context) (string, error) {
	s.calls++
	s.question = question
	s.kb = kb
	return s.answer, s.err
}

type failingSource struct{}

func (failingSource) Sample(context.Context, *string, int) ([]domain.FAQEntry, error) {
	return nil, errors.New("connection refused")
}

func newAssist(source knowledge.Source, answerer *stubAnswerer, includePriority bool) *AssistService {
	return NewAssistService(knowledge.NewRetriever(source, nil, 10, nil), answerer, includePriority, nil)
}

func TestSuggest_ReturnsAnswerAndPriority(t *testing.T) {
	catalog := newMemoryCatalog()
	_ = memoryFAQ{catalog}.Create(context.Background(), &domain.FAQEntry{Question: "Wi-Fi", Answer: "Reinicie"})
	answerer := &stubAnswerer{answer: "Reinicie o roteador."}
	svc := newAssist(memoryFAQ{catalog}, answerer, true)

	got, err := svc.Suggest(context.Background(), SuggestInput{Question: "  Sistema travado  "})
	require.NoError(t, err)
	assert.Equal(t, "Reinicie o roteador.", got.Answer)
	assert.Equal(t, domain.TicketPriorityUrgent, got.Priority)
	assert.Equal(t, "Sistema travado", answerer.question)
	assert.Equal(t, 1, answerer.kb.Len())
}

func TestSuggest_PriorityOmittedWhenDisabled(t *testing.T) {
	svc := newAssist(memoryFAQ{newMemoryCatalog()}, &stubAnswerer{answer: "ok"}, false)

	got, err := svc.Suggest(context.Background(), SuggestInput{Question: "problema"})
	require.NoError(t, err)
	assert.Empty(t, got.Priority)
}

func TestSuggest_StoreFailureStillAsksProvider(t *testing.T) {
	answerer := &stubAnswerer{answer: "ok"}
	svc := newAssist(failingSource{}, answerer, true)

	_, err := svc.Suggest(context.Background(), SuggestInput{Question: "Senha"})
	require.NoError(t, err)
	assert.Equal(t, 1, answerer.calls)
	assert.Equal(t, 0, answerer.kb.Len())
}

func TestSuggest_PropagatesProviderErrors(t *testing.T) {
	answerer := &stubAnswerer{err: apperrors.NewRateLimited("slow down")}
	svc := newAssist(memoryFAQ{newMemoryCatalog()}, answerer, true)

	_, err := svc.Suggest(context.Background(), SuggestInput{Question: "Senha"})
	assert.True(t, apperrors.IsCode(err, "RATE_LIMITED"))
}

func TestSuggest_RequiresQuestion(t *testing.T) {
	answerer := &stubAnswerer{}
	svc := newAssist(memoryFAQ{newMemoryCatalog()}, answerer, true)

	_, err := svc.Suggest(context.Background(), SuggestInput{Question: "   "})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	assert.Zero(t, answerer.calls)
}
