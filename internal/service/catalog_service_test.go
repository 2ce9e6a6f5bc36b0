package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestCatalog_FAQLifecycle(t *testing.T) {
	catalog := newMemoryCatalog()
	dispatcher := &recordingDispatcher{}
	svc := NewCatalogService(catalog, memoryFAQ{catalog}, dispatcher, nil)
	ctx := context.Background()

	_, err := svc.CreateFAQ(ctx, student, nil, "q", "a")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	entry, err := svc.CreateFAQ(ctx, staff, nil, "Como acessar o Wi-Fi?", "Use seu RA.")
	require.NoError(t, err)

	viewed, err := svc.ViewFAQ(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.Views)

	helpful, err := svc.MarkHelpful(ctx, student, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, helpful.Helpful)

	assert.Equal(t, []events.EventType{events.EventFAQChanged, events.EventFAQChanged}, dispatcher.types())

	_, err = svc.ViewFAQ(ctx, "missing")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestCatalog_Categories(t *testing.T) {
	catalog := newMemoryCatalog()
	svc := NewCatalogService(catalog, memoryFAQ{catalog}, nil, nil)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, staff, "  ", nil)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.CreateCategory(ctx, staff, "Rede", nil)
	require.NoError(t, err)
	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Rede", categories[0].Name)
}
