package service

import (
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const lockedTicketMessage = "chamado encerrado não aceita alterações"

// storeError converts repository errors into domain errors naming resource.
func storeError(resource string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrStaleTicket):
		return apperrors.NewConflict(lockedTicketMessage, nil)
	default:
		return apperrors.MapError(err)
	}
}
