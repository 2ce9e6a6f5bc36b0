package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ResponseRepository reads ticket threads. Writes go through
// TicketRepository.AppendResponse so they share the ticket's transaction.
type ResponseRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Response, error)
}

type responseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository builds repository.
func NewResponseRepository(pool *pgxpool.Pool) ResponseRepository {
	return &responseRepository{pool: pool}
}

func insertResponse(ctx context.Context, q querier, resp *domain.Response) error {
	const query = `
        INSERT INTO respostas (chamado_id, usuario_id, mensagem, is_ia)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return q.QueryRow(ctx, query,
		resp.TicketID,
		resp.AuthorID,
		resp.Message,
		resp.IsAI,
	).Scan(&resp.ID, &resp.CreatedAt)
}

func (r *responseRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Response, error) {
	const query = `
        SELECT r.id, r.chamado_id, r.usuario_id, p.nome, r.mensagem, r.is_ia, r.created_at
        FROM respostas r
        LEFT JOIN profiles p ON p.id = r.usuario_id
        WHERE r.chamado_id=$1
        ORDER BY r.created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Response{}
	for rows.Next() {
		var resp domain.Response
		if err := rows.Scan(
			&resp.ID,
			&resp.TicketID,
			&resp.AuthorID,
			&resp.AuthorName,
			&resp.Message,
			&resp.IsAI,
			&resp.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, resp)
	}
	return result, rows.Err()
}
