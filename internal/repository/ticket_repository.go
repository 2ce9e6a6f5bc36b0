package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures listing parameters. A nil OwnerID lists every ticket.
type TicketFilter struct {
	OwnerID     *string
	Statuses    []domain.TicketStatus
	CategoryID  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes the ticket and, when change is non-nil, its audit entry in
	// one transaction.
	Update(ctx context.Context, ticket *domain.Ticket, change *domain.StatusChange) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Delete(ctx context.Context, id, ownerID string) error
	// AppendResponse stores resp and, when ticket is non-nil, the ticket's
	// new state in one transaction.
	AppendResponse(ctx context.Context, resp *domain.Response, ticket *domain.Ticket, change *domain.StatusChange) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, numero_chamado, nome_aluno, ra, email, curso, categoria_id, titulo, descricao,
               prioridade, status, setor_responsavel, usuario_id, resposta_ia, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO chamados (nome_aluno, ra, email, curso, categoria_id, titulo, descricao, prioridade, status, usuario_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, numero_chamado, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Requester.Name,
		ticket.Requester.RegistrationID,
		ticket.Requester.Email,
		ticket.Requester.Program,
		ticket.CategoryID,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.OwnerID,
	).Scan(&ticket.ID, &ticket.Number, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket, change *domain.StatusChange) error {
	if change == nil {
		return updateTicket(ctx, r.pool, ticket)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := updateTicket(ctx, tx, ticket); err != nil {
			return err
		}
		return insertStatusChange(ctx, tx, change)
	})
}

// updateTicket writes the mutable columns unless the stored row is already terminal.
func updateTicket(ctx context.Context, q querier, ticket *domain.Ticket) error {
	const query = `
        UPDATE chamados SET categoria_id=$1, titulo=$2, descricao=$3, prioridade=$4, status=$5,
            setor_responsavel=$6, resposta_ia=$7, updated_at=NOW()
        WHERE id=$8 AND status NOT IN ('Resolvido', 'Fechado')
        RETURNING updated_at`
	err := q.QueryRow(ctx, query,
		ticket.CategoryID,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.Department,
		ticket.AIAnswer,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStaleTicket
	}
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM chamados WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("usuario_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("categoria_id=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM chamados WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Delete(ctx context.Context, id, ownerID string) error {
	const query = `
        DELETE FROM chamados
        WHERE id=$1 AND usuario_id=$2 AND status NOT IN ('Resolvido', 'Fechado')`
	cmd, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleTicket
	}
	return nil
}

func (r *ticketRepository) AppendResponse(ctx context.Context, resp *domain.Response, ticket *domain.Ticket, change *domain.StatusChange) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertResponse(ctx, tx, resp); err != nil {
			return err
		}
		if ticket == nil {
			return nil
		}
		if err := updateTicket(ctx, tx, ticket); err != nil {
			return err
		}
		if change == nil {
			return nil
		}
		return insertStatusChange(ctx, tx, change)
	})
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Requester.Name,
		&ticket.Requester.RegistrationID,
		&ticket.Requester.Email,
		&ticket.Requester.Program,
		&ticket.CategoryID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Department,
		&ticket.OwnerID,
		&ticket.AIAnswer,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
