package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// FAQRepository stores knowledge base entries.
type FAQRepository interface {
	Create(ctx context.Context, entry *domain.FAQEntry) error
	GetByID(ctx context.Context, id string) (*domain.FAQEntry, error)
	List(ctx context.Context, categoryID *string) ([]domain.FAQEntry, error)
	// Sample returns up to limit entries: categoryID matches first, then the
	// most helpful, then the newest.
	Sample(ctx context.Context, categoryID *string, limit int) ([]domain.FAQEntry, error)
	IncrementViews(ctx context.Context, id string) error
	MarkHelpful(ctx context.Context, id string) (*domain.FAQEntry, error)
}

type faqRepository struct {
	pool *pgxpool.Pool
}

// NewFAQRepository builds the repository.
func NewFAQRepository(pool *pgxpool.Pool) FAQRepository {
	return &faqRepository{pool: pool}
}

const faqColumns = `id, categoria_id, pergunta, resposta, util, visualizacoes, created_at`

func (r *faqRepository) Create(ctx context.Context, entry *domain.FAQEntry) error {
	const query = `
        INSERT INTO faq (categoria_id, pergunta, resposta)
        VALUES ($1,$2,$3)
        RETURNING id, util, visualizacoes, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.CategoryID,
		entry.Question,
		entry.Answer,
	).Scan(&entry.ID, &entry.Helpful, &entry.Views, &entry.CreatedAt)
}

func (r *faqRepository) GetByID(ctx context.Context, id string) (*domain.FAQEntry, error) {
	query := `SELECT ` + faqColumns + ` FROM faq WHERE id=$1`
	return scanFAQ(r.pool.QueryRow(ctx, query, id))
}

func (r *faqRepository) List(ctx context.Context, categoryID *string) ([]domain.FAQEntry, error) {
	query := `SELECT ` + faqColumns + ` FROM faq`
	args := []any{}
	if categoryID != nil {
		args = append(args, *categoryID)
		query += " WHERE categoria_id=$1"
	}
	query += " ORDER BY util DESC, created_at DESC"
	return r.collect(ctx, query, args...)
}

func (r *faqRepository) Sample(ctx context.Context, categoryID *string, limit int) ([]domain.FAQEntry, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM faq
        ORDER BY COALESCE(categoria_id = $1::uuid, FALSE) DESC,
                 util DESC, created_at DESC
        LIMIT %d`, faqColumns, limit)
	return r.collect(ctx, query, categoryID)
}

func (r *faqRepository) IncrementViews(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE faq SET visualizacoes = visualizacoes + 1 WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *faqRepository) MarkHelpful(ctx context.Context, id string) (*domain.FAQEntry, error) {
	query := `UPDATE faq SET util = util + 1 WHERE id=$1 RETURNING ` + faqColumns
	return scanFAQ(r.pool.QueryRow(ctx, query, id))
}

func (r *faqRepository) collect(ctx context.Context, query string, args ...any) ([]domain.FAQEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.FAQEntry{}
	for rows.Next() {
		entry, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

func scanFAQ(row pgx.Row) (*domain.FAQEntry, error) {
	var entry domain.FAQEntry
	if err := row.Scan(
		&entry.ID,
		&entry.CategoryID,
		&entry.Question,
		&entry.Answer,
		&entry.Helpful,
		&entry.Views,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &entry, nil
}
