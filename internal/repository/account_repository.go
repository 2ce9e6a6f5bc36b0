package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AccountRepository persists authentication records and their profiles.
type AccountRepository interface {
	// CreateWithProfile inserts the account and its profile atomically. The
	// profile id is taken from the new account.
	CreateWithProfile(ctx context.Context, account *domain.Account, profile *domain.Profile) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) CreateWithProfile(ctx context.Context, account *domain.Account, profile *domain.Profile) error {
	const insertAccount = `
        INSERT INTO accounts (email, password_hash, email_confirmed_at, metadata)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	const insertProfile = `
        INSERT INTO profiles (id, nome, curso, papel, setor)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at`

	metadata := account.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insertAccount,
			account.Email,
			account.PasswordHash,
			account.EmailConfirmedAt,
			metadata,
		).Scan(&account.ID, &account.CreatedAt); err != nil {
			return err
		}
		profile.ID = account.ID
		return tx.QueryRow(ctx, insertProfile,
			profile.ID,
			profile.Name,
			profile.Program,
			profile.Role,
			profile.Department,
		).Scan(&profile.CreatedAt)
	})
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `
        SELECT id, email, password_hash, email_confirmed_at, metadata, created_at
        FROM accounts WHERE lower(email)=lower($1)`
	return scanAccount(r.pool.QueryRow(ctx, query, email))
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	const query = `
        SELECT id, email, password_hash, email_confirmed_at, metadata, created_at
        FROM accounts WHERE id=$1`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.EmailConfirmedAt,
		&account.Metadata,
		&account.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}
