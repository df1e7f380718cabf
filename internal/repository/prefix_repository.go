package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/equipment-checkout/internal/domain"
)

// PrefixRepository stores the ordered identifier prefix table.
type PrefixRepository interface {
	List(ctx context.Context) ([]domain.PrefixRule, error)
	Create(ctx context.Context, rule *domain.PrefixRule) error
	Update(ctx context.Context, rule *domain.PrefixRule) error
	Delete(ctx context.Context, id string) error
}

type prefixRepository struct {
	pool *pgxpool.Pool
}

// NewPrefixRepository returns a Postgres-backed implementation.
func NewPrefixRepository(pool *pgxpool.Pool) PrefixRepository {
	return &prefixRepository{pool: pool}
}

func (r *prefixRepository) List(ctx context.Context) ([]domain.PrefixRule, error) {
	const query = `
        SELECT id, prefix, category, label, position
        FROM prefix_rules ORDER BY position ASC, prefix ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PrefixRule
	for rows.Next() {
		var rule domain.PrefixRule
		if err := rows.Scan(&rule.ID, &rule.Prefix, &rule.Category, &rule.Label, &rule.Position); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}

func (r *prefixRepository) Create(ctx context.Context, rule *domain.PrefixRule) error {
	const query = `
        INSERT INTO prefix_rules (id, prefix, category, label, position)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.pool.Exec(ctx, query, rule.ID, rule.Prefix, rule.Category, rule.Label, rule.Position)
	return err
}

func (r *prefixRepository) Update(ctx context.Context, rule *domain.PrefixRule) error {
	const query = `
        UPDATE prefix_rules SET prefix=$1, category=$2, label=$3, position=$4 WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query, rule.Prefix, rule.Category, rule.Label, rule.Position, rule.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *prefixRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM prefix_rules WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
