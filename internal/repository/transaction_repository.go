package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/equipment-checkout/internal/domain"
)

// TransactionFilter captures ledger query parameters.
type TransactionFilter struct {
	AssetID      *string
	TechnicianID *string
	Category     *domain.AssetCategory
	Type         *domain.TransactionType
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// TransactionRepository is the append-only transaction ledger.
type TransactionRepository interface {
	Append(ctx context.Context, transaction *domain.Transaction) error
	ListWithFilter(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error)
	LatestCheckoutForAsset(ctx context.Context, assetID string) (*domain.Transaction, error)
}

type transactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository returns a Postgres-backed implementation.
func NewTransactionRepository(pool *pgxpool.Pool) TransactionRepository {
	return &transactionRepository{pool: pool}
}

func (r *transactionRepository) Append(ctx context.Context, transaction *domain.Transaction) error {
	const query = `
        INSERT INTO transactions (id, asset_id, asset_category, technician_id, technician_name, type, condition, clerk, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		transaction.ID,
		transaction.AssetID,
		transaction.AssetCategory,
		transaction.TechnicianID,
		transaction.TechnicianName,
		transaction.Type,
		transaction.Condition,
		transaction.Clerk,
		transaction.Notes,
	).Scan(&transaction.CreatedAt)
}

func (r *transactionRepository) ListWithFilter(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error) {
	base := `SELECT id, asset_id, asset_category, technician_id, technician_name, type, condition, clerk, notes, created_at
             FROM transactions`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AssetID != nil {
		args = append(args, *filter.AssetID)
		clauses = append(clauses, fmt.Sprintf("asset_id=$%d", len(args)))
	}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("technician_id=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("asset_category=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
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

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *transactionRepository) LatestCheckoutForAsset(ctx context.Context, assetID string) (*domain.Transaction, error) {
	const query = `
        SELECT id, asset_id, asset_category, technician_id, technician_name, type, condition, clerk, notes, created_at
        FROM transactions WHERE asset_id=$1 AND type=$2
        ORDER BY created_at DESC LIMIT 1`
	var transaction domain.Transaction
	if err := r.pool.QueryRow(ctx, query, assetID, domain.TransactionCheckout).Scan(
		&transaction.ID,
		&transaction.AssetID,
		&transaction.AssetCategory,
		&transaction.TechnicianID,
		&transaction.TechnicianName,
		&transaction.Type,
		&transaction.Condition,
		&transaction.Clerk,
		&transaction.Notes,
		&transaction.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &transaction, nil
}

func scanTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var result []domain.Transaction
	for rows.Next() {
		var transaction domain.Transaction
		if err := rows.Scan(
			&transaction.ID,
			&transaction.AssetID,
			&transaction.AssetCategory,
			&transaction.TechnicianID,
			&transaction.TechnicianName,
			&transaction.Type,
			&transaction.Condition,
			&transaction.Clerk,
			&transaction.Notes,
			&transaction.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, transaction)
	}
	return result, rows.Err()
}
