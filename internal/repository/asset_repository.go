package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/equipment-checkout/internal/domain"
)

// AssetFilter captures listing parameters for the asset directory.
type AssetFilter struct {
	Category *domain.AssetCategory
	Statuses []domain.AssetStatus
	Limit    int
	Offset   int
}

// AssetRepository encapsulates the asset directory.
type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) error
	Update(ctx context.Context, asset *domain.Asset) error
	Get(ctx context.Context, category domain.AssetCategory, id string) (*domain.Asset, error)
	List(ctx context.Context, filter AssetFilter) ([]domain.Asset, error)
}

type assetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository returns a Postgres-backed implementation.
func NewAssetRepository(pool *pgxpool.Pool) AssetRepository {
	return &assetRepository{pool: pool}
}

func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	history, err := marshalHistory(asset.MaintenanceHistory)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO assets (id, category, status, checkout_count, repair_count, maintenance_history)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		asset.ID,
		asset.Category,
		asset.Status,
		asset.CheckoutCount,
		asset.RepairCount,
		history,
	).Scan(&asset.CreatedAt, &asset.UpdatedAt)
}

func (r *assetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	history, err := marshalHistory(asset.MaintenanceHistory)
	if err != nil {
		return err
	}
	const query = `
        UPDATE assets SET status=$1, checkout_count=$2, repair_count=$3, maintenance_history=$4, updated_at=NOW()
        WHERE id=$5 AND category=$6`
	cmd, err := r.pool.Exec(ctx, query,
		asset.Status,
		asset.CheckoutCount,
		asset.RepairCount,
		history,
		asset.ID,
		asset.Category,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assetRepository) Get(ctx context.Context, category domain.AssetCategory, id string) (*domain.Asset, error) {
	const query = `
        SELECT id, category, status, checkout_count, repair_count, maintenance_history, created_at, updated_at
        FROM assets WHERE id=$1 AND category=$2`
	return scanAsset(r.pool.QueryRow(ctx, query, id, category))
}

func (r *assetRepository) List(ctx context.Context, filter AssetFilter) ([]domain.Asset, error) {
	query := `SELECT id, category, status, checkout_count, repair_count, maintenance_history, created_at, updated_at
              FROM assets WHERE 1=1`
	args := []any{}

	if filter.Category != nil {
		args = append(args, *filter.Category)
		query += fmt.Sprintf(" AND category=$%d", len(args))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ","))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" ORDER BY id ASC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *asset)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*domain.Asset, error) {
	var asset domain.Asset
	var history []byte
	if err := row.Scan(
		&asset.ID,
		&asset.Category,
		&asset.Status,
		&asset.CheckoutCount,
		&asset.RepairCount,
		&history,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &asset.MaintenanceHistory); err != nil {
			return nil, err
		}
	}
	return &asset, nil
}

func marshalHistory(records []domain.MaintenanceRecord) ([]byte, error) {
	if records == nil {
		records = []domain.MaintenanceRecord{}
	}
	return json.Marshal(records)
}

