package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/equipment-checkout/internal/domain"
)

// HolderIndex is the incremental side index for open checkouts.
// It answers "who holds this asset" and "what does this technician hold in
// a category" without scanning the transaction ledger. The ledger remains
// the source of truth; the index is rebuilt from it on a miss.
type HolderIndex interface {
	SetHolder(ctx context.Context, assetID string, category domain.AssetCategory, technicianID string) error
	ClearHolder(ctx context.Context, assetID string, category domain.AssetCategory, technicianID string) error
	HolderOf(ctx context.Context, assetID string) (string, bool, error)
	OpenAssetFor(ctx context.Context, technicianID string, category domain.AssetCategory) (string, bool, error)
}

const (
	assetHolderKeyPrefix = "holder:asset:"
	techHolderKeyPrefix  = "holder:tech:"
)

type redisHolderIndex struct {
	client *redis.Client
}

// NewRedisHolderIndex returns a Redis-backed holder index.
func NewRedisHolderIndex(client *redis.Client) HolderIndex {
	return &redisHolderIndex{client: client}
}

func (r *redisHolderIndex) SetHolder(ctx context.Context, assetID string, category domain.AssetCategory, technicianID string) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, assetHolderKey(assetID), technicianID, 0)
	pipe.Set(ctx, techHolderKey(technicianID, category), assetID, 0)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisHolderIndex) ClearHolder(ctx context.Context, assetID string, category domain.AssetCategory, technicianID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, assetHolderKey(assetID))
	pipe.Del(ctx, techHolderKey(technicianID, category))
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisHolderIndex) HolderOf(ctx context.Context, assetID string) (string, bool, error) {
	val, err := r.client.Get(ctx, assetHolderKey(assetID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *redisHolderIndex) OpenAssetFor(ctx context.Context, technicianID string, category domain.AssetCategory) (string, bool, error) {
	val, err := r.client.Get(ctx, techHolderKey(technicianID, category)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func assetHolderKey(assetID string) string {
	return assetHolderKeyPrefix + assetID
}

func techHolderKey(technicianID string, category domain.AssetCategory) string {
	return techHolderKeyPrefix + technicianID + ":" + string(category)
}
