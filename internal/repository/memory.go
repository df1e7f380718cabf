package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/equipment-checkout/internal/domain"
)

// In-memory implementations back the degraded no-database mode and the test
// suite. They honor the same contracts as the Postgres repositories,
// including pgx.ErrNoRows on misses so error mapping stays uniform.

// MemoryAssetRepository is a map-backed AssetRepository.
type MemoryAssetRepository struct {
	mu     sync.RWMutex
	assets map[string]domain.Asset
}

// NewMemoryAssetRepository builds an empty repository.
func NewMemoryAssetRepository() *MemoryAssetRepository {
	return &MemoryAssetRepository{assets: make(map[string]domain.Asset)}
}

func assetKey(category domain.AssetCategory, id string) string {
	return string(category) + "/" + id
}

func (r *MemoryAssetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	asset.CreatedAt = now
	asset.UpdatedAt = now
	r.assets[assetKey(asset.Category, asset.ID)] = cloneAsset(*asset)
	return nil
}

func (r *MemoryAssetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := assetKey(asset.Category, asset.ID)
	if _, ok := r.assets[key]; !ok {
		return pgx.ErrNoRows
	}
	asset.UpdatedAt = time.Now()
	r.assets[key] = cloneAsset(*asset)
	return nil
}

func (r *MemoryAssetRepository) Get(ctx context.Context, category domain.AssetCategory, id string) (*domain.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	asset, ok := r.assets[assetKey(category, id)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := cloneAsset(asset)
	return &copied, nil
}

func (r *MemoryAssetRepository) List(ctx context.Context, filter AssetFilter) ([]domain.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Asset
	for _, asset := range r.assets {
		if filter.Category != nil && asset.Category != *filter.Category {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, asset.Status) {
			continue
		}
		result = append(result, cloneAsset(asset))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, filter.Limit, filter.Offset, 100), nil
}

func cloneAsset(asset domain.Asset) domain.Asset {
	history := make([]domain.MaintenanceRecord, len(asset.MaintenanceHistory))
	copy(history, asset.MaintenanceHistory)
	asset.MaintenanceHistory = history
	return asset
}

func containsStatus(statuses []domain.AssetStatus, status domain.AssetStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset, defaultLimit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// MemoryTechnicianRepository is a map-backed TechnicianRepository.
type MemoryTechnicianRepository struct {
	mu          sync.RWMutex
	technicians map[string]domain.Technician
}

// NewMemoryTechnicianRepository builds an empty repository.
func NewMemoryTechnicianRepository() *MemoryTechnicianRepository {
	return &MemoryTechnicianRepository{technicians: make(map[string]domain.Technician)}
}

func (r *MemoryTechnicianRepository) Create(ctx context.Context, technician *domain.Technician) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	technician.CreatedAt = time.Now()
	r.technicians[technician.BadgeID] = *technician
	return nil
}

func (r *MemoryTechnicianRepository) GetByBadge(ctx context.Context, badgeID string) (*domain.Technician, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	technician, ok := r.technicians[badgeID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &technician, nil
}

func (r *MemoryTechnicianRepository) List(ctx context.Context, limit, offset int) ([]domain.Technician, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Technician
	for _, technician := range r.technicians {
		result = append(result, technician)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].BadgeID < result[j].BadgeID })
	return paginate(result, limit, offset, 100), nil
}

// MemoryTransactionRepository is a slice-backed append-only ledger.
type MemoryTransactionRepository struct {
	mu           sync.RWMutex
	transactions []domain.Transaction
}

// NewMemoryTransactionRepository builds an empty ledger.
func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{}
}

func (r *MemoryTransactionRepository) Append(ctx context.Context, transaction *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now()
	}
	r.transactions = append(r.transactions, *transaction)
	return nil
}

func (r *MemoryTransactionRepository) ListWithFilter(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, transaction := range r.transactions {
		if filter.AssetID != nil && transaction.AssetID != *filter.AssetID {
			continue
		}
		if filter.TechnicianID != nil && transaction.TechnicianID != *filter.TechnicianID {
			continue
		}
		if filter.Category != nil && transaction.AssetCategory != *filter.Category {
			continue
		}
		if filter.Type != nil && transaction.Type != *filter.Type {
			continue
		}
		if filter.From != nil && transaction.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && transaction.CreatedAt.After(*filter.To) {
			continue
		}
		result = append(result, transaction)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return paginate(result, filter.Limit, filter.Offset, 50), nil
}

func (r *MemoryTransactionRepository) LatestCheckoutForAsset(ctx context.Context, assetID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domain.Transaction
	for i := range r.transactions {
		transaction := r.transactions[i]
		if transaction.AssetID != assetID || transaction.Type != domain.TransactionCheckout {
			continue
		}
		if latest == nil || transaction.CreatedAt.After(latest.CreatedAt) {
			copied := transaction
			latest = &copied
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	return latest, nil
}

// MemoryAuditRepository is a slice-backed append-only audit trail.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

// NewMemoryAuditRepository builds an empty audit trail.
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *MemoryAuditRepository) ListWithFilter(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.AuditEntry
	for _, entry := range r.entries {
		if filter.EntityID != nil && entry.EntityID != *filter.EntityID {
			continue
		}
		if filter.EntityType != nil && entry.EntityType != *filter.EntityType {
			continue
		}
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		if filter.From != nil && entry.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && entry.CreatedAt.After(*filter.To) {
			continue
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return paginate(result, filter.Limit, filter.Offset, 50), nil
}

// MemoryPrefixRepository is a slice-backed ordered prefix table.
type MemoryPrefixRepository struct {
	mu    sync.RWMutex
	rules []domain.PrefixRule
}

// DefaultPrefixRules mirrors the seed rows shipped with the migrations.
func DefaultPrefixRules() []domain.PrefixRule {
	return []domain.PrefixRule{
		{ID: "seed-radio-wv", Prefix: "WV", Category: domain.CategoryRadio, Label: "Radio (WV series)", Position: 0},
		{ID: "seed-radio-w", Prefix: "W", Category: domain.CategoryRadio, Label: "Radio (W series)", Position: 1},
		{ID: "seed-battery-b", Prefix: "B", Category: domain.CategoryBattery, Label: "Battery", Position: 2},
		{ID: "seed-tool-t", Prefix: "T", Category: domain.CategoryTool, Label: "Tool", Position: 3},
	}
}

// NewMemoryPrefixRepository builds a repository seeded with rules.
func NewMemoryPrefixRepository(rules ...domain.PrefixRule) *MemoryPrefixRepository {
	repo := &MemoryPrefixRepository{}
	for i := range rules {
		if rules[i].ID == "" {
			rules[i].ID = uuid.NewString()
		}
		repo.rules = append(repo.rules, rules[i])
	}
	return repo
}

func (r *MemoryPrefixRepository) List(ctx context.Context) ([]domain.PrefixRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.PrefixRule, len(r.rules))
	copy(result, r.rules)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].Prefix < result[j].Prefix
	})
	return result, nil
}

func (r *MemoryPrefixRepository) Create(ctx context.Context, rule *domain.PrefixRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *MemoryPrefixRepository) Update(ctx context.Context, rule *domain.PrefixRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rules {
		if r.rules[i].ID == rule.ID {
			r.rules[i] = *rule
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *MemoryPrefixRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rules {
		if r.rules[i].ID == id {
			r.rules = append(r.rules[:i], r.rules[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

// MemoryClerkRepository is a map-backed ClerkRepository.
type MemoryClerkRepository struct {
	mu     sync.RWMutex
	clerks map[string]domain.Clerk
}

// NewMemoryClerkRepository builds an empty repository.
func NewMemoryClerkRepository() *MemoryClerkRepository {
	return &MemoryClerkRepository{clerks: make(map[string]domain.Clerk)}
}

func (r *MemoryClerkRepository) Create(ctx context.Context, clerk *domain.Clerk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if clerk.ID == "" {
		clerk.ID = uuid.NewString()
	}
	clerk.CreatedAt = time.Now()
	r.clerks[clerk.ID] = *clerk
	return nil
}

func (r *MemoryClerkRepository) GetByID(ctx context.Context, id string) (*domain.Clerk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clerk, ok := r.clerks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &clerk, nil
}

func (r *MemoryClerkRepository) GetByEmail(ctx context.Context, email string) (*domain.Clerk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, clerk := range r.clerks {
		if strings.EqualFold(clerk.Email, email) {
			copied := clerk
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// MemoryHolderIndex is a map-backed HolderIndex.
type MemoryHolderIndex struct {
	mu      sync.RWMutex
	byAsset map[string]string
	byTech  map[string]string
}

// NewMemoryHolderIndex builds an empty index.
func NewMemoryHolderIndex() *MemoryHolderIndex {
	return &MemoryHolderIndex{
		byAsset: make(map[string]string),
		byTech:  make(map[string]string),
	}
}

func (m *MemoryHolderIndex) SetHolder(ctx context.Context, assetID string, category domain.AssetCategory, technicianID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byAsset[assetID] = technicianID
	m.byTech[technicianID+":"+string(category)] = assetID
	return nil
}

func (m *MemoryHolderIndex) ClearHolder(ctx context.Context, assetID string, category domain.AssetCategory, technicianID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byAsset, assetID)
	delete(m.byTech, technicianID+":"+string(category))
	return nil
}

func (m *MemoryHolderIndex) HolderOf(ctx context.Context, assetID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	technicianID, ok := m.byAsset[assetID]
	return technicianID, ok, nil
}

func (m *MemoryHolderIndex) OpenAssetFor(ctx context.Context, technicianID string, category domain.AssetCategory) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	assetID, ok := m.byTech[technicianID+":"+string(category)]
	return assetID, ok, nil
}
