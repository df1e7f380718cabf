package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/events"
	"github.com/spec-kit/equipment-checkout/internal/repository"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

// LifecycleService validates and executes checkout, return, and manual
// status-change operations, producing ledger and audit writes.
//
// The Available check and the open-checkout check are read-then-decide
// without a cross-session transactional guard; two racing sessions can both
// pass validation before either commits. That matches the source system and
// is a documented gap, not a guarantee.
type LifecycleService struct {
	assets       repository.AssetRepository
	technicians  repository.TechnicianRepository
	transactions repository.TransactionRepository
	audits       repository.AuditRepository
	holders      repository.HolderIndex
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	now          func() time.Time
}

// LifecycleDependencies bundles collaborators for the lifecycle engine.
type LifecycleDependencies struct {
	AssetRepo       repository.AssetRepository
	TechnicianRepo  repository.TechnicianRepository
	TransactionRepo repository.TransactionRepository
	AuditRepo       repository.AuditRepository
	HolderIndex     repository.HolderIndex
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		assets:       deps.AssetRepo,
		technicians:  deps.TechnicianRepo,
		transactions: deps.TransactionRepo,
		audits:       deps.AuditRepo,
		holders:      deps.HolderIndex,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (s *LifecycleService) WithClock(now func() time.Time) *LifecycleService {
	s.now = now
	return s
}

// CheckoutResult is the outcome of a successful checkout.
type CheckoutResult struct {
	Asset            *domain.Asset
	Technician       *domain.Technician
	Transaction      *domain.Transaction
	TechnicianWasNew bool
}

// ReturnResult is the outcome of a successful return.
type ReturnResult struct {
	Asset       *domain.Asset
	Transaction *domain.Transaction
	Flagged     bool
}

// Checkout hands an asset to the technician identified by badge.
func (s *LifecycleService) Checkout(ctx context.Context, category domain.AssetCategory, assetID, badge, clerk string) (*CheckoutResult, error) {
	asset, err := s.getAsset(ctx, category, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != domain.AvailableStatusFor(category) {
		return nil, apperrors.NewInvalidState("asset is not available for checkout", map[string]any{
			"asset_id": assetID,
			"status":   asset.Status,
		})
	}

	technician, wasNew, err := s.resolveTechnician(ctx, badge, clerk)
	if err != nil {
		return nil, err
	}

	openAssetID, hasOpen, err := s.openCheckoutFor(ctx, technician.BadgeID, category)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if hasOpen {
		return nil, apperrors.NewConflict("technician already holds an asset in this category", map[string]any{
			"technician_id": technician.BadgeID,
			"category":      category,
			"asset_id":      openAssetID,
		})
	}

	asset.Status = domain.CheckedOutStatusFor(category)
	asset.CheckoutCount++
	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, apperrors.MapError(err)
	}

	transaction := &domain.Transaction{
		ID:             uuid.NewString(),
		AssetID:        asset.ID,
		AssetCategory:  category,
		TechnicianID:   technician.BadgeID,
		TechnicianName: technician.Name,
		Type:           domain.TransactionCheckout,
		Clerk:          clerk,
		CreatedAt:      s.now(),
	}
	if err := s.transactions.Append(ctx, transaction); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.appendAudit(ctx, asset.ID, "asset", domain.AuditAssetCheckedOut, clerk, map[string]any{
		"category":       category,
		"technician_id":  technician.BadgeID,
		"transaction_id": transaction.ID,
	}); err != nil {
		return nil, err
	}

	if err := s.holders.SetHolder(ctx, asset.ID, category, technician.BadgeID); err != nil {
		s.logger.Warn("holder index write failed", zap.String("asset_id", asset.ID), zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventAssetCheckedOut,
		EntityID: asset.ID,
		Clerk:    clerk,
		Payload: events.AssetCheckedOutPayload{
			AssetID:          asset.ID,
			Category:         category,
			TechnicianID:     technician.BadgeID,
			TechnicianName:   technician.Name,
			TransactionID:    transaction.ID,
			TechnicianWasNew: wasNew,
		},
	})

	return &CheckoutResult{
		Asset:            asset,
		Technician:       technician,
		Transaction:      transaction,
		TechnicianWasNew: wasNew,
	}, nil
}

// Return takes an asset back from the field. The presumed holder is
// recovered from the ledger for attribution only; no credential is verified
// at return time.
func (s *LifecycleService) Return(ctx context.Context, category domain.AssetCategory, assetID string, condition domain.ReturnCondition, clerk, notes string) (*ReturnResult, error) {
	asset, err := s.getAsset(ctx, category, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != domain.CheckedOutStatusFor(category) {
		return nil, apperrors.NewInvalidState("asset is not checked out", map[string]any{
			"asset_id": assetID,
			"status":   asset.Status,
		})
	}

	holderID, holderName := s.recoverHolder(ctx, assetID)

	flagged := condition != domain.ConditionGood
	if flagged {
		asset.Status = domain.MaintenanceStatusFor(category)
		asset.RepairCount++
		asset.MaintenanceHistory = append(asset.MaintenanceHistory, domain.MaintenanceRecord{
			Date:       s.now(),
			Reason:     string(condition),
			Notes:      notes,
			ReportedBy: clerk,
		})
	} else {
		asset.Status = domain.AvailableStatusFor(category)
	}
	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, apperrors.MapError(err)
	}

	transaction := &domain.Transaction{
		ID:             uuid.NewString(),
		AssetID:        asset.ID,
		AssetCategory:  category,
		TechnicianID:   holderID,
		TechnicianName: holderName,
		Type:           domain.TransactionReturn,
		Condition:      &condition,
		Clerk:          clerk,
		CreatedAt:      s.now(),
	}
	if notes != "" {
		transaction.Notes = &notes
	}
	if err := s.transactions.Append(ctx, transaction); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.appendAudit(ctx, asset.ID, "asset", domain.AuditAssetReturned, clerk, map[string]any{
		"category":       category,
		"condition":      condition,
		"technician_id":  holderID,
		"transaction_id": transaction.ID,
		"flagged":        flagged,
	}); err != nil {
		return nil, err
	}

	if holderID != "" {
		if err := s.holders.ClearHolder(ctx, asset.ID, category, holderID); err != nil {
			s.logger.Warn("holder index clear failed", zap.String("asset_id", asset.ID), zap.Error(err))
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventAssetReturned,
		EntityID: asset.ID,
		Clerk:    clerk,
		Payload: events.AssetReturnedPayload{
			AssetID:       asset.ID,
			Category:      category,
			Condition:     condition,
			TransactionID: transaction.ID,
			Flagged:       flagged,
		},
	})

	return &ReturnResult{Asset: asset, Transaction: transaction, Flagged: flagged}, nil
}

// ChangeStatus performs a manual transition outside the scan flow, such as
// retiring a radio or marking it lost.
func (s *LifecycleService) ChangeStatus(ctx context.Context, category domain.AssetCategory, assetID string, newStatus domain.AssetStatus, reason, performedBy string) (*domain.Asset, error) {
	asset, err := s.getAsset(ctx, category, assetID)
	if err != nil {
		return nil, err
	}
	if !domain.ValidStatus(category, newStatus) {
		return nil, apperrors.NewInvalidState("status is not legal for this category", map[string]any{
			"category": category,
			"status":   newStatus,
		})
	}
	if newStatus == domain.CheckedOutStatusFor(category) {
		return nil, apperrors.NewInvalidState("checked-out status requires a checkout operation", nil)
	}

	oldStatus := asset.Status
	asset.Status = newStatus
	if newStatus == domain.MaintenanceStatusFor(category) {
		asset.MaintenanceHistory = append(asset.MaintenanceHistory, domain.MaintenanceRecord{
			Date:       s.now(),
			Reason:     reason,
			ReportedBy: performedBy,
		})
	}
	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, apperrors.MapError(err)
	}

	// Leaving the checked-out state by manual transition (lost in the
	// field, retired while out) abandons the open checkout.
	if oldStatus == domain.CheckedOutStatusFor(category) {
		if holderID, ok, err := s.holders.HolderOf(ctx, assetID); err == nil && ok {
			if err := s.holders.ClearHolder(ctx, assetID, category, holderID); err != nil {
				s.logger.Warn("holder index clear failed", zap.String("asset_id", assetID), zap.Error(err))
			}
		}
	}

	if err := s.appendAudit(ctx, asset.ID, "asset", domain.AuditStatusChanged, performedBy, map[string]any{
		"category":   category,
		"old_status": oldStatus,
		"new_status": newStatus,
		"reason":     reason,
	}); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventStatusChanged,
		EntityID: asset.ID,
		Clerk:    performedBy,
		Payload: events.StatusChangedPayload{
			AssetID:   asset.ID,
			Category:  category,
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Reason:    reason,
		},
	})
	return asset, nil
}

// RegisterAsset adds a new asset to the directory in its default status.
func (s *LifecycleService) RegisterAsset(ctx context.Context, category domain.AssetCategory, assetID, performedBy string) (*domain.Asset, error) {
	if !domain.ValidCategory(category) {
		return nil, apperrors.NewValidationError("unknown asset category", map[string]any{"category": category})
	}
	if _, err := s.assets.Get(ctx, category, assetID); err == nil {
		return nil, apperrors.NewConflict("asset already registered", map[string]any{"asset_id": assetID})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	asset := &domain.Asset{
		ID:       assetID,
		Category: category,
		Status:   domain.DefaultStatus(category),
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.appendAudit(ctx, asset.ID, "asset", domain.AuditAssetRegistered, performedBy, map[string]any{
		"category": category,
		"status":   asset.Status,
	}); err != nil {
		return nil, err
	}
	return asset, nil
}

// GetAsset fetches one asset from the directory.
func (s *LifecycleService) GetAsset(ctx context.Context, category domain.AssetCategory, assetID string) (*domain.Asset, error) {
	return s.getAsset(ctx, category, assetID)
}

// ListAssets lists directory entries.
func (s *LifecycleService) ListAssets(ctx context.Context, filter repository.AssetFilter) ([]domain.Asset, error) {
	return s.assets.List(ctx, filter)
}

// ListTransactions queries the ledger.
func (s *LifecycleService) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	return s.transactions.ListWithFilter(ctx, filter)
}

// ListAudit queries the audit trail.
func (s *LifecycleService) ListAudit(ctx context.Context, filter repository.AuditFilter) ([]domain.AuditEntry, error) {
	return s.audits.ListWithFilter(ctx, filter)
}

func (s *LifecycleService) getAsset(ctx context.Context, category domain.AssetCategory, assetID string) (*domain.Asset, error) {
	asset, err := s.assets.Get(ctx, category, assetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("asset", map[string]any{"asset_id": assetID, "category": category})
		}
		return nil, apperrors.MapError(err)
	}
	return asset, nil
}

// resolveTechnician looks up the badge, lazily creating the technician on
// first sight. Auto-creation is a recovery action, not an error path, and
// is itself audited.
func (s *LifecycleService) resolveTechnician(ctx context.Context, badge, clerk string) (*domain.Technician, bool, error) {
	technician, err := s.technicians.GetByBadge(ctx, badge)
	if err == nil {
		return technician, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, apperrors.MapError(err)
	}

	technician = &domain.Technician{BadgeID: badge, Name: badge}
	if err := s.technicians.Create(ctx, technician); err != nil {
		return nil, false, apperrors.MapError(err)
	}
	if err := s.appendAudit(ctx, badge, "technician", domain.AuditTechnicianCreated, clerk, map[string]any{
		"badge_id": badge,
	}); err != nil {
		return nil, false, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTechnicianCreated,
		EntityID: badge,
		Clerk:    clerk,
		Payload:  events.TechnicianCreatedPayload{BadgeID: badge, Name: technician.Name},
	})
	return technician, true, nil
}

// openCheckoutFor consults the holder index first and falls back to a
// ledger scan when the index has no entry, so a cold index never hides an
// open checkout.
func (s *LifecycleService) openCheckoutFor(ctx context.Context, technicianID string, category domain.AssetCategory) (string, bool, error) {
	assetID, ok, err := s.holders.OpenAssetFor(ctx, technicianID, category)
	if err != nil {
		s.logger.Warn("holder index read failed, falling back to ledger",
			zap.String("technician_id", technicianID), zap.Error(err))
	} else if ok {
		return assetID, true, nil
	}
	return s.openCheckoutFromLedger(ctx, technicianID, category)
}

func (s *LifecycleService) openCheckoutFromLedger(ctx context.Context, technicianID string, category domain.AssetCategory) (string, bool, error) {
	transactions, err := s.transactions.ListWithFilter(ctx, repository.TransactionFilter{
		TechnicianID: &technicianID,
		Category:     &category,
		Limit:        1000,
	})
	if err != nil {
		return "", false, err
	}
	// Newest first: the first record seen for an asset is its latest; a
	// latest checkout with no later return means the checkout is open.
	seen := make(map[string]bool)
	for _, transaction := range transactions {
		if seen[transaction.AssetID] {
			continue
		}
		seen[transaction.AssetID] = true
		if transaction.Type != domain.TransactionCheckout {
			continue
		}
		// A manual transition (lost, retired) can close a checkout without
		// a return record; only count it open while the asset is still out.
		asset, err := s.assets.Get(ctx, category, transaction.AssetID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return "", false, err
		}
		if asset.Status == domain.CheckedOutStatusFor(category) {
			return transaction.AssetID, true, nil
		}
	}
	return "", false, nil
}

func (s *LifecycleService) recoverHolder(ctx context.Context, assetID string) (string, string) {
	latest, err := s.transactions.LatestCheckoutForAsset(ctx, assetID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("holder recovery failed", zap.String("asset_id", assetID), zap.Error(err))
		}
		return "", "Unknown"
	}
	return latest.TechnicianID, latest.TechnicianName
}

func (s *LifecycleService) appendAudit(ctx context.Context, entityID, entityType string, action domain.AuditAction, performedBy string, details map[string]any) error {
	entry := &domain.AuditEntry{
		ID:          uuid.NewString(),
		EntityID:    entityID,
		EntityType:  entityType,
		Action:      action,
		Details:     details,
		PerformedBy: performedBy,
		CreatedAt:   s.now(),
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
