package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/repository"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

// PrefixService is the administrative surface for the identifier prefix
// table. The classifier reloads the table per classification, so changes
// here take effect on the next scan.
type PrefixService struct {
	prefixes repository.PrefixRepository
	audits   repository.AuditRepository
}

// NewPrefixService constructs the service.
func NewPrefixService(prefixes repository.PrefixRepository, audits repository.AuditRepository) *PrefixService {
	return &PrefixService{prefixes: prefixes, audits: audits}
}

// List returns the ordered prefix table.
func (s *PrefixService) List(ctx context.Context) ([]domain.PrefixRule, error) {
	rules, err := s.prefixes.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return rules, nil
}

// Create adds a rule to the table.
func (s *PrefixService) Create(ctx context.Context, prefix string, category domain.AssetCategory, label string, position int, performedBy string) (*domain.PrefixRule, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, apperrors.NewValidationError("prefix required", nil)
	}
	if !domain.ValidCategory(category) {
		return nil, apperrors.NewValidationError("unknown asset category", map[string]any{"category": category})
	}

	rule := &domain.PrefixRule{
		ID:       uuid.NewString(),
		Prefix:   prefix,
		Category: category,
		Label:    label,
		Position: position,
	}
	if err := s.prefixes.Create(ctx, rule); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.auditChange(ctx, rule.ID, "created", rule, performedBy); err != nil {
		return nil, err
	}
	return rule, nil
}

// Update rewrites an existing rule.
func (s *PrefixService) Update(ctx context.Context, rule *domain.PrefixRule, performedBy string) error {
	if !domain.ValidCategory(rule.Category) {
		return apperrors.NewValidationError("unknown asset category", map[string]any{"category": rule.Category})
	}
	if err := s.prefixes.Update(ctx, rule); err != nil {
		return apperrors.MapError(err)
	}
	return s.auditChange(ctx, rule.ID, "updated", rule, performedBy)
}

// Delete removes a rule.
func (s *PrefixService) Delete(ctx context.Context, id, performedBy string) error {
	if err := s.prefixes.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return s.auditChange(ctx, id, "deleted", nil, performedBy)
}

func (s *PrefixService) auditChange(ctx context.Context, ruleID, change string, rule *domain.PrefixRule, performedBy string) error {
	details := map[string]any{"change": change}
	if rule != nil {
		details["prefix"] = rule.Prefix
		details["category"] = rule.Category
		details["position"] = rule.Position
	}
	entry := &domain.AuditEntry{
		ID:          uuid.NewString(),
		EntityID:    ruleID,
		EntityType:  "prefix_rule",
		Action:      domain.AuditPrefixRuleChanged,
		Details:     details,
		PerformedBy: performedBy,
		CreatedAt:   time.Now(),
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
