package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/repository"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

func TestPrefixService_CreateValidatesInput(t *testing.T) {
	prefixService := NewPrefixService(repository.NewMemoryPrefixRepository(), repository.NewMemoryAuditRepository())

	_, err := prefixService.Create(context.Background(), "  ", domain.CategoryRadio, "", 0, "admin-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = prefixService.Create(context.Background(), "DR", domain.AssetCategory("drone"), "", 0, "admin-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestPrefixService_ChangesAreAudited(t *testing.T) {
	audits := repository.NewMemoryAuditRepository()
	prefixService := NewPrefixService(repository.NewMemoryPrefixRepository(), audits)

	rule, err := prefixService.Create(context.Background(), "KX", domain.CategoryTool, "Impact driver", 5, "admin-1")
	require.NoError(t, err)
	require.NotEmpty(t, rule.ID)

	rule.Label = "Impact drivers"
	require.NoError(t, prefixService.Update(context.Background(), rule, "admin-1"))
	require.NoError(t, prefixService.Delete(context.Background(), rule.ID, "admin-1"))

	action := domain.AuditPrefixRuleChanged
	entries, err := audits.ListWithFilter(context.Background(), repository.AuditFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "admin-1", entries[0].PerformedBy)
}

func TestPrefixService_DeleteUnknownRule(t *testing.T) {
	prefixService := NewPrefixService(repository.NewMemoryPrefixRepository(), repository.NewMemoryAuditRepository())

	err := prefixService.Delete(context.Background(), "missing", "admin-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestPrefixService_ListKeepsTableOrder(t *testing.T) {
	prefixService := NewPrefixService(
		repository.NewMemoryPrefixRepository(repository.DefaultPrefixRules()...),
		repository.NewMemoryAuditRepository(),
	)

	rules, err := prefixService.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 4)
	assert.Equal(t, "WV", rules[0].Prefix)
	assert.Equal(t, "T", rules[3].Prefix)
}
