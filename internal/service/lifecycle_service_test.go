package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/events"
	"github.com/spec-kit/equipment-checkout/internal/repository"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

type lifecycleFixture struct {
	service      *LifecycleService
	assets       *repository.MemoryAssetRepository
	technicians  *repository.MemoryTechnicianRepository
	transactions *repository.MemoryTransactionRepository
	audits       *repository.MemoryAuditRepository
	holders      *repository.MemoryHolderIndex
	dispatcher   events.Dispatcher
	published    *[]events.Event
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	fixture := &lifecycleFixture{
		assets:       repository.NewMemoryAssetRepository(),
		technicians:  repository.NewMemoryTechnicianRepository(),
		transactions: repository.NewMemoryTransactionRepository(),
		audits:       repository.NewMemoryAuditRepository(),
		holders:      repository.NewMemoryHolderIndex(),
		dispatcher:   events.NewInMemoryDispatcher(),
	}

	var published []events.Event
	fixture.published = &published
	fixture.dispatcher.SubscribeAll(func(ctx context.Context, event events.Event) error {
		published = append(published, event)
		return nil
	})

	// Monotonic fake clock so ledger ordering is deterministic even when
	// several writes land in the same test.
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	fixture.service = NewLifecycleService(LifecycleDependencies{
		AssetRepo:       fixture.assets,
		TechnicianRepo:  fixture.technicians,
		TransactionRepo: fixture.transactions,
		AuditRepo:       fixture.audits,
		HolderIndex:     fixture.holders,
		Dispatcher:      fixture.dispatcher,
	}).WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
	return fixture
}

func (f *lifecycleFixture) seedAsset(t *testing.T, category domain.AssetCategory, id string, status domain.AssetStatus) {
	t.Helper()
	require.NoError(t, f.assets.Create(context.Background(), &domain.Asset{
		ID: id, Category: category, Status: status,
	}))
}

func (f *lifecycleFixture) seedTechnician(t *testing.T, badge, name string) {
	t.Helper()
	require.NoError(t, f.technicians.Create(context.Background(), &domain.Technician{
		BadgeID: badge, Name: name,
	}))
}

func TestCheckout_HappyPath(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusAvailable)
	f.seedTechnician(t, "5551234", "Dana Reyes")

	result, err := f.service.Checkout(context.Background(), domain.CategoryRadio, "WV100", "5551234", "clerk-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCheckedOut, result.Asset.Status)
	assert.Equal(t, 1, result.Asset.CheckoutCount)
	assert.False(t, result.TechnicianWasNew)
	assert.Equal(t, "Dana Reyes", result.Technician.Name)

	transactions, err := f.transactions.ListWithFilter(context.Background(), repository.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, domain.TransactionCheckout, transactions[0].Type)
	assert.Equal(t, "5551234", transactions[0].TechnicianID)
	assert.Equal(t, "clerk-1", transactions[0].Clerk)

	entries, err := f.audits.ListWithFilter(context.Background(), repository.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditAssetCheckedOut, entries[0].Action)

	holder, ok, err := f.holders.HolderOf(context.Background(), "WV100")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "5551234", holder)
}

func TestCheckout_AutoCreatesUnknownTechnician(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryTool, "T300", domain.StatusAvailable)

	result, err := f.service.Checkout(context.Background(), domain.CategoryTool, "T300", "7770001", "clerk-1")
	require.NoError(t, err)

	assert.True(t, result.TechnicianWasNew)
	assert.Equal(t, "7770001", result.Technician.BadgeID)
	// Placeholder name until someone fills in the directory entry.
	assert.Equal(t, "7770001", result.Technician.Name)

	created, err := f.technicians.GetByBadge(context.Background(), "7770001")
	require.NoError(t, err)
	assert.Equal(t, "7770001", created.BadgeID)

	action := domain.AuditTechnicianCreated
	entries, err := f.audits.ListWithFilter(context.Background(), repository.AuditFilter{Action: &action})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCheckout_RejectsUnavailableAsset(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusMaintenance)

	_, err := f.service.Checkout(context.Background(), domain.CategoryRadio, "WV100", "5551234", "clerk-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

func TestCheckout_UnknownAsset(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.service.Checkout(context.Background(), domain.CategoryRadio, "WV404", "5551234", "clerk-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestCheckout_OnePerCategoryPerTechnician(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusAvailable)
	f.seedAsset(t, domain.CategoryRadio, "WV101", domain.StatusAvailable)
	f.seedAsset(t, domain.CategoryBattery, "B200", domain.StatusInInventory)

	_, err := f.service.Checkout(context.Background(), domain.CategoryRadio, "WV100", "5551234", "clerk-1")
	require.NoError(t, err)

	_, err = f.service.Checkout(context.Background(), domain.CategoryRadio, "WV101", "5551234", "clerk-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	// A different category is fine.
	_, err = f.service.Checkout(context.Background(), domain.CategoryBattery, "B200", "5551234", "clerk-1")
	require.NoError(t, err)
}

func TestCheckout_ConflictSurvivesColdHolderIndex(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusAvailable)
	f.seedAsset(t, domain.CategoryRadio, "WV101", domain.StatusAvailable)

	_, err := f.service.Checkout(context.Background(), domain.CategoryRadio, "WV100", "5551234", "clerk-1")
	require.NoError(t, err)

	// Rebuild the service with an empty index, as after a restart. The
	// ledger fallback must still see the open checkout.
	rebuilt := NewLifecycleService(LifecycleDependencies{
		AssetRepo:       f.assets,
		TechnicianRepo:  f.technicians,
		TransactionRepo: f.transactions,
		AuditRepo:       f.audits,
		HolderIndex:     repository.NewMemoryHolderIndex(),
		Dispatcher:      f.dispatcher,
	})

	_, err = rebuilt.Checkout(context.Background(), domain.CategoryRadio, "WV101", "5551234", "clerk-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestCheckout_BatteryUsesInventoryStatuses(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryBattery, "B200", domain.StatusInInventory)

	result, err := f.service.Checkout(context.Background(), domain.CategoryBattery, "B200", "5551234", "clerk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInService, result.Asset.Status)
}

func TestReturn_GoodCondition(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusAvailable)
	_, err := f.service.Checkout(context.Background(), domain.CategoryRadio, "WV100", "5551234", "clerk-1")
	require.NoError(t, err)

	result, err := f.service.Return(context.Background(), domain.CategoryRadio, "WV100", domain.ConditionGood, "clerk-2", "")
	require.NoError(t, err)

	assert.False(t, result.Flagged)
	assert.Equal(t, domain.StatusAvailable, result.Asset.Status)
	assert.Equal(t, 0, result.Asset.RepairCount)
	assert.Equal(t, "5551234", result.Transaction.TechnicianID)

	// Exactly one checkout and one return in the ledger.
	transactions, err := f.transactions.ListWithFilter(context.Background(), repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, transactions, 2)

	_, ok, err := f.holders.HolderOf(context.Background(), "WV100")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReturn_DamagedFlagsForMaintenance(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusAvailable)
	_, err := f.service.Checkout(context.Background(), domain.CategoryRadio, "WV100", "5551234", "clerk-1")
	require.NoError(t, err)

	result, err := f.service.Return(context.Background(), domain.CategoryRadio, "WV100", domain.ConditionDamaged, "clerk-1", "cracked casing")
	require.NoError(t, err)

	assert.True(t, result.Flagged)
	assert.Equal(t, domain.StatusMaintenance, result.Asset.Status)
	assert.Equal(t, 1, result.Asset.RepairCount)
	require.Len(t, result.Asset.MaintenanceHistory, 1)
	assert.Equal(t, "Damaged", result.Asset.MaintenanceHistory[0].Reason)
	assert.Equal(t, "cracked casing", result.Asset.MaintenanceHistory[0].Notes)
	assert.Equal(t, "clerk-1", result.Asset.MaintenanceHistory[0].ReportedBy)
}

func TestReturn_DamagedBatteryFails(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryBattery, "B200", domain.StatusInInventory)
	_, err := f.service.Checkout(context.Background(), domain.CategoryBattery, "B200", "5551234", "clerk-1")
	require.NoError(t, err)

	result, err := f.service.Return(context.Background(), domain.CategoryBattery, "B200", domain.ConditionNeedsRepair, "clerk-1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, result.Asset.Status)
}

func TestReturn_RejectsAssetNotInField(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusAvailable)

	_, err := f.service.Return(context.Background(), domain.CategoryRadio, "WV100", domain.ConditionGood, "clerk-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

// Returns are accepted on the asset's word alone: nobody proves they are the
// technician who checked the item out. The ledger's latest checkout supplies
// attribution, and when even that is missing the return still succeeds with
// an unknown holder. This mirrors how the counter actually operates.
func TestReturn_AcceptedWithoutHolderVerification(t *testing.T) {
	f := newLifecycleFixture(t)

	// An asset that is checked out per the directory but has no ledger
	// history at all, as after a partial data import.
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusCheckedOut)

	result, err := f.service.Return(context.Background(), domain.CategoryRadio, "WV100", domain.ConditionGood, "clerk-1", "")
	require.NoError(t, err)

	assert.Equal(t, "", result.Transaction.TechnicianID)
	assert.Equal(t, "Unknown", result.Transaction.TechnicianName)
	assert.Equal(t, domain.StatusAvailable, result.Asset.Status)
}

func TestChangeStatus_ManualTransition(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusAvailable)

	asset, err := f.service.ChangeStatus(context.Background(), domain.CategoryRadio, "WV100", domain.StatusRetired, "end of life", "clerk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRetired, asset.Status)

	action := domain.AuditStatusChanged
	entries, err := f.audits.ListWithFilter(context.Background(), repository.AuditFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "end of life", entries[0].Details["reason"])
}

func TestChangeStatus_IntoMaintenanceRecordsHistory(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusAvailable)

	asset, err := f.service.ChangeStatus(context.Background(), domain.CategoryRadio, "WV100", domain.StatusMaintenance, "bent antenna", "clerk-1")
	require.NoError(t, err)
	require.Len(t, asset.MaintenanceHistory, 1)
	assert.Equal(t, "bent antenna", asset.MaintenanceHistory[0].Reason)
}

func TestChangeStatus_RejectsCheckedOutStatus(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusAvailable)

	_, err := f.service.ChangeStatus(context.Background(), domain.CategoryRadio, "WV100", domain.StatusCheckedOut, "", "clerk-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

func TestChangeStatus_RejectsStatusOutsideCategory(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryBattery, "B200", domain.StatusInInventory)

	// MAINTENANCE belongs to radios and tools; batteries use FAILED.
	_, err := f.service.ChangeStatus(context.Background(), domain.CategoryBattery, "B200", domain.StatusMaintenance, "", "clerk-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

func TestChangeStatus_LeavingFieldClearsHolder(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusAvailable)
	_, err := f.service.Checkout(context.Background(), domain.CategoryRadio, "WV100", "5551234", "clerk-1")
	require.NoError(t, err)

	_, err = f.service.ChangeStatus(context.Background(), domain.CategoryRadio, "WV100", domain.StatusLost, "never came back", "clerk-1")
	require.NoError(t, err)

	_, ok, err := f.holders.HolderOf(context.Background(), "WV100")
	require.NoError(t, err)
	assert.False(t, ok)

	// The technician can check out another radio once the lost one is
	// written off.
	f.seedAsset(t, domain.CategoryRadio, "WV101", domain.StatusAvailable)
	_, err = f.service.Checkout(context.Background(), domain.CategoryRadio, "WV101", "5551234", "clerk-1")
	require.NoError(t, err)
}

func TestRegisterAsset_DefaultStatusAndConflict(t *testing.T) {
	f := newLifecycleFixture(t)

	asset, err := f.service.RegisterAsset(context.Background(), domain.CategoryBattery, "B200", "clerk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInInventory, asset.Status)

	_, err = f.service.RegisterAsset(context.Background(), domain.CategoryBattery, "B200", "clerk-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	_, err = f.service.RegisterAsset(context.Background(), domain.AssetCategory("drone"), "D1", "clerk-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestCheckout_PublishesEvent(t *testing.T) {
	f := newLifecycleFixture(t)
	f.seedAsset(t, domain.CategoryRadio, "WV100", domain.StatusAvailable)

	_, err := f.service.Checkout(context.Background(), domain.CategoryRadio, "WV100", "5551234", "clerk-1")
	require.NoError(t, err)

	var types []events.EventType
	for _, event := range *f.published {
		types = append(types, event.Type)
	}
	assert.Contains(t, types, events.EventTechnicianCreated)
	assert.Contains(t, types, events.EventAssetCheckedOut)
}
