package worker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/equipment-checkout/internal/config"
	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/repository"
)

func newTestWorker(t *testing.T, dir string) (*ReplicationWorker, *repository.MemoryAssetRepository) {
	t.Helper()
	assets := repository.NewMemoryAssetRepository()
	return NewReplicationWorker(
		config.ReplicationConfig{Enabled: true, TargetDir: dir, IntervalMinutes: 15},
		nil,
		assets,
		repository.NewMemoryTechnicianRepository(),
		repository.NewMemoryTransactionRepository(),
		repository.NewMemoryAuditRepository(),
	), assets
}

func readSnapshot(t *testing.T, path string) Snapshot {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snapshot Snapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	return snapshot
}

func TestReplicateOnce_AlternatesSlots(t *testing.T) {
	dir := t.TempDir()
	worker, assets := newTestWorker(t, dir)

	require.NoError(t, assets.Create(context.Background(), &domain.Asset{
		ID: "WV100", Category: domain.CategoryRadio, Status: domain.StatusAvailable,
	}))

	require.NoError(t, worker.ReplicateOnce(context.Background()))
	first := readSnapshot(t, filepath.Join(dir, "snapshot_b.json"))
	assert.Equal(t, int64(1), first.Generation)
	require.Len(t, first.Assets, 1)
	assert.Equal(t, "WV100", first.Assets[0].ID)

	require.NoError(t, worker.ReplicateOnce(context.Background()))
	second := readSnapshot(t, filepath.Join(dir, "snapshot_a.json"))
	assert.Equal(t, int64(2), second.Generation)

	// Third cycle overwrites the now-stale slot B.
	require.NoError(t, worker.ReplicateOnce(context.Background()))
	third := readSnapshot(t, filepath.Join(dir, "snapshot_b.json"))
	assert.Equal(t, int64(3), third.Generation)
}

func TestReplicateOnce_SkipsWhenRemoteIsNewer(t *testing.T) {
	dir := t.TempDir()
	worker, _ := newTestWorker(t, dir)

	require.NoError(t, worker.ReplicateOnce(context.Background()))

	// Another instance pushed a newer snapshot into slot A.
	remote := Snapshot{Generation: 9, CreatedAt: time.Now().UTC()}
	data, err := json.Marshal(remote)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshot_a.json"), data, 0o644))

	require.NoError(t, worker.ReplicateOnce(context.Background()))

	// Slot B still holds generation 1; the local push was skipped.
	stale := readSnapshot(t, filepath.Join(dir, "snapshot_b.json"))
	assert.Equal(t, int64(1), stale.Generation)

	// Having adopted the remote generation, the next cycle resumes pushing.
	require.NoError(t, worker.ReplicateOnce(context.Background()))
	resumed := readSnapshot(t, filepath.Join(dir, "snapshot_b.json"))
	assert.Equal(t, int64(10), resumed.Generation)
}

func TestReplicateOnce_IgnoresCorruptSlot(t *testing.T) {
	dir := t.TempDir()
	worker, _ := newTestWorker(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "snapshot_a.json"), []byte("{not json"), 0o644))

	require.NoError(t, worker.ReplicateOnce(context.Background()))
	snapshot := readSnapshot(t, filepath.Join(dir, "snapshot_b.json"))
	assert.Equal(t, int64(1), snapshot.Generation)
}

func TestRun_DisabledReturnsImmediately(t *testing.T) {
	worker, _ := newTestWorker(t, "")
	worker.cfg.Enabled = false

	done := make(chan struct{})
	go func() {
		worker.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit when disabled")
	}
}
