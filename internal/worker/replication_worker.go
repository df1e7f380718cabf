package worker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/equipment-checkout/internal/config"
	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/repository"
)

var slotFiles = [2]string{"snapshot_a.json", "snapshot_b.json"}

// Snapshot is the serialized replica payload written to a slot file.
type Snapshot struct {
	Generation   int64                `json:"generation"`
	CreatedAt    time.Time            `json:"created_at"`
	Assets       []domain.Asset       `json:"assets"`
	Technicians  []domain.Technician  `json:"technicians"`
	Transactions []domain.Transaction `json:"transactions"`
	Audit        []domain.AuditEntry  `json:"audit"`
}

// ReplicationWorker periodically copies the full dataset into alternating
// slot files under a target directory. It only reads application state and
// is never called from request handling.
type ReplicationWorker struct {
	cfg          config.ReplicationConfig
	logger       *zap.Logger
	assets       repository.AssetRepository
	technicians  repository.TechnicianRepository
	transactions repository.TransactionRepository
	audit        repository.AuditRepository

	lastGeneration int64
}

// NewReplicationWorker constructs the worker.
func NewReplicationWorker(
	cfg config.ReplicationConfig,
	logger *zap.Logger,
	assets repository.AssetRepository,
	technicians repository.TechnicianRepository,
	transactions repository.TransactionRepository,
	audit repository.AuditRepository,
) *ReplicationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplicationWorker{
		cfg:          cfg,
		logger:       logger,
		assets:       assets,
		technicians:  technicians,
		transactions: transactions,
		audit:        audit,
	}
}

// Run replicates on the configured interval until ctx is cancelled.
func (w *ReplicationWorker) Run(ctx context.Context) {
	if !w.cfg.Enabled || w.cfg.TargetDir == "" {
		w.logger.Info("replication disabled")
		return
	}

	ticker := time.NewTicker(w.cfg.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("replication worker stopped")
			return
		case <-ticker.C:
			if err := w.ReplicateOnce(ctx); err != nil {
				w.logger.Warn("replication cycle failed", zap.Error(err))
			}
		}
	}
}

// ReplicateOnce writes one snapshot into the stale slot. When another writer
// has advanced the remote generation past ours, the local push is skipped for
// this cycle so the fresher copy is not clobbered.
func (w *ReplicationWorker) ReplicateOnce(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.TargetDir, 0o755); err != nil {
		return err
	}

	gens := [2]int64{}
	for i, name := range slotFiles {
		gens[i] = w.readGeneration(filepath.Join(w.cfg.TargetDir, name))
	}

	newest := gens[0]
	staleSlot := 1
	if gens[1] > gens[0] {
		newest = gens[1]
		staleSlot = 0
	}

	if w.lastGeneration > 0 && newest > w.lastGeneration {
		w.logger.Info("remote snapshot is newer, skipping push",
			zap.Int64("remote_generation", newest),
			zap.Int64("local_generation", w.lastGeneration))
		w.lastGeneration = newest
		return nil
	}

	snapshot, err := w.collect(ctx)
	if err != nil {
		return err
	}
	snapshot.Generation = newest + 1

	if err := w.writeSlot(filepath.Join(w.cfg.TargetDir, slotFiles[staleSlot]), snapshot); err != nil {
		return err
	}
	w.lastGeneration = snapshot.Generation

	w.logger.Info("replication cycle complete",
		zap.String("slot", slotFiles[staleSlot]),
		zap.Int64("generation", snapshot.Generation),
		zap.Int("assets", len(snapshot.Assets)),
		zap.Int("transactions", len(snapshot.Transactions)))
	return nil
}

func (w *ReplicationWorker) collect(ctx context.Context) (*Snapshot, error) {
	assets, err := w.assets.List(ctx, repository.AssetFilter{})
	if err != nil {
		return nil, err
	}
	technicians, err := w.technicians.List(ctx, 10000, 0)
	if err != nil {
		return nil, err
	}
	transactions, err := w.transactions.ListWithFilter(ctx, repository.TransactionFilter{Limit: 10000})
	if err != nil {
		return nil, err
	}
	audit, err := w.audit.ListWithFilter(ctx, repository.AuditFilter{Limit: 10000})
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		CreatedAt:    time.Now().UTC(),
		Assets:       assets,
		Technicians:  technicians,
		Transactions: transactions,
		Audit:        audit,
	}, nil
}

func (w *ReplicationWorker) readGeneration(path string) int64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	var header struct {
		Generation int64 `json:"generation"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		w.logger.Warn("unreadable snapshot slot", zap.String("path", path), zap.Error(err))
		return 0
	}
	return header.Generation
}

func (w *ReplicationWorker) writeSlot(path string, snapshot *Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
