package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LocalBackup is the SnapshotStore fallback for runs without object-storage
// credentials: the same artifacts, written to a local directory instead, so
// development runs keep their audit trail.
type LocalBackup struct {
	dir string
	now func() time.Time
}

// NewLocalBackup creates the backup directory tree if needed.
func NewLocalBackup(dir string) (*LocalBackup, error) {
	for _, sub := range []string{"snapshots", "logs"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("local backup: create dir: %w", err)
		}
	}
	return &LocalBackup{dir: dir, now: time.Now}, nil
}

// Snapshot writes payload as snapshots/{label}_{date}.json under the backup
// directory.
func (b *LocalBackup) Snapshot(_ context.Context, label string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("local backup: marshal snapshot %s: %w", label, err)
	}

	name := fmt.Sprintf("%s_%s.json", sanitizeLabel(label), b.now().Format("2006-01-02"))
	path := filepath.Join(b.dir, "snapshots", name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("local backup: write %s: %w", path, err)
	}
	return nil
}

// PutLog writes the run-log text under logs/{name}.log.
func (b *LocalBackup) PutLog(_ context.Context, name, text string) error {
	path := filepath.Join(b.dir, "logs", sanitizeLabel(name)+".log")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("local backup: write %s: %w", path, err)
	}
	return nil
}
