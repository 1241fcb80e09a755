package updater

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	backupBinary = "lightnode.backup"
	backupMeta   = "backup.json"
)

type backupMetadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	ExecPath  string    `json:"exec_path"`
}

// backupStore keeps one copy of the binary that ran before the last update.
type backupStore struct {
	mu   sync.RWMutex
	dir  string
	meta *backupMetadata
}

func defaultBackupDir() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	return filepath.Join(cache, "lightnode", "backup"), nil
}

func openBackupStore(dir string) (*backupStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	store := &backupStore{dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, backupMeta))
	if err != nil {
		return store, nil
	}
	var meta backupMetadata
	if json.Unmarshal(data, &meta) != nil {
		return store, nil
	}
	if _, err := os.Stat(filepath.Join(dir, backupBinary)); err == nil {
		store.meta = &meta
	}
	return store, nil
}

func (b *backupStore) available() (bool, string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.meta == nil {
		return false, ""
	}
	return true, b.meta.Version
}

// save copies execPath into the store and records which version it was.
func (b *backupStore) save(execPath, version string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := copyExecutable(execPath, filepath.Join(b.dir, backupBinary)); err != nil {
		return err
	}

	meta := &backupMetadata{Version: version, CreatedAt: time.Now(), ExecPath: execPath}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(b.dir, backupMeta+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup metadata: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(b.dir, backupMeta)); err != nil {
		return fmt.Errorf("failed to write backup metadata: %w", err)
	}
	b.meta = meta
	return nil
}

// restore puts the saved binary back at the path it was taken from.
func (b *backupStore) restore() error {
	b.mu.RLock()
	meta := b.meta
	b.mu.RUnlock()
	if meta == nil {
		return os.ErrNotExist
	}

	// Write next to the target, then rename over it so a running
	// executable is never truncated in place.
	staged := meta.ExecPath + ".rollback"
	if err := copyExecutable(filepath.Join(b.dir, backupBinary), staged); err != nil {
		return err
	}
	if err := os.Rename(staged, meta.ExecPath); err != nil {
		os.Remove(staged)
		return fmt.Errorf("failed to replace %s: %w", meta.ExecPath, err)
	}
	return nil
}

func copyExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
