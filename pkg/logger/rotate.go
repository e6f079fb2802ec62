package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Audit trail rotation defaults.
const (
	defaultAuditMaxSizeMB  = 100
	defaultAuditBackups    = 7
	defaultAuditMaxAgeDays = 30
)

// auditFile is the writer behind the audit logger. It appends JSON lines
// to a single file and rotates by size, keeping numbered backups where
// audit.log.1 is the newest. Backups past the age bound are pruned on
// each rotation.
type auditFile struct {
	mu      sync.Mutex
	out     *os.File
	written int64

	path    string
	maxSize int64
	backups int
	maxAge  time.Duration
}

func newAuditFile(path string, maxSizeMB, backups, maxAgeDays int) (*auditFile, error) {
	if path == "" {
		return nil, errors.New("audit log path is required")
	}
	if maxSizeMB <= 0 {
		maxSizeMB = defaultAuditMaxSizeMB
	}
	if backups <= 0 {
		backups = defaultAuditBackups
	}
	if maxAgeDays <= 0 {
		maxAgeDays = defaultAuditMaxAgeDays
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}
	return &auditFile{
		path:    path,
		maxSize: int64(maxSizeMB) << 20,
		backups: backups,
		maxAge:  time.Duration(maxAgeDays) * 24 * time.Hour,
	}, nil
}

// Write appends one record, rotating first when the record would push the
// live file past the size bound. The file is opened on first use.
func (f *auditFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.open(); err != nil {
		return 0, err
	}
	if f.written+int64(len(p)) > f.maxSize {
		if err := f.rotate(); err != nil {
			return 0, err
		}
		if err := f.open(); err != nil {
			return 0, err
		}
	}
	n, err := f.out.Write(p)
	f.written += int64(n)
	return n, err
}

func (f *auditFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.out == nil {
		return nil
	}
	err := f.out.Close()
	f.out = nil
	f.written = 0
	return err
}

func (f *auditFile) open() error {
	if f.out != nil {
		return nil
	}
	out, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	info, err := out.Stat()
	if err != nil {
		out.Close()
		return fmt.Errorf("stat audit log: %w", err)
	}
	f.out = out
	f.written = info.Size()
	return nil
}

// rotate shifts audit.log.N to audit.log.N+1 and moves the live file to
// audit.log.1. The oldest backup falls off the end of the shift.
func (f *auditFile) rotate() error {
	if f.out != nil {
		_ = f.out.Close()
		f.out = nil
	}
	f.written = 0

	for i := f.backups - 1; i >= 1; i-- {
		if _, err := os.Stat(f.backupPath(i)); err == nil {
			_ = os.Rename(f.backupPath(i), f.backupPath(i+1))
		}
	}
	if _, err := os.Stat(f.path); err == nil {
		_ = os.Rename(f.path, f.backupPath(1))
	}

	f.pruneExpired()
	return nil
}

func (f *auditFile) backupPath(i int) string {
	return fmt.Sprintf("%s.%d", f.path, i)
}

func (f *auditFile) pruneExpired() {
	if f.maxAge <= 0 {
		return
	}
	cutoff := time.Now().Add(-f.maxAge)
	for i := 1; i <= f.backups; i++ {
		info, err := os.Stat(f.backupPath(i))
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(f.backupPath(i))
		}
	}
}
