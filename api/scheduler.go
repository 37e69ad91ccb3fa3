/*
scheduler.go - Automated backup scheduler

PURPOSE:
  Periodically writes the portable export document to a directory, so a
  copy of the ledger survives loss of the primary store.

DESIGN:
  - Runs on a cron schedule (robfig/cron) in the server process
  - Writes once on start, then on every scheduled run
  - One file per day (loan-manager-backup-YYYY-MM-DD.json); a later run on
    the same day overwrites it
  - Files are written to a temp name and renamed into place
  - Skips the run while the ledger is not loaded

CONFIGURATION:
  - Dir:      Target directory (BACKUP_DIR). Empty disables the scheduler.
  - Schedule: Cron spec (BACKUP_SCHEDULE, default: @daily). Accepts the
              five-field form ("0 3 * * *") and descriptors ("@every 6h").

USAGE:
  scheduler, err := NewBackupScheduler(ledger, dir, "@daily", logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Export endpoint (manual download)
  - ledger/snapshot.go: Document format
*/
package api

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/warp/loan-ledger/ledger"
)

// DefaultBackupSchedule runs one backup a day at midnight.
const DefaultBackupSchedule = "@daily"

// BackupScheduler writes periodic export files.
type BackupScheduler struct {
	Ledger   *ledger.Ledger
	Dir      string
	Schedule string
	Logger   *slog.Logger

	now      func() time.Time
	schedule cron.Schedule
	cron     *cron.Cron
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewBackupScheduler creates a new scheduler. An empty spec uses
// DefaultBackupSchedule.
func NewBackupScheduler(l *ledger.Ledger, dir, spec string, logger *slog.Logger) (*BackupScheduler, error) {
	if spec == "" {
		spec = DefaultBackupSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupScheduler{
		Ledger:   l,
		Dir:      dir,
		Schedule: spec,
		Logger:   logger,
		now:      time.Now,
		schedule: schedule,
	}, nil
}

// Enabled reports whether a target directory is configured.
func (bs *BackupScheduler) Enabled() bool {
	return bs.Dir != ""
}

// Start runs a backup in the background and schedules the following ones.
func (bs *BackupScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled() {
		bs.Logger.Info("backup scheduler disabled, not starting")
		return
	}
	if bs.cron != nil {
		return
	}

	bs.cron = cron.New(cron.WithLogger(cronLogger{bs.Logger}))
	bs.cron.Schedule(bs.schedule, cron.FuncJob(bs.backup))
	bs.cron.Start()

	// Run immediately on start
	bs.wg.Add(1)
	go func() {
		defer bs.wg.Done()
		bs.backup()
	}()

	bs.Logger.Info("backup scheduler started", "dir", bs.Dir, "schedule", bs.Schedule)
}

// Stop stops the scheduler and waits for a running backup to finish.
func (bs *BackupScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.cron != nil {
		<-bs.cron.Stop().Done()
		bs.wg.Wait()
		bs.cron = nil
		bs.Logger.Info("backup scheduler stopped")
	}
}

func (bs *BackupScheduler) backup() {
	path, err := bs.RunNow()
	if err != nil {
		bs.Logger.Error("backup failed", "error", err)
		return
	}
	if path != "" {
		bs.Logger.Info("backup written", "path", path)
	}
}

// RunNow writes a backup immediately and returns its path. It returns an
// empty path when the ledger is not loaded.
func (bs *BackupScheduler) RunNow() (string, error) {
	if bs.Ledger.State() != ledger.StateLoaded {
		bs.Logger.Debug("backup skipped, ledger not loaded")
		return "", nil
	}
	if err := os.MkdirAll(bs.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(bs.Dir, ledger.ExportFilename(bs.now()))
	tmp, err := os.CreateTemp(bs.Dir, ".backup-*.json")
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := bs.Ledger.WriteExport(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move backup into place: %w", err)
	}
	return path, nil
}

// NextRunTime returns when the next scheduled backup will occur.
func (bs *BackupScheduler) NextRunTime() time.Time {
	return bs.schedule.Next(bs.now())
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
