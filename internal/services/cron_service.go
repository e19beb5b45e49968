package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/database"
)

// backupLayout names each snapshot directory
const backupLayout = "20060102T150405Z"

// CronService takes scheduled snapshots of the ledger into timestamped
// file store directories
type CronService struct {
	cron         *cron.Cron
	reservations *ReservationService
	codec        database.Codec
	dir          string
	keep         int
	now          func() time.Time
	logger       *logrus.Logger

	mu       sync.Mutex
	lastRun  time.Time
	lastDir  string
	lastErr  error
	runCount int
}

// NewCronService creates a new CronService. keep <= 0 keeps every snapshot.
func NewCronService(
	reservations *ReservationService,
	codec database.Codec,
	dir string,
	keep int,
	now func() time.Time,
	logger *logrus.Logger,
) *CronService {
	if now == nil {
		now = time.Now
	}
	return &CronService{
		cron:         cron.New(cron.WithSeconds()),
		reservations: reservations,
		codec:        codec,
		dir:          dir,
		keep:         keep,
		now:          now,
		logger:       logger,
	}
}

// Start schedules the backup job and starts the scheduler.
// Cron format: second minute hour day month weekday
func (s *CronService) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.backupJob); err != nil {
		return fmt.Errorf("failed to schedule ledger backup job: %w", err)
	}
	s.cron.Start()

	s.logger.WithFields(logrus.Fields{
		"schedule": schedule,
		"dir":      s.dir,
		"keep":     s.keep,
	}).Info("Ledger backup job scheduled")
	return nil
}

// Stop stops the scheduler and waits for a running job
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) backupJob() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.RunBackupNow(ctx); err != nil {
		s.logger.WithError(err).Error("[CRON] Ledger backup failed")
	}
}

// RunBackupNow writes a snapshot immediately and prunes old ones. It
// returns the snapshot directory.
func (s *CronService) RunBackupNow(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	target := filepath.Join(s.dir, s.now().UTC().Format(backupLayout))

	err := s.writeSnapshot(ctx, target)
	if err == nil {
		err = s.prune()
	}

	s.lastRun = s.now()
	s.lastErr = err
	s.runCount++
	if err != nil {
		return "", err
	}
	s.lastDir = target

	s.logger.WithFields(logrus.Fields{
		"dir":         target,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Ledger backup written")
	return target, nil
}

func (s *CronService) writeSnapshot(ctx context.Context, target string) error {
	store, err := database.NewFileStore(target, s.codec)
	if err != nil {
		return fmt.Errorf("failed to open backup directory: %w", err)
	}
	if err := store.Save(ctx, s.reservations.Snapshot()); err != nil {
		return fmt.Errorf("failed to write ledger backup: %w", err)
	}
	return nil
}

// prune removes the oldest snapshots beyond the retention count
func (s *CronService) prune() error {
	if s.keep <= 0 {
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	var snapshots []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := time.Parse(backupLayout, entry.Name()); err != nil {
			continue
		}
		snapshots = append(snapshots, entry.Name())
	}
	sort.Strings(snapshots)

	for len(snapshots) > s.keep {
		if err := os.RemoveAll(filepath.Join(s.dir, snapshots[0])); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", snapshots[0], err)
		}
		s.logger.WithField("backup", snapshots[0]).Debug("Old ledger backup removed")
		snapshots = snapshots[1:]
	}
	return nil
}

// GetJobStatus returns the scheduled jobs and the last backup result
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
		"runs":      s.runCount,
	}
	if !s.lastRun.IsZero() {
		status["last_run"] = s.lastRun
		status["last_backup"] = s.lastDir
	}
	if s.lastErr != nil {
		status["last_error"] = s.lastErr.Error()
	}
	return status
}
