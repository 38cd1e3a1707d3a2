// Package janitor runs periodic housekeeping: expired sessions are purged and
// uploaded files that no media row references are swept after a grace period.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/models"
	"github.com/Pauline-WN/AjaliApp/internal/repository"
	"github.com/Pauline-WN/AjaliApp/internal/storage"
)

// BlobLister is implemented by blob stores that can enumerate their content.
type BlobLister interface {
	List(ctx context.Context) ([]storage.BlobInfo, error)
	URL(key string) string
	Delete(ctx context.Context, key string, kind models.MediaType) error
}

type Config struct {
	SessionPurgeSpec string
	OrphanSweepSpec  string
	OrphanGrace      time.Duration
}

type Janitor struct {
	cron     *cron.Cron
	sessions repository.SessionRepository
	media    repository.MediaRepository
	blobs    BlobLister
	grace    time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// New schedules the jobs described by cfg. blobs may be nil, in which case
// only sessions are purged.
func New(cfg Config, sessions repository.SessionRepository, media repository.MediaRepository, blobs BlobLister, logger *zap.Logger) (*Janitor, error) {
	j := &Janitor{
		cron:     cron.New(),
		sessions: sessions,
		media:    media,
		blobs:    blobs,
		grace:    cfg.OrphanGrace,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}

	if _, err := j.cron.AddFunc(cfg.SessionPurgeSpec, func() { j.PurgeSessions(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid session purge schedule %q: %w", cfg.SessionPurgeSpec, err)
	}
	if blobs != nil {
		if _, err := j.cron.AddFunc(cfg.OrphanSweepSpec, func() { j.SweepOrphans(context.Background()) }); err != nil {
			return nil, fmt.Errorf("invalid orphan sweep schedule %q: %w", cfg.OrphanSweepSpec, err)
		}
	}
	return j, nil
}

// Run starts the scheduler and blocks until ctx is done and running jobs
// have finished.
func (j *Janitor) Run(ctx context.Context) {
	j.cron.Start()
	j.logger.Info("Janitor started", zap.Int("jobs", len(j.cron.Entries())))
	<-ctx.Done()
	<-j.cron.Stop().Done()
	j.logger.Info("Janitor stopped")
}

func (j *Janitor) PurgeSessions(ctx context.Context) int64 {
	removed, err := j.sessions.DeleteExpiredSessions(ctx, j.now())
	if err != nil {
		j.logger.Error("Session purge failed", zap.Error(err))
		return 0
	}
	if removed > 0 {
		j.logger.Info("Purged expired sessions", zap.Int64("count", removed))
	}
	return removed
}

// SweepOrphans deletes blobs older than the grace period that no media row
// points at. These are left behind when the process dies between writing a
// blob and recording it, or when a blob delete fails after a report is
// removed. Young blobs are skipped so in-flight uploads are not raced.
func (j *Janitor) SweepOrphans(ctx context.Context) int {
	blobs, err := j.blobs.List(ctx)
	if err != nil {
		j.logger.Error("Orphan sweep failed to list blobs", zap.Error(err))
		return 0
	}

	cutoff := j.now().Add(-j.grace)
	removed := 0
	for _, blob := range blobs {
		if blob.ModTime.After(cutoff) {
			continue
		}
		referenced, err := j.media.IsReferenced(ctx, j.blobs.URL(blob.Key))
		if err != nil {
			j.logger.Error("Orphan sweep aborted", zap.Error(err))
			return removed
		}
		if referenced {
			continue
		}
		if err := j.blobs.Delete(ctx, blob.Key, ""); err != nil {
			j.logger.Error("Failed to delete orphaned blob", zap.String("key", blob.Key), zap.Error(err))
			continue
		}
		j.logger.Info("Deleted orphaned blob", zap.String("key", blob.Key))
		removed++
	}
	return removed
}
