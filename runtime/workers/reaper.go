package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/ItsSkellyHer3/ChatIfy/repositories"
)

// ArtifactStore is the file-store collaborator the reaper evicts from.
type ArtifactStore interface {
	ListOlderThan(age time.Duration) ([]string, error)
	Delete(name string) error
}

// Reaper periodically expires stale state: users whose liveness timestamp
// aged past userTTL and uploaded artifacts older than artifactTTL.
// The two sub-steps are independent; a failure in one is logged and
// swallowed so the loop always reaches the next tick.
type Reaper struct {
	log         *slog.Logger
	users       repositories.IUserRepository
	artifacts   ArtifactStore
	interval    time.Duration
	userTTL     time.Duration
	artifactTTL time.Duration
}

func NewReaper(log *slog.Logger, users repositories.IUserRepository, artifacts ArtifactStore,
	interval, userTTL, artifactTTL time.Duration) *Reaper {
	return &Reaper{
		log:         log,
		users:       users,
		artifacts:   artifacts,
		interval:    interval,
		userTTL:     userTTL,
		artifactTTL: artifactTTL,
	}
}

// Run loops until the context is canceled. A cycle interrupted by
// shutdown is simply completed on the next start; cycles are not atomic.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("Context done, stopping reaper")
			return nil
		case <-ticker.C:
			r.Cycle(time.Now().UTC())
		}
	}
}

// Cycle performs one reaping pass. Exported so startup code or tests can
// trigger a pass without waiting for the ticker.
func (r *Reaper) Cycle(now time.Time) {
	if deleted, err := r.users.DeleteInactiveSince(now.Add(-r.userTTL)); err != nil {
		r.log.Error("User expiry failed", "error", err)
	} else if deleted > 0 {
		r.log.Info("Expired inactive users", "count", deleted)
	}

	names, err := r.artifacts.ListOlderThan(r.artifactTTL)
	if err != nil {
		r.log.Error("Artifact listing failed", "error", err)
		return
	}
	for _, name := range names {
		if err := r.artifacts.Delete(name); err != nil {
			// File may already be gone; not worth aborting the pass.
			r.log.Warn("Artifact eviction failed", "file", name, "error", err)
			continue
		}
		r.log.Info("Deleted stale upload", "file", name)
	}
}
