package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"
	"github.com/sourcegraph/conc"

	"github.com/cineza/cineza-server/internal/config"
	"github.com/cineza/cineza-server/internal/genre"
	"github.com/cineza/cineza-server/internal/logger"
	"github.com/cineza/cineza-server/internal/service"
)

// WarmupJob preloads genre names and rebuilds an empty catalog index in the background.
type WarmupJob struct {
	cancel context.CancelFunc
	wg     *conc.WaitGroup
}

// Shutdown implements do.Shutdownable.
func (j *WarmupJob) Shutdown() error {
	j.cancel()
	j.wg.Wait()
	return nil
}

// ProvideWarmupJob starts the startup warmup.
func ProvideWarmupJob(i do.Injector) (*WarmupJob, error) {
	genres := do.MustInvoke[*genre.Cache](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
	wg := conc.NewWaitGroup()

	wg.Go(func() {
		if err := genres.EnsureAll(ctx); err != nil {
			// Lookups retry the load lazily and resolve to "Loading" until then.
			log.Warn("Genre warmup failed", "error", err)
			return
		}
		log.Info("Genres loaded")
	})

	wg.Go(func() {
		docCount, err := indexHandle.Count()
		if err != nil || docCount > 0 {
			return
		}
		n, err := catalog.Reindex(ctx)
		if err != nil {
			log.Error("Initial catalog reindex failed", "error", err, "indexed", n)
			return
		}
		if n > 0 {
			log.Info("Initial catalog reindex completed", "documents", n)
		}
	})

	go func() {
		wg.Wait()
		cancel()
	}()

	return &WarmupJob{cancel: cancel, wg: wg}, nil
}

// SymmetrySweepJob periodically repairs one-sided follow edges.
type SymmetrySweepJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (j *SymmetrySweepJob) Shutdown() error {
	j.cancel()
	<-j.done
	return nil
}

// ProvideSymmetrySweepJob provides the follow graph repair job.
func ProvideSymmetrySweepJob(i do.Injector) (*SymmetrySweepJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	social := do.MustInvoke[*service.SocialService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	job := &SymmetrySweepJob{cancel: cancel, done: make(chan struct{})}

	sweep := func() {
		report, err := social.RepairSymmetry(ctx)
		switch {
		case err != nil:
			log.Warn("Follow symmetry sweep failed", "error", err)
		case report.Added > 0 || report.Removed > 0:
			log.Info("Follow symmetry repaired",
				"checked", report.Checked,
				"added", report.Added,
				"removed", report.Removed,
			)
		}
	}

	interval := cfg.Social.SymmetrySweepInterval
	go func() {
		defer close(job.done)

		// Initial sweep on startup
		sweep()
		if interval <= 0 {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sweep()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Follow symmetry sweep started", "interval", interval)

	return job, nil
}
