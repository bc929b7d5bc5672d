package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/melodix/server/internal/service"
)

// Manager schedules the recurring maintenance jobs: playlist stats
// recomputation and album orphan reaping.
type Manager struct {
	cron        *cron.Cron
	maintenance *service.MaintenanceService
	albums      *service.AlbumService

	statsSchedule string
	reapSchedule  string
}

// NewManager creates the scheduler. Schedules use standard five-field cron
// expressions.
func NewManager(maintenance *service.MaintenanceService, albums *service.AlbumService, statsSchedule, reapSchedule string) *Manager {
	return &Manager{
		cron:          cron.New(cron.WithLocation(time.Local)),
		maintenance:   maintenance,
		albums:        albums,
		statsSchedule: statsSchedule,
		reapSchedule:  reapSchedule,
	}
}

// Start registers the jobs and starts the scheduler.
func (m *Manager) Start() error {
	_, err := m.cron.AddFunc(m.statsSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		log.Println("=== Starting scheduled playlist stats job ===")
		start := time.Now()
		if n, err := m.maintenance.RecalculatePlaylistStats(ctx); err != nil {
			log.Printf("Playlist stats job failed: %v", err)
		} else {
			log.Printf("Playlist stats job updated %d playlists in %v", n, time.Since(start))
		}
	})
	if err != nil {
		return err
	}

	_, err = m.cron.AddFunc(m.reapSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		log.Println("=== Starting scheduled album reap job ===")
		if n, err := m.albums.ReapOrphans(ctx); err != nil {
			log.Printf("Album reap job failed: %v", err)
		} else {
			log.Printf("Album reap job removed %d albums", n)
		}
	})
	if err != nil {
		return err
	}

	m.cron.Start()
	log.Printf("Cron manager started - stats %q, reap %q", m.statsSchedule, m.reapSchedule)
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (m *Manager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron manager stopped")
}

// RunStatsNow triggers the stats job immediately, for manual runs.
func (m *Manager) RunStatsNow(ctx context.Context) (int64, error) {
	log.Println("Running playlist stats job immediately...")
	return m.maintenance.RecalculatePlaylistStats(ctx)
}
