package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/irrigation-advisor/internal/weather"
)

const (
	defaultInterval = 15 * time.Minute
	fetchTimeout    = 30 * time.Second
)

// Fetcher refreshes stored weather for one location.
type Fetcher interface {
	FetchAndStore(ctx context.Context, loc weather.Location) (weather.Snapshot, error)
}

// Scheduler periodically refreshes weather for the tracked farm locations so
// recommendations are served from a warm cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	fetcher   Fetcher
	locations []weather.Location
	interval  time.Duration
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, fetcher Fetcher) *Scheduler {
	if interval < time.Minute {
		interval = defaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		fetcher:   fetcher,
		locations: locations,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		log.Println("INFO: scheduler: no locations configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("INFO: scheduler: refreshing %d locations every %s", len(s.locations), s.interval)
	return nil
}

// RunOnce fetches every location concurrently and returns how many succeeded.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	log.Println("INFO: scheduler: running weather fetch job")

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, loc := range s.locations {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			if _, err := s.fetcher.FetchAndStore(ctx, loc); err != nil {
				log.Printf("WARN: scheduler: fetch failed for %s: %v", loc.Key(), err)
				return
			}
			mu.Lock()
			ok++
			mu.Unlock()
		}()
	}
	wg.Wait()

	log.Printf("INFO: scheduler: completed weather fetch job (%d/%d locations)", ok, len(s.locations))
	return ok
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
