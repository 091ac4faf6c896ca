package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/i474232898/irrigation-advisor/internal/metrics"
)

const (
	// MaxForecastDays is the longest forecast the service aggregates.
	MaxForecastDays = 7

	defaultCacheTTL = 10 * time.Minute
)

var (
	ErrNoProviders = errors.New("no weather providers configured")
	ErrNoData      = errors.New("no weather data available")
	ErrInvalidDays = fmt.Errorf("days must be between 1 and %d", MaxForecastDays)
)

// ServiceConfig tunes caching and day bucketing.
type ServiceConfig struct {
	// CacheTTL bounds how long a fetched snapshot or forecast is served
	// without asking providers again. Zero means 10 minutes.
	CacheTTL time.Duration
	// TimeZone decides which calendar day a forecast reading falls on.
	// Nil means UTC.
	TimeZone *time.Location
}

type cacheEntry struct {
	snapshot  Snapshot
	forecast  Forecast
	fetchedAt time.Time
}

// CacheStats describes the service cache.
type CacheStats struct {
	Size      int          `json:"size"`
	TTL       string       `json:"ttl"`
	Hits      int64        `json:"hits"`
	Misses    int64        `json:"misses"`
	Providers []string     `json:"providers"`
	History   HistoryStats `json:"history"`
}

// Service orchestrates fetching from multiple providers, caching the result
// and persisting snapshots.
type Service struct {
	store     Store
	providers []Provider
	ttl       time.Duration
	tz        *time.Location
	now       func() time.Time

	mu     sync.Mutex
	cache  map[string]cacheEntry
	hits   int64
	misses int64
}

// NewService creates a new Service.
func NewService(store Store, providers []Provider, cfg ServiceConfig) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.TimeZone == nil {
		cfg.TimeZone = time.UTC
	}
	return &Service{
		store:     store,
		providers: providers,
		ttl:       cfg.CacheTTL,
		tz:        cfg.TimeZone,
		now:       time.Now,
		cache:     make(map[string]cacheEntry),
	}
}

// FetchAndStore fetches data from all providers concurrently for the given location,
// aggregates successful readings, and stores a snapshot.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) (Snapshot, error) {
	if len(s.providers) == 0 {
		return Snapshot{}, ErrNoProviders
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []ProviderReading
	)

	for _, p := range s.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()

			r, err := p.Fetch(ctx, loc)
			if err != nil {
				// Partial success is fine; one provider down should not blank the snapshot.
				log.Printf("WARN: provider %s fetch failed for %s: %v", p.Name(), loc.Key(), err)
				return
			}

			mu.Lock()
			readings = append(readings, r)
			mu.Unlock()
		}(p)
	}

	wg.Wait()

	if len(readings) == 0 {
		// Keep the last good snapshot in the store untouched.
		return Snapshot{}, fmt.Errorf("%w for %s", ErrNoData, loc.Key())
	}

	// Goroutines finish in any order; keep aggregation stable.
	sort.Slice(readings, func(i, j int) bool {
		return readings[i].ProviderName < readings[j].ProviderName
	})

	snapshot := AggregateReadings(loc, readings)
	s.store.SaveSnapshot(loc, snapshot)

	s.mu.Lock()
	s.cache[currentKey(loc)] = cacheEntry{snapshot: snapshot, fetchedAt: s.now()}
	s.mu.Unlock()

	return snapshot, nil
}

// Current returns a snapshot no older than the cache TTL, fetching from
// providers when the cached one has expired.
func (s *Service) Current(ctx context.Context, loc Location) (Snapshot, error) {
	if entry, ok := s.lookup(currentKey(loc), "current"); ok {
		return entry.snapshot, nil
	}
	return s.FetchAndStore(ctx, loc)
}

// Forecast fetches multi-day forecasts from providers that support it,
// aggregates them per local day, and returns at most days entries.
func (s *Service) Forecast(ctx context.Context, loc Location, days int) (Forecast, error) {
	if days < 1 || days > MaxForecastDays {
		return nil, ErrInvalidDays
	}

	key := forecastKey(loc, days)
	if entry, ok := s.lookup(key, "forecast"); ok {
		return entry.forecast, nil
	}

	type dayKey string

	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		dayReadings   = make(map[dayKey][]ProviderReading)
		dayTimestamps = make(map[dayKey]time.Time)
		forecasters   int
	)

	for _, p := range s.providers {
		fp, ok := p.(ForecastProvider)
		if !ok {
			continue
		}
		forecasters++

		wg.Add(1)
		go func(fp ForecastProvider) {
			defer wg.Done()

			readings, err := fp.FetchForecast(ctx, loc, days)
			if err != nil {
				log.Printf("WARN: provider %s forecast failed for %s: %v", fp.Name(), loc.Key(), err)
				return
			}

			mu.Lock()
			defer mu.Unlock()

			for _, r := range readings {
				ts := r.Timestamp.In(s.tz)
				k := dayKey(ts.Format("2006-01-02"))

				dayReadings[k] = append(dayReadings[k], r)

				if _, exists := dayTimestamps[k]; !exists {
					dayTimestamps[k] = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, s.tz).UTC()
				}
			}
		}(fp)
	}

	if forecasters == 0 {
		return nil, ErrNoProviders
	}

	wg.Wait()

	if len(dayReadings) == 0 {
		return nil, fmt.Errorf("%w: no forecast for %s", ErrNoData, loc.Key())
	}

	keys := make([]string, 0, len(dayReadings))
	for k := range dayReadings {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	forecast := make(Forecast, 0, days)
	for _, k := range keys {
		if len(forecast) >= days {
			break
		}

		dk := dayKey(k)
		readings := dayReadings[dk]
		sort.Slice(readings, func(i, j int) bool {
			return readings[i].ProviderName < readings[j].ProviderName
		})

		snapshot := AggregateReadings(loc, readings)
		snapshot.Timestamp = dayTimestamps[dk]
		forecast = append(forecast, snapshot)
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{forecast: forecast, fetchedAt: s.now()}
	s.mu.Unlock()

	return forecast, nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (Snapshot, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]Snapshot, error) {
	return s.store.GetRange(loc, from, to)
}

// Stats reports cache usage and stored history.
func (s *Service) Stats() CacheStats {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return CacheStats{
		Size:      len(s.cache),
		TTL:       s.ttl.String(),
		Hits:      s.hits,
		Misses:    s.misses,
		Providers: names,
		History:   s.store.Stats(),
	}
}

// ClearCache drops every cached snapshot and forecast. Stored history is kept.
func (s *Service) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[string]cacheEntry)
	s.mu.Unlock()
	log.Println("INFO: weather cache cleared")
}

// lookup returns a fresh cache entry and records the hit or miss.
func (s *Service) lookup(key, kind string) (cacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[key]
	if ok && s.now().Sub(entry.fetchedAt) < s.ttl {
		s.hits++
		metrics.WeatherCacheTotal.WithLabelValues(kind, "hit").Inc()
		return entry, true
	}
	if ok {
		delete(s.cache, key)
	}
	s.misses++
	metrics.WeatherCacheTotal.WithLabelValues(kind, "miss").Inc()
	return cacheEntry{}, false
}

func currentKey(loc Location) string {
	return "current:" + loc.Key()
}

func forecastKey(loc Location, days int) string {
	return "forecast:" + loc.Key() + ":" + strconv.Itoa(days)
}
