package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/night-courses/internal/catalog"
	"github.com/pfrederiksen/night-courses/internal/config"
	"github.com/pfrederiksen/night-courses/internal/filter"
	"github.com/pfrederiksen/night-courses/internal/logger"
	"github.com/pfrederiksen/night-courses/internal/nusmods"
	"github.com/pfrederiksen/night-courses/internal/storage"
)

// runResult is the outcome of one fetch and filter pass
type runResult struct {
	Grouping catalog.Grouping
	Stats    filter.Stats
	Filter   *filter.Filter
	Duration time.Duration
}

func openStorage(cfg config.Config) (*storage.Storage, error) {
	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	store, err := storage.New(dir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

func newFilter(cfg config.Config) (*filter.Filter, error) {
	eveningStart, err := filter.ParseEveningStart(cfg.Filter.EveningStart)
	if err != nil {
		return nil, err
	}
	f := filter.NewFilter()
	f.EveningStart = eveningStart
	f.Semesters = append(f.Semesters, cfg.Filter.Semesters...)
	f.Faculties = append(f.Faculties, cfg.Filter.Faculties...)
	return f, nil
}

// fetchGrouping fetches the catalog and every module's details, then applies the
// night-course filter. Only a catalog failure or cancellation is an error.
func fetchGrouping(ctx context.Context, cfg config.Config, store *storage.Storage) (*runResult, error) {
	start := time.Now()

	f, err := newFilter(cfg)
	if err != nil {
		return nil, err
	}

	var cache *nusmods.Cache
	if cfg.Cache.Enabled {
		cache = nusmods.NewCache(cfg.Cache.TTL)
		entries, err := store.LoadDetailCache(cfg.AcademicYear)
		if err != nil {
			logger.Warn("Ignoring unreadable detail cache", logger.Fields{"error": err.Error()})
		} else {
			logger.Debug("Restored detail cache", logger.Fields{"entries": cache.Restore(entries)})
		}
	}

	client := nusmods.New(nusmods.Options{
		YearURL:     cfg.YearURL(),
		Timeout:     cfg.Fetch.Timeout,
		Concurrency: cfg.Fetch.Concurrency,
		Retries:     cfg.Fetch.Retries,
		Cache:       cache,
	})
	defer client.Close()

	summaries, err := client.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	details := client.FetchAllDetails(ctx, nusmods.Codes(summaries))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch interrupted: %w", err)
	}

	if cache != nil {
		cache.CleanExpired()
		if err := store.SaveDetailCache(cfg.AcademicYear, cache.Entries()); err != nil {
			logger.Warn("Failed to save detail cache", logger.Fields{"error": err.Error()})
		}
	}

	g, stats := f.Apply(details)
	for _, s := range catalog.Semesters {
		logger.SetGauge(fmt.Sprintf("night_courses.semester_%d", s), float64(g.Count(s)))
	}
	logger.Info("Filtered night courses", logger.Fields{
		"filter":  f.String(),
		"modules": stats.Modules,
		"absent":  stats.Absent,
		"courses": g.Total(),
	})

	return &runResult{
		Grouping: g,
		Stats:    stats,
		Filter:   f,
		Duration: time.Since(start),
	}, nil
}
