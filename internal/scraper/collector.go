package scraper

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"db-vacancy-manager/internal/logging"
	"db-vacancy-manager/internal/models"
	"db-vacancy-manager/internal/parser"
	"db-vacancy-manager/internal/scraper/sources"
	"db-vacancy-manager/internal/storage"
)

// Collector fetches employers and their vacancies from a VacancyAPI, parses them and
// loads them into a Store
type Collector struct {
	api      sources.VacancyAPI
	store    storage.Store
	mirror   storage.Mirror
	progress io.Writer

	logger       *zap.Logger
	parserLogger *zap.Logger

	mu      sync.RWMutex
	metrics Metrics
}

// Snapshot is the deduplicated result of one collection run
type Snapshot struct {
	Employers []models.Employer
	Vacancies []models.Vacancy
}

// Metrics tracks the last load
type Metrics struct {
	EmployersFetched  int64         `json:"employers_fetched"`
	EmployersParsed   int64         `json:"employers_parsed"`
	EmployersInserted int64         `json:"employers_inserted"`
	VacanciesFetched  int64         `json:"vacancies_fetched"`
	VacanciesParsed   int64         `json:"vacancies_parsed"`
	VacanciesInserted int64         `json:"vacancies_inserted"`
	Duplicates        int64         `json:"duplicates"`
	Orphans           int64         `json:"orphans"`
	MirrorErrors      int64         `json:"mirror_errors"`
	Duration          time.Duration `json:"duration"`
	LastRun           time.Time     `json:"last_run"`
}

// Option configures a Collector
type Option func(*Collector)

// WithMirror copies the rows each successful load adds to the store to m
func WithMirror(m storage.Mirror) Option {
	return func(c *Collector) {
		c.mirror = m
	}
}

// WithProgress draws the vacancy progress bar on w
func WithProgress(w io.Writer) Option {
	return func(c *Collector) {
		c.progress = w
	}
}

// NewCollector creates a Collector. logger is the root logger; the collector and the
// parser get their own named children.
func NewCollector(api sources.VacancyAPI, store storage.Store, logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		api:          api,
		store:        store,
		progress:     io.Discard,
		logger:       logger.Named(logging.Collector),
		parserLogger: logger.Named(logging.Parser),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect fetches and parses everything the API returns. Failures of single employers or
// records are logged and skipped; only cancellation of ctx is returned as an error.
func (c *Collector) Collect(ctx context.Context) (Snapshot, error) {
	dedup := NewDeduplicator()

	rawEmployers := c.api.GetEmployers(ctx)
	parsedEmployers := parser.ParseEmployers(rawEmployers, c.parserLogger)
	employers := dedup.UniqueEmployers(parsedEmployers)

	c.mu.Lock()
	c.metrics.EmployersFetched = int64(len(rawEmployers))
	c.metrics.EmployersParsed = int64(len(parsedEmployers))
	c.metrics.Duplicates = int64(len(parsedEmployers) - len(employers))
	c.metrics.VacanciesFetched = 0
	c.metrics.VacanciesParsed = 0
	c.metrics.Orphans = 0
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	bar := progressbar.NewOptions(len(employers),
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetDescription("Загрузка вакансий"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(c.progress) }),
	)

	vacancies := []models.Vacancy{}
	for _, employer := range employers {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, err
		}

		raw := c.api.GetVacancies(ctx, employer.ID())
		parsed := parser.ParseVacancies(raw, c.parserLogger)
		unique := dedup.UniqueVacancies(parsed)

		owned := unique[:0]
		for _, v := range unique {
			if !dedup.HasEmployer(v.EmployerID()) {
				c.logger.Warn("vacancy belongs to an unknown employer",
					zap.Int("vacancy_id", v.ID()),
					zap.Int("employer_id", v.EmployerID()))
				c.mu.Lock()
				c.metrics.Orphans++
				c.mu.Unlock()
				continue
			}
			owned = append(owned, v)
		}
		vacancies = append(vacancies, owned...)

		c.mu.Lock()
		c.metrics.VacanciesFetched += int64(len(raw))
		c.metrics.VacanciesParsed += int64(len(parsed))
		c.metrics.Duplicates += int64(len(parsed) - len(unique))
		c.mu.Unlock()

		_ = bar.Add(1)
	}
	_ = bar.Finish()

	c.logger.Info("collection finished",
		zap.Int("employers", len(employers)),
		zap.Int("vacancies", len(vacancies)))

	return Snapshot{Employers: employers, Vacancies: vacancies}, nil
}

// Load collects a snapshot and stores it, employers first. Store errors abort the load;
// mirror errors are only logged.
func (c *Collector) Load(ctx context.Context) (Metrics, error) {
	startTime := time.Now()
	finish := func() Metrics {
		c.mu.Lock()
		c.metrics.Duration = time.Since(startTime)
		c.metrics.LastRun = startTime
		c.mu.Unlock()
		return c.GetMetrics()
	}

	c.mu.Lock()
	c.metrics.EmployersInserted = 0
	c.metrics.VacanciesInserted = 0
	c.metrics.MirrorErrors = 0
	c.mu.Unlock()

	snapshot, err := c.Collect(ctx)
	if err != nil {
		return finish(), err
	}

	if err := c.store.CreateTables(ctx); err != nil {
		return finish(), err
	}

	newEmployers, err := c.store.InsertEmployers(ctx, snapshot.Employers)
	if err != nil {
		return finish(), err
	}
	c.mu.Lock()
	c.metrics.EmployersInserted = int64(len(newEmployers))
	c.mu.Unlock()

	newVacancies, err := c.store.InsertVacancies(ctx, snapshot.Vacancies)
	if err != nil {
		return finish(), err
	}
	c.mu.Lock()
	c.metrics.VacanciesInserted = int64(len(newVacancies))
	c.mu.Unlock()

	if c.mirror != nil {
		c.mirrorRows(ctx, Snapshot{Employers: newEmployers, Vacancies: newVacancies})
	}

	metrics := finish()
	c.logger.Info("load completed",
		zap.Int64("employers_inserted", metrics.EmployersInserted),
		zap.Int64("vacancies_inserted", metrics.VacanciesInserted),
		zap.Int64("duplicates", metrics.Duplicates),
		zap.Duration("elapsed", metrics.Duration))
	return metrics, nil
}

// mirrorRows copies the rows this load added to the store
func (c *Collector) mirrorRows(ctx context.Context, added Snapshot) {
	if len(added.Employers) == 0 && len(added.Vacancies) == 0 {
		c.logger.Info("nothing new to mirror")
		return
	}
	if err := c.mirror.SaveEmployers(ctx, added.Employers); err != nil {
		c.logger.Error("failed to mirror employers", zap.Error(err))
		c.countMirrorError()
		// vacancies reference employers remotely too
		return
	}
	if err := c.mirror.SaveVacancies(ctx, added.Vacancies); err != nil {
		c.logger.Error("failed to mirror vacancies", zap.Error(err))
		c.countMirrorError()
		return
	}
	c.logger.Info("new rows mirrored",
		zap.Int("employers", len(added.Employers)),
		zap.Int("vacancies", len(added.Vacancies)))
}

func (c *Collector) countMirrorError() {
	c.mu.Lock()
	c.metrics.MirrorErrors++
	c.mu.Unlock()
}

// GetMetrics returns a copy of the current metrics
func (c *Collector) GetMetrics() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.metrics
}
