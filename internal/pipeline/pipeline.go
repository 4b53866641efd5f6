package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/landslide-feed-etl/internal/domain"
	"github.com/couchcryptid/landslide-feed-etl/internal/observability"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize caps the number of feed files in flight at once.
const DefaultBatchSize = 5

// Fetcher retrieves the raw text of a feed file.
type Fetcher interface {
	Fetch(ctx context.Context, fileName string) (string, error)
}

// Catalog is the station registry as seen by the orchestrator.
type Catalog interface {
	domain.StationLookup
	IDs() []string
	FileNames(c domain.Cadence) []string
}

// SnapshotPublisher exports the result of a completed refresh.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap domain.Snapshot) error
}

// Outcome of processing a single feed file.
const (
	OutcomeOK             = "ok"
	OutcomeNetwork        = "network"
	OutcomeMalformed      = "malformed"
	OutcomeUnknownStation = "unknown_station"
	OutcomeCanceled       = "canceled"
)

// refreshOrder runs the fast table first so hourly fields land on top.
var refreshOrder = []domain.Cadence{domain.Cadence5Minute, domain.Cadence60Min}

// PassResult tallies file outcomes for one pass.
type PassResult struct {
	Files    int
	Outcomes map[string]int
}

// Succeeded returns the number of files merged into the store.
func (r PassResult) Succeeded() int { return r.Outcomes[OutcomeOK] }

// Orchestrator drives fetch, parse, derive and merge over the station feeds
// in fixed-size batches. It owns the Store.
type Orchestrator struct {
	fetcher   Fetcher
	catalog   Catalog
	store     *Store
	publisher SnapshotPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int

	// refreshing holds one token while a refresh runs.
	refreshing chan struct{}
	ready      atomic.Bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPublisher exports every completed refresh through p.
func WithPublisher(p SnapshotPublisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithBatchSize overrides DefaultBatchSize. Values below one are ignored.
func WithBatchSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// RefreshBudget is the longest a full refresh of files per cadence can take
// when every fetch runs to fetchTimeout. A positive requestsPerSecond adds the
// time the rate limiter spends spacing out requests.
func RefreshBudget(files, batchSize int, fetchTimeout time.Duration, requestsPerSecond float64) time.Duration {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	batches := (files + batchSize - 1) / batchSize
	budget := time.Duration(len(refreshOrder)*batches) * fetchTimeout
	if requestsPerSecond > 0 {
		budget += time.Duration(float64(len(refreshOrder)*files) / requestsPerSecond * float64(time.Second))
	}
	return budget
}

// New creates an Orchestrator with a store pre-populated from catalog.
func New(fetcher Fetcher, catalog Catalog, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:   fetcher,
		catalog:   catalog,
		store:     NewStore(catalog.IDs()),
		logger:    logger,
		metrics:   metrics,
		batchSize: DefaultBatchSize,

		refreshing: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CheckReadiness returns nil once a refresh has merged at least one feed.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ready.Load() {
		return errors.New("no station feed has been processed yet")
	}
	return nil
}

// Snapshot returns a copy of the current station mapping.
func (o *Orchestrator) Snapshot() domain.Snapshot {
	return o.store.Snapshot()
}

// Station returns a copy of one station's state.
func (o *Orchestrator) Station(id string) (domain.StationState, bool) {
	return o.store.Get(id)
}

// ProcessAll refreshes every station: one pass over the five-minute files,
// then one over the hourly files. Concurrent calls run one after another,
// and a call whose ctx ends while it waits returns without refreshing.
// Per-file failures are logged and skipped; an error is only returned when
// ctx ends before the refresh completes.
func (o *Orchestrator) ProcessAll(ctx context.Context) (domain.Snapshot, error) {
	select {
	case o.refreshing <- struct{}{}:
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
	defer func() { <-o.refreshing }()
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	passID := uuid.NewString()
	logger := o.logger.With("pass_id", passID)
	start := time.Now()
	logger.Info("refresh started", "batch_size", o.batchSize)

	succeeded := 0
	for _, cadence := range refreshOrder {
		res := o.runPass(ctx, logger, cadence, o.catalog.FileNames(cadence))
		succeeded += res.Succeeded()
		if err := ctx.Err(); err != nil {
			logger.Warn("refresh interrupted", "cadence", cadence, "error", err)
			return domain.Snapshot{}, err
		}
	}

	o.store.MarkRefreshed(passID)
	snap := o.store.Snapshot()
	if succeeded > 0 {
		o.ready.Store(true)
	}

	o.metrics.RefreshesTotal.Inc()
	o.metrics.LastRefreshTimestamp.Set(float64(snap.RefreshedAt.Unix()))
	o.metrics.StationsReporting.Set(float64(snap.Reporting()))
	logger.Info("refresh complete",
		"files_merged", succeeded,
		"stations_reporting", snap.Reporting(),
		"duration", time.Since(start),
	)

	if o.publisher != nil {
		if err := o.publisher.PublishSnapshot(ctx, snap); err != nil {
			o.metrics.SnapshotPublishErrors.Inc()
			logger.Warn("snapshot publish failed", "error", err)
		}
	}
	return snap, nil
}

// RunPass processes files in consecutive batches. Every file of a batch is
// in flight at the same time and the next batch starts only after the whole
// batch has settled.
func (o *Orchestrator) RunPass(ctx context.Context, cadence domain.Cadence, files []string) PassResult {
	return o.runPass(ctx, o.logger, cadence, files)
}

func (o *Orchestrator) runPass(ctx context.Context, logger *slog.Logger, cadence domain.Cadence, files []string) PassResult {
	start := time.Now()
	defer func() {
		o.metrics.PassDuration.WithLabelValues(string(cadence)).Observe(time.Since(start).Seconds())
	}()

	outcomes := make([]string, len(files))
	for lo := 0; lo < len(files); lo += o.batchSize {
		hi := min(lo+o.batchSize, len(files))
		if ctx.Err() != nil {
			for i := lo; i < len(files); i++ {
				outcomes[i] = OutcomeCanceled
			}
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.batchSize)
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				// Failures stay inside the file so the rest of the batch proceeds.
				outcomes[i] = o.processFile(gctx, logger, files[i])
				return nil
			})
		}
		_ = g.Wait()
		logger.Debug("batch settled", "cadence", cadence, "batch", lo/o.batchSize, "files", hi-lo)
	}

	res := PassResult{Files: len(files), Outcomes: make(map[string]int)}
	for _, outcome := range outcomes {
		res.Outcomes[outcome]++
		o.metrics.FilesProcessed.WithLabelValues(string(cadence), outcome).Inc()
	}
	return res
}

// processFile fetches, parses and derives one feed and merges it into the store.
func (o *Orchestrator) processFile(ctx context.Context, logger *slog.Logger, fileName string) string {
	raw, err := o.fetch(ctx, fileName)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeCanceled
		}
		logger.Warn("feed fetch failed, skipping file", "file", fileName, "error", err)
		return OutcomeNetwork
	}

	feed, err := domain.ParseFeed(raw, fileName, o.catalog)
	if err != nil {
		logger.Warn("feed rejected, skipping file", "file", fileName, "error", err)
		if errors.Is(err, domain.ErrUnknownStation) {
			return OutcomeUnknownStation
		}
		return OutcomeMalformed
	}

	d := domain.Derive(feed)
	if !d.Metrics.Rainfall.Available() {
		o.metrics.MetricsUnavailable.WithLabelValues("rainfall").Inc()
		logger.Debug("rainfall unavailable", "file", fileName, "station", feed.StationID, "error", d.Metrics.Rainfall.Err)
	}
	if !d.Metrics.Saturation.Available() {
		o.metrics.MetricsUnavailable.WithLabelValues("saturation").Inc()
		logger.Debug("saturation unavailable", "file", fileName, "station", feed.StationID, "error", d.Metrics.Saturation.Err)
	}

	o.store.Merge(feed.StationID, d.Fields, d.Fallbacks)
	return OutcomeOK
}

func (o *Orchestrator) fetch(ctx context.Context, fileName string) (string, error) {
	o.metrics.FetchesInFlight.Inc()
	defer o.metrics.FetchesInFlight.Dec()

	start := time.Now()
	raw, err := o.fetcher.Fetch(ctx, fileName)
	o.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	return raw, err
}
