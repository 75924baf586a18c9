package job

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ar-rehman786/Axis-trade-market/internal/feed"
	"github.com/ar-rehman786/Axis-trade-market/internal/fetcher"
	"github.com/ar-rehman786/Axis-trade-market/internal/model"
	"github.com/ar-rehman786/Axis-trade-market/internal/store"
)

// Options tunes the controller and its workers.
type Options struct {
	// DefaultChunkRows applies when a request does not set chunk_rows.
	DefaultChunkRows int

	// SampleRows is how many leading rows feed schema validation.
	SampleRows int

	// FetchTimeout bounds the source download.
	FetchTimeout time.Duration

	// Workers caps concurrently running jobs.
	Workers int

	// OutputWorkers caps concurrent per-feed artifact generation.
	OutputWorkers int

	// TempDir receives downloaded source files. Empty means os.TempDir.
	TempDir string

	// Now is injectable for tests.
	Now func() time.Time
}

func (o *Options) fill() {
	if o.DefaultChunkRows <= 0 {
		o.DefaultChunkRows = 5000
	}
	if o.SampleRows <= 0 {
		o.SampleRows = 25
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 5 * time.Minute
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.OutputWorkers <= 0 {
		o.OutputWorkers = 3
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Controller accepts ingestion requests and runs them asynchronously on a
// bounded worker pool. Submit returns as soon as the job is recorded.
type Controller struct {
	store      Store
	fetch      fetcher.Fetcher
	classifier feed.Classifier
	generator  feed.Generator
	market     store.Store // nil disables aggregate persistence
	opts       Options

	// open reads a downloaded source file; swappable in tests to fault
	// individual passes.
	open func(string) (io.ReadCloser, error)

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewController wires the pipeline collaborators together. market may be
// nil; aggregates are then skipped.
func NewController(s Store, f fetcher.Fetcher, c feed.Classifier, g feed.Generator, market store.Store, opts Options) *Controller {
	opts.fill()
	return &Controller{
		store:      s,
		fetch:      f,
		classifier: c,
		generator:  g,
		market:     market,
		opts:       opts,
		open:       openFile,
		sem:        make(chan struct{}, opts.Workers),
	}
}

// Submit validates the request shape, records a pending job, and kicks off
// the worker. The returned id is immediately queryable. Schema semantics
// (unknown versions included) are the worker's problem, not Submit's.
func (c *Controller) Submit(ctx context.Context, req model.IngestRequest) (string, error) {
	if strings.TrimSpace(req.FileURL) == "" {
		return "", eris.New("job: file_url is required")
	}
	if strings.TrimSpace(req.Market) == "" {
		return "", eris.New("job: market is required")
	}
	if req.SchemaVersion == "" {
		req.SchemaVersion = "v2.0"
	}
	if req.ChunkRows <= 0 {
		req.ChunkRows = c.opts.DefaultChunkRows
	}

	j := &model.Job{
		ID:            uuid.New().String(),
		Status:        model.JobStatusPending,
		Market:        req.Market,
		FileURL:       req.FileURL,
		SchemaVersion: req.SchemaVersion,
		ChunkRows:     req.ChunkRows,
		AliasMap:      req.AliasMap,
		CreatedAt:     c.opts.Now().UTC(),
		Counts:        &model.JobCounts{Feeds: map[string]int{}},
	}
	if err := c.store.Create(j); err != nil {
		return "", err
	}

	zap.L().Info("job submitted",
		zap.String("job_id", j.ID),
		zap.String("market", req.Market),
		zap.String("source", req.FileURL))

	// The worker outlives the caller: an HTTP submit context is cancelled
	// the moment the handler returns. Values (trace ids) carry over, the
	// cancellation does not.
	runCtx := context.WithoutCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.sem <- struct{}{}
		defer func() { <-c.sem }()
		c.runJob(runCtx, j.ID, req)
	}()

	return j.ID, nil
}

// Get returns a snapshot of the job.
func (c *Controller) Get(id string) (*model.Job, error) {
	return c.store.Get(id)
}

// WaitIdle blocks until every dispatched job has finished. Shutdown waits
// for in-flight jobs rather than cancelling them.
func (c *Controller) WaitIdle() {
	c.wg.Wait()
}
