package job

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ar-rehman786/Axis-trade-market/internal/aggregate"
	"github.com/ar-rehman786/Axis-trade-market/internal/feed"
	"github.com/ar-rehman786/Axis-trade-market/internal/ingest"
	"github.com/ar-rehman786/Axis-trade-market/internal/model"
	"github.com/ar-rehman786/Axis-trade-market/internal/quality"
)

// runJob executes one ingestion job end to end. The job reaches exactly
// one terminal state: COMPLETED with outputs, or FAILED with the
// triggering error recorded verbatim and no outputs.
func (c *Controller) runJob(ctx context.Context, jobID string, req model.IngestRequest) {
	log := zap.L().With(zap.String("job_id", jobID))

	if err := c.store.Update(jobID, func(j *model.Job) {
		j.Status = model.JobStatusProcessing
	}); err != nil {
		log.Error("job: mark processing", zap.Error(err))
		return
	}

	if err := c.process(ctx, jobID, req, log); err != nil {
		c.fail(jobID, err, log)
	}
}

func (c *Controller) process(ctx context.Context, jobID string, req model.IngestRequest, log *zap.Logger) error {
	table := ingest.DefaultAliasTable()
	if len(req.AliasMap) > 0 {
		table = table.Merge(req.AliasMap)
	}
	stage := ingest.NewStage(table)
	stage.Now = c.opts.Now

	// Source retrieval, bounded by the fetch timeout.
	localPath, cleanup, err := c.download(ctx, jobID, req.FileURL)
	if err != nil {
		return fatal(StageSourceRetrieval, err)
	}
	defer cleanup()

	// Schema validation from a canonicalized prefix sample.
	if err := c.validateSchema(localPath, stage, req.SchemaVersion); err != nil {
		return fatal(StageSchemaValidation, err)
	}

	totalRows, err := countRows(localPath, c.open)
	if err != nil {
		return fatal(StageChunkRead, err)
	}

	// Chunked scoring pass. Counts and progress advance monotonically
	// after every chunk; the dataset is accumulated for the output pass.
	records, err := c.chunkedPass(ctx, jobID, localPath, stage, req.ChunkRows, totalRows)
	if err != nil {
		return fatal(StageChunkRead, err)
	}

	// Full-dataset re-pass: classification is re-derived per record. The
	// classifier is deterministic, so these partitions agree with the
	// chunk-pass feed counts.
	parts := feed.Partition(c.classifier, records)

	outputs, err := c.generateOutputs(ctx, jobID, parts)
	if err != nil {
		return fatal(StageOutputGeneration, err)
	}

	c.persistAggregates(ctx, records, log)

	var filtered int
	if j, err := c.store.Get(jobID); err == nil && j.Counts != nil {
		filtered = j.Counts.FilteredRows
	}
	report := quality.Report(records, filtered, c.opts.Now())

	now := c.opts.Now().UTC()
	return c.store.Update(jobID, func(j *model.Job) {
		j.Status = model.JobStatusCompleted
		j.Progress = 100
		j.Outputs = outputs
		j.Health = &report
		j.CompletedAt = &now
	})
}

func (c *Controller) fail(jobID string, err error, log *zap.Logger) {
	log.Warn("job failed", zap.Error(err))
	if updateErr := c.store.Update(jobID, func(j *model.Job) {
		j.Status = model.JobStatusFailed
		j.Error = err.Error()
		j.Outputs = nil
		if j.Counts != nil {
			// Consent-filtered rows were dropped on purpose, not failed.
			failed := j.Counts.TotalRows - j.Counts.ProcessedRows - j.Counts.FilteredRows
			if failed < 0 {
				failed = 0
			}
			j.Counts.FailedRows = failed
		}
	}); updateErr != nil {
		log.Error("job: mark failed", zap.Error(updateErr))
	}
}

// download fetches the source into a temp file and returns its path plus
// a cleanup func.
func (c *Controller) download(ctx context.Context, jobID, fileURL string) (string, func(), error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()

	dir := c.opts.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("axis_%s%s", jobID, filepath.Ext(fileURL)))

	n, err := c.fetch.DownloadToFile(fetchCtx, fileURL, path)
	if err != nil {
		os.Remove(path)
		return "", nil, err
	}
	zap.L().Debug("source downloaded",
		zap.String("job_id", jobID),
		zap.Int64("bytes", n))
	return path, func() { os.Remove(path) }, nil
}

func (c *Controller) validateSchema(path string, stage *ingest.Stage, version string) error {
	src, closer, err := ingest.OpenFileSource(path, c.open)
	if err != nil {
		return err
	}
	defer closer.Close()

	sample := make([]model.RawRecord, 0, c.opts.SampleRows)
	header := src.Header()
	for len(sample) < c.opts.SampleRows {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		sample = append(sample, ingest.RowToRecord(header, row))
	}
	sample = stage.Mapper().ApplyAll(sample)

	return ingest.ValidateSchema(sample, version)
}

// countRows pre-counts data rows so chunk progress is honest rather than
// estimated. Blank rows are excluded, matching what the chunk pass reads.
func countRows(path string, open func(string) (io.ReadCloser, error)) (int, error) {
	src, closer, err := ingest.OpenFileSource(path, open)
	if err != nil {
		return 0, err
	}
	defer closer.Close()

	n := 0
	for {
		row, err := src.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		if !ingest.IsBlankRow(row) {
			n++
		}
	}
}

func (c *Controller) chunkedPass(ctx context.Context, jobID, path string, stage *ingest.Stage, chunkRows, totalRows int) ([]model.Record, error) {
	src, closer, err := ingest.OpenFileSource(path, c.open)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	reader := ingest.NewChunkReader(src, chunkRows)
	var records []model.Record

	for {
		chunk, err := reader.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		result := stage.Process(chunk)
		records = append(records, result.Records...)

		feedCounts := make(map[string]int)
		for i := range result.Records {
			feedCounts[c.classifier.Classify(result.Records[i])]++
		}

		read := len(chunk)
		if updateErr := c.store.Update(jobID, func(j *model.Job) {
			if j.Counts == nil {
				j.Counts = &model.JobCounts{Feeds: map[string]int{}}
			}
			j.Counts.TotalRows += read
			j.Counts.ProcessedRows += len(result.Records)
			j.Counts.FilteredRows += result.Filtered
			if j.Counts.Feeds == nil {
				j.Counts.Feeds = map[string]int{}
			}
			for label, n := range feedCounts {
				j.Counts.Feeds[label] += n
			}
			if totalRows > 0 {
				progress := float64(j.Counts.TotalRows) / float64(totalRows) * 95
				if progress > j.Progress {
					j.Progress = progress
				}
			}
		}); updateErr != nil {
			return nil, updateErr
		}
	}

	return records, nil
}

// generateOutputs writes per-feed artifacts concurrently. Any failure
// aborts the whole set; a failed job never exposes partial outputs.
func (c *Controller) generateOutputs(ctx context.Context, jobID string, parts map[string][]model.Record) (map[string]model.FeedArtifact, error) {
	outputs := make(map[string]model.FeedArtifact, len(parts))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.OutputWorkers)

	for label, recs := range parts {
		g.Go(func() error {
			art, err := c.generator.WriteFeedOutput(gctx, jobID, label, recs)
			if err != nil {
				return eris.Wrapf(err, "feed %s", label)
			}
			mu.Lock()
			outputs[label] = art
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// persistAggregates upserts city/ZIP medians and the market pulse. The
// relational store is a collaborator, not a pipeline stage: failures are
// logged and the job still completes.
func (c *Controller) persistAggregates(ctx context.Context, records []model.Record, log *zap.Logger) {
	if c.market == nil {
		return
	}
	summary := aggregate.Summarize(records, c.opts.Now().UTC())
	if err := c.market.UpsertCitySummary(ctx, summary.City); err != nil {
		log.Warn("aggregate: upsert city", zap.Error(err))
	}
	if err := c.market.UpsertZipSummaries(ctx, summary.Zips); err != nil {
		log.Warn("aggregate: upsert zips", zap.Error(err))
	}
	if err := c.market.UpdatePulse(ctx, summary.Pulse); err != nil {
		log.Warn("aggregate: update pulse", zap.Error(err))
	}
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
