package job

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ar-rehman786/Axis-trade-market/internal/feed"
	"github.com/ar-rehman786/Axis-trade-market/internal/fetcher"
	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// testNow keeps loan ages deterministic: loans dated 2024-01-15 are 24
// months old.
var testNow = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, opts Options) (*Controller, Store) {
	t.Helper()
	s := NewMemoryStore()
	opts.TempDir = t.TempDir()
	opts.Now = func() time.Time { return testNow }
	c := NewController(
		s,
		fetcher.NewDispatcher(fetcher.Options{}),
		feed.NewRuleClassifier(70, 250000),
		feed.NewCSVGenerator(t.TempDir()),
		nil,
		opts,
	)
	return c, s
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func submitAndWait(t *testing.T, c *Controller, req model.IngestRequest) *model.Job {
	t.Helper()
	id, err := c.Submit(context.Background(), req)
	require.NoError(t, err)
	c.WaitIdle()
	j, err := c.Get(id)
	require.NoError(t, err)
	return j
}

func TestSubmit_Validation(t *testing.T) {
	c, _ := newTestController(t, Options{})

	_, err := c.Submit(context.Background(), model.IngestRequest{Market: "Atlanta"})
	assert.Error(t, err)

	_, err = c.Submit(context.Background(), model.IngestRequest{FileURL: "/tmp/x.csv"})
	assert.Error(t, err)
}

func TestSubmit_ReturnsImmediatelyQueryableID(t *testing.T) {
	c, _ := newTestController(t, Options{})
	path := writeCSV(t, "property_address,city,state,zip\n1 Oak St,Atlanta,GA,30301\n")

	id, err := c.Submit(context.Background(), model.IngestRequest{Market: "Atlanta", FileURL: path})
	require.NoError(t, err)

	j, err := c.Get(id)
	require.NoError(t, err)
	assert.NotEqual(t, "", j.ID)
	c.WaitIdle()
}

func TestJob_SmallFileCompletes(t *testing.T) {
	c, _ := newTestController(t, Options{})
	// loan 100000, value 200000 -> ltv 0.5 for all three rows
	path := writeCSV(t,
		"property_address,city,state,zip,loan_balance,property_value,loan_date\n"+
			"1 Oak St,Atlanta,GA,30301,100000,200000,2024-01-15\n"+
			"2 Oak St,Atlanta,GA,30301,100000,200000,2024-01-15\n"+
			"3 Oak St,Atlanta,GA,30301,100000,200000,2024-01-15\n")

	j := submitAndWait(t, c, model.IngestRequest{
		Market: "Atlanta", FileURL: path, SchemaVersion: "v2.0", ChunkRows: 2,
	})

	assert.Equal(t, model.JobStatusCompleted, j.Status)
	assert.Equal(t, 100.0, j.Progress)
	assert.Equal(t, 3, j.Counts.TotalRows)
	assert.Equal(t, 3, j.Counts.ProcessedRows)
	assert.Equal(t, 0, j.Counts.FailedRows)
	assert.Empty(t, j.Error)
	require.NotNil(t, j.CompletedAt)
	require.NotEmpty(t, j.Outputs)
	for _, art := range j.Outputs {
		assert.FileExists(t, art.CSVPath)
		assert.FileExists(t, art.ReportPath)
	}
	require.NotNil(t, j.Health)
}

func TestJob_ConsentFilterCounts(t *testing.T) {
	c, _ := newTestController(t, Options{})
	path := writeCSV(t,
		"property_address,city,state,zip,dnc_flag\n"+
			"1 Oak St,Atlanta,GA,30301,no\n"+
			"2 Oak St,Atlanta,GA,30301,yes\n"+
			"3 Oak St,Atlanta,GA,30301,\n"+
			"4 Oak St,Atlanta,GA,30301,n\n"+
			"5 Oak St,Atlanta,GA,30301,false\n")

	j := submitAndWait(t, c, model.IngestRequest{Market: "Atlanta", FileURL: path})

	assert.Equal(t, model.JobStatusCompleted, j.Status)
	assert.Equal(t, 5, j.Counts.TotalRows)
	assert.Equal(t, 4, j.Counts.ProcessedRows)
	assert.Equal(t, 1, j.Counts.FilteredRows)

	sum := 0
	for _, n := range j.Counts.Feeds {
		sum += n
	}
	assert.Equal(t, j.Counts.ProcessedRows, sum)
}

func TestJob_FeedCountsMatchArtifacts(t *testing.T) {
	c, _ := newTestController(t, Options{})
	// high equity rows route to the core equity feed, the rest nurture
	path := writeCSV(t,
		"property_address,city,state,zip,loan_balance,property_value\n"+
			"1 Oak St,Atlanta,GA,30301,100000,600000\n"+
			"2 Oak St,Atlanta,GA,30301,100000,600000\n"+
			"3 Oak St,Atlanta,GA,30301,0,0\n")

	j := submitAndWait(t, c, model.IngestRequest{Market: "Atlanta", FileURL: path, ChunkRows: 1})
	require.Equal(t, model.JobStatusCompleted, j.Status)

	require.Len(t, j.Outputs, len(j.Counts.Feeds))
	for label, count := range j.Counts.Feeds {
		art, ok := j.Outputs[label]
		require.True(t, ok, label)
		assert.Equal(t, count, art.RowCount, label)
	}
}

func TestJob_SchemaFailureNamesField(t *testing.T) {
	c, _ := newTestController(t, Options{})
	path := writeCSV(t,
		"property_address,city,state\n"+
			"1 Oak St,Atlanta,GA\n")

	j := submitAndWait(t, c, model.IngestRequest{
		Market: "Atlanta", FileURL: path, SchemaVersion: "v2.0",
	})

	assert.Equal(t, model.JobStatusFailed, j.Status)
	assert.Contains(t, j.Error, "zip")
	assert.Nil(t, j.Outputs)
	assert.Equal(t, 0, j.Counts.TotalRows)
	assert.Equal(t, 0, j.Counts.ProcessedRows)
}

func TestJob_UnknownSchemaVersionFailsInWorker(t *testing.T) {
	c, _ := newTestController(t, Options{})
	path := writeCSV(t, "property_address,city,state,zip\n1 Oak St,Atlanta,GA,30301\n")

	// Submit accepts the request; the worker fails the job.
	j := submitAndWait(t, c, model.IngestRequest{
		Market: "Atlanta", FileURL: path, SchemaVersion: "v7.3",
	})

	assert.Equal(t, model.JobStatusFailed, j.Status)
	assert.Contains(t, j.Error, "v7.3")
}

func TestJob_SourceRetrievalFailure(t *testing.T) {
	c, _ := newTestController(t, Options{})

	j := submitAndWait(t, c, model.IngestRequest{
		Market: "Atlanta", FileURL: filepath.Join(t.TempDir(), "missing.csv"),
	})

	assert.Equal(t, model.JobStatusFailed, j.Status)
	assert.Contains(t, j.Error, "source_retrieval")
	assert.Nil(t, j.Outputs)
}

func TestJob_TerminalStateSticks(t *testing.T) {
	c, s := newTestController(t, Options{})
	path := writeCSV(t, "property_address,city,state,zip\n1 Oak St,Atlanta,GA,30301\n")

	j := submitAndWait(t, c, model.IngestRequest{Market: "Atlanta", FileURL: path})
	require.True(t, j.Status.Terminal())

	snap, err := s.Get(j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.Status, snap.Status)
	assert.Equal(t, j.CompletedAt.UTC(), snap.CompletedAt.UTC())
}

func TestStageError_Wrapping(t *testing.T) {
	inner := os.ErrNotExist
	err := fatal(StageSourceRetrieval, inner)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageSourceRetrieval, se.Stage)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, fatal(StageChunkRead, nil))
}

func TestJob_OutlivesSubmitContext(t *testing.T) {
	c, _ := newTestController(t, Options{})
	path := writeCSV(t,
		"property_address,city,state,zip,loan_balance,property_value,loan_date\n"+
			"1 Oak St,Atlanta,GA,30301,100000,200000,2024-01-15\n")

	// net/http cancels the request context as soon as the handler
	// returns; the worker must not inherit that cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	id, err := c.Submit(ctx, model.IngestRequest{Market: "Atlanta", FileURL: path})
	require.NoError(t, err)
	c.WaitIdle()

	j, err := c.Get(id)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, j.Status)
	assert.Empty(t, j.Error)
	assert.NotEmpty(t, j.Outputs)
}

func TestJob_ReadFailureKeepsChunkProgress(t *testing.T) {
	c, _ := newTestController(t, Options{})
	content := "property_address,city,state,zip,dnc_flag\n" +
		"1 Oak St,Atlanta,GA,30301,no\n" +
		"2 Oak St,Atlanta,GA,30301,yes\n" +
		"3 Oak St,Atlanta,GA,30301,no\n"
	path := writeCSV(t, content)

	// The schema sample and the pre-count read the file intact; the chunk
	// pass hits an I/O error after the second data row.
	truncated := content[:strings.LastIndex(content, "3 Oak")]
	opens := 0
	c.open = func(p string) (io.ReadCloser, error) {
		opens++
		if opens < 3 {
			return os.Open(p)
		}
		return io.NopCloser(io.MultiReader(
			strings.NewReader(truncated),
			iotest.ErrReader(errors.New("read: input/output error")),
		)), nil
	}

	j := submitAndWait(t, c, model.IngestRequest{Market: "Atlanta", FileURL: path, ChunkRows: 1})

	assert.Equal(t, model.JobStatusFailed, j.Status)
	assert.Contains(t, j.Error, string(StageChunkRead))
	assert.Nil(t, j.Outputs)

	// Counts from the chunks that landed before the error stand.
	assert.Equal(t, 2, j.Counts.TotalRows)
	assert.Equal(t, 1, j.Counts.ProcessedRows)
	assert.Equal(t, 1, j.Counts.FilteredRows)
	// The filtered row was dropped on purpose, so nothing failed row-wise.
	assert.Equal(t, 0, j.Counts.FailedRows)
	assert.Greater(t, j.Progress, 0.0)
	assert.Less(t, j.Progress, 100.0)
}

func TestCountRows_SkipsBlankRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"property_address,city,state,zip\n"+
			"1 Oak St,Atlanta,GA,30301\n"+
			",,,\n"+
			"2 Elm St,Atlanta,GA,30305\n"+
			",,,\n"), 0o644))

	n, err := countRows(path, openFile)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestJob_HTTPSourceCompletes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(
			"property_address,city,state,zip,loan_balance,property_value,loan_date\n" +
				"1 Oak St,Atlanta,GA,30301,100000,200000,2024-01-15\n" +
				"2 Elm St,Atlanta,GA,30305,50000,600000,2024-01-15\n"))
	}))
	defer srv.Close()

	c, _ := newTestController(t, Options{})
	j := submitAndWait(t, c, model.IngestRequest{Market: "Atlanta", FileURL: srv.URL + "/export.csv"})

	require.Equal(t, model.JobStatusCompleted, j.Status)
	assert.Equal(t, 2, j.Counts.ProcessedRows)
	assert.NotEmpty(t, j.Outputs)
}
