package feed

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// Generator produces the artifacts for one feed of a completed dataset.
// A generation failure is job-fatal.
type Generator interface {
	WriteFeedOutput(ctx context.Context, jobID, label string, records []model.Record) (model.FeedArtifact, error)
}

// CSVGenerator writes a scored CSV plus a JSON report summary per feed.
// Report rendering to PDF happens outside this service; the JSON summary
// is the reference handed to that renderer.
type CSVGenerator struct {
	OutDir string
}

// NewCSVGenerator creates a generator writing under outDir.
func NewCSVGenerator(outDir string) *CSVGenerator {
	return &CSVGenerator{OutDir: outDir}
}

var outputColumns = []string{
	"property_address", "city", "state", "zip", "owner_name",
	"loan_balance", "property_value", "loan_date",
	"ltv", "equity_pct", "equity_dollars", "loan_age_months",
	"score", "tier", "churn_index", "cci",
}

// reportSummary is the JSON artifact describing one feed's output.
type reportSummary struct {
	JobID       string         `json:"job_id"`
	Feed        string         `json:"feed"`
	RowCount    int            `json:"row_count"`
	AvgScore    float64        `json:"avg_score"`
	TierCounts  map[string]int `json:"tier_counts"`
	CSVPath     string         `json:"csv_path"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// WriteFeedOutput writes `<jobID>_<label>_output.csv` and
// `<jobID>_<label>_report.json` under OutDir.
func (g *CSVGenerator) WriteFeedOutput(ctx context.Context, jobID, label string, records []model.Record) (model.FeedArtifact, error) {
	if err := ctx.Err(); err != nil {
		return model.FeedArtifact{}, eris.Wrap(err, "feed: output cancelled")
	}
	if err := os.MkdirAll(g.OutDir, 0o755); err != nil {
		return model.FeedArtifact{}, eris.Wrapf(err, "feed: create output dir %s", g.OutDir)
	}

	csvPath := filepath.Join(g.OutDir, fmt.Sprintf("%s_%s_output.csv", jobID, label))
	if err := writeCSV(csvPath, records); err != nil {
		return model.FeedArtifact{}, err
	}

	reportPath := filepath.Join(g.OutDir, fmt.Sprintf("%s_%s_report.json", jobID, label))
	if err := writeReport(reportPath, jobID, label, csvPath, records); err != nil {
		return model.FeedArtifact{}, err
	}

	zap.L().Info("feed output written",
		zap.String("job_id", jobID),
		zap.String("feed", label),
		zap.Int("rows", len(records)))

	return model.FeedArtifact{CSVPath: csvPath, ReportPath: reportPath, RowCount: len(records)}, nil
}

func writeCSV(path string, records []model.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "feed: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(outputColumns); err != nil {
		return eris.Wrap(err, "feed: write header")
	}
	for i := range records {
		if err := w.Write(recordRow(&records[i])); err != nil {
			return eris.Wrapf(err, "feed: write row %d", i)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "feed: flush %s", path)
	}
	return f.Close()
}

func recordRow(rec *model.Record) []string {
	row := []string{
		rec.PropertyAddress, rec.City, rec.State, rec.Zip, rec.OwnerName,
		floatOrEmpty(rec.LoanBalance), floatOrEmpty(rec.PropertyValue), dateOrEmpty(rec.LoanDate),
	}
	m := rec.Metrics
	if m == nil {
		m = &model.Metrics{}
	}
	return append(row,
		formatFloat(m.LTV, 4),
		formatFloat(m.EquityPct, 4),
		formatFloat(m.EquityDollars, 2),
		strconv.Itoa(m.LoanAgeMonths),
		formatFloat(m.Score, 2),
		m.Tier,
		formatFloat(m.ChurnIndex, 2),
		formatFloat(m.CCI, 2),
	)
}

func writeReport(path, jobID, label, csvPath string, records []model.Record) error {
	summary := reportSummary{
		JobID:       jobID,
		Feed:        label,
		RowCount:    len(records),
		TierCounts:  make(map[string]int),
		CSVPath:     csvPath,
		GeneratedAt: time.Now().UTC(),
	}
	var scoreSum float64
	for i := range records {
		if m := records[i].Metrics; m != nil {
			scoreSum += m.Score
			summary.TierCounts[m.Tier]++
		}
	}
	if len(records) > 0 {
		summary.AvgScore = scoreSum / float64(len(records))
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return eris.Wrap(err, "feed: marshal report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "feed: write %s", path)
	}
	return nil
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
