package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ar-rehman786/Axis-trade-market/internal/ingest"
	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

func loadAliasOverrides(path string) (map[string][]string, error) {
	table, err := ingest.LoadAliasFile(path)
	if err != nil {
		return nil, err
	}
	return table, nil
}

var (
	ingestFile      string
	ingestMarket    string
	ingestSchema    string
	ingestChunkRows int
	ingestAliasFile string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the ingestion pipeline once for a single source file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		ctx := cmd.Context()

		env, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		req := model.IngestRequest{
			FileURL:       ingestFile,
			Market:        ingestMarket,
			SchemaVersion: ingestSchema,
			ChunkRows:     ingestChunkRows,
		}

		aliasFile := ingestAliasFile
		if aliasFile == "" {
			aliasFile = cfg.Ingest.AliasFile
		}
		if aliasFile != "" {
			overrides, err := loadAliasOverrides(aliasFile)
			if err != nil {
				return err
			}
			req.AliasMap = overrides
		}

		id, err := env.Controller.Submit(ctx, req)
		if err != nil {
			return err
		}

		env.Controller.WaitIdle()

		j, err := env.Controller.Get(id)
		if err != nil {
			return eris.Wrap(err, "read job result")
		}

		if j.Status == model.JobStatusFailed {
			printJobSummary(j)
			return eris.Errorf("job failed: %s", j.Error)
		}

		zap.L().Info("ingestion complete",
			zap.String("job_id", j.ID),
			zap.Int("processed", j.Counts.ProcessedRows),
			zap.Int("filtered", j.Counts.FilteredRows),
		)

		printJobSummary(j)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "source file path or URL (required)")
	ingestCmd.Flags().StringVar(&ingestMarket, "market", "", "market name for this dataset (required)")
	ingestCmd.Flags().StringVar(&ingestSchema, "schema", "", "schema version (default v2.0)")
	ingestCmd.Flags().IntVar(&ingestChunkRows, "chunk-rows", 0, "rows per processing chunk (default from config)")
	ingestCmd.Flags().StringVar(&ingestAliasFile, "alias-file", "", "YAML file of extra header aliases")
	_ = ingestCmd.MarkFlagRequired("file")
	_ = ingestCmd.MarkFlagRequired("market")
	rootCmd.AddCommand(ingestCmd)
}

func printJobSummary(j *model.Job) {
	fmt.Printf("\nJob %s  [%s]  market=%s\n", j.ID, j.Status, j.Market)
	if j.Counts != nil {
		fmt.Printf("rows: %d total, %d processed, %d filtered, %d failed\n",
			j.Counts.TotalRows, j.Counts.ProcessedRows, j.Counts.FilteredRows, j.Counts.FailedRows)
	}

	if len(j.Outputs) > 0 {
		fmt.Println("\nFeeds:")
		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		for label, artifact := range j.Outputs {
			fmt.Fprintf(tw, "  %s\t%d rows\t%s\n", label, artifact.RowCount, artifact.CSVPath)
		}
		tw.Flush()
	}

	if j.Health != nil {
		fmt.Println("\nData health:")
		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		for _, check := range *j.Health {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", check.Status, check.Name, check.Value, check.Message)
		}
		tw.Flush()

		pass, warn, fail := j.Health.Summary()
		fmt.Printf("\n%d passed, %d warnings, %d failed\n", pass, warn, fail)
	}

	if j.CompletedAt != nil {
		fmt.Printf("completed in %s\n", j.CompletedAt.Sub(j.CreatedAt).Round(time.Millisecond))
	}
}
