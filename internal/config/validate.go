package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the configuration is usable for the given run mode.
// Modes: "serve" (HTTP API), "ingest" (one-shot pipeline), "calc" (live scoring).
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		problems = append(problems, c.validatePipeline()...)
		problems = append(problems, c.validateStore()...)
	case "ingest":
		problems = append(problems, c.validatePipeline()...)
		problems = append(problems, c.validateStore()...)
	case "calc":
		// No external dependencies needed.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validatePipeline() []string {
	var problems []string
	if c.Ingest.ChunkRows < 1 {
		problems = append(problems, "ingest.chunk_rows must be >= 1")
	}
	if c.Ingest.SampleRows < 1 {
		problems = append(problems, "ingest.sample_rows must be >= 1")
	}
	if c.Ingest.Workers < 1 || c.Ingest.Workers > 64 {
		problems = append(problems, "ingest.workers must be between 1 and 64")
	}
	if c.Ingest.OutputWorkers < 1 {
		problems = append(problems, "ingest.output_workers must be >= 1")
	}
	if c.Ingest.OutputDir == "" {
		problems = append(problems, "ingest.output_dir is required")
	}
	if c.Feeds.ChurnThreshold < 0 || c.Feeds.ChurnThreshold > 100 {
		problems = append(problems, "feeds.churn_threshold must be between 0 and 100")
	}
	if c.Feeds.EquityThreshold < 0 {
		problems = append(problems, "feeds.equity_threshold must be >= 0")
	}
	return problems
}

func (c *Config) validateStore() []string {
	var problems []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	case "none":
		// Aggregates disabled.
	default:
		problems = append(problems, "store.driver must be one of sqlite, postgres, none")
	}
	return problems
}
