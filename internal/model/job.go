package model

import "time"

// JobStatus represents the lifecycle state of an ingestion job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is a terminal state. Terminal states
// are entered exactly once and never left.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// IngestRequest is the submission payload for a new ingestion job.
type IngestRequest struct {
	Market        string              `json:"market"`
	FileURL       string              `json:"file_url"`
	SchemaVersion string              `json:"schema_version"`
	AliasMap      map[string][]string `json:"alias_map,omitempty"`
	ChunkRows     int                 `json:"chunk_rows"`
}

// JobCounts tracks row accounting for a job. Only the owning worker writes
// these; readers get snapshots through the job store.
type JobCounts struct {
	TotalRows     int            `json:"total_rows"`
	ProcessedRows int            `json:"processed_rows"`
	FailedRows    int            `json:"failed_rows"`
	FilteredRows  int            `json:"filtered_rows"`
	Feeds         map[string]int `json:"feeds,omitempty"`
}

// Clone returns an independent copy of the counts.
func (c *JobCounts) Clone() *JobCounts {
	if c == nil {
		return nil
	}
	out := *c
	if c.Feeds != nil {
		out.Feeds = make(map[string]int, len(c.Feeds))
		for k, v := range c.Feeds {
			out.Feeds[k] = v
		}
	}
	return &out
}

// FeedArtifact references the generated output files for one feed.
type FeedArtifact struct {
	CSVPath    string `json:"csv"`
	ReportPath string `json:"report"`
	RowCount   int    `json:"count"`
}

// Job identifies one ingestion request and its progress. The request
// parameters are immutable after creation; status, progress, counts,
// outputs, and error are written only by the job's worker.
type Job struct {
	ID            string                  `json:"job_id"`
	Status        JobStatus               `json:"status"`
	Market        string                  `json:"market"`
	FileURL       string                  `json:"file_url"`
	SchemaVersion string                  `json:"schema_version"`
	ChunkRows     int                     `json:"chunk_rows"`
	AliasMap      map[string][]string     `json:"alias_map,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	CompletedAt   *time.Time              `json:"completed_at,omitempty"`
	Progress      float64                 `json:"progress"`
	Counts        *JobCounts              `json:"counts,omitempty"`
	Outputs       map[string]FeedArtifact `json:"outputs,omitempty"`
	Health        *HealthReport           `json:"health,omitempty"`
	Error         string                  `json:"error,omitempty"`
}

// Clone returns a defensive copy safe to hand to readers while the worker
// keeps mutating the stored job.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	out.Counts = j.Counts.Clone()
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	if j.AliasMap != nil {
		out.AliasMap = make(map[string][]string, len(j.AliasMap))
		for k, v := range j.AliasMap {
			out.AliasMap[k] = append([]string(nil), v...)
		}
	}
	if j.Outputs != nil {
		out.Outputs = make(map[string]FeedArtifact, len(j.Outputs))
		for k, v := range j.Outputs {
			out.Outputs[k] = v
		}
	}
	if j.Health != nil {
		h := make(HealthReport, len(*j.Health))
		copy(h, *j.Health)
		out.Health = &h
	}
	return &out
}
