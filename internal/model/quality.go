package model

// CheckStatus is the outcome of one data health check.
type CheckStatus string

const (
	CheckPass      CheckStatus = "PASS"
	CheckWarn      CheckStatus = "WARN"
	CheckFail      CheckStatus = "FAIL"
	CheckExcellent CheckStatus = "EXCELLENT"
)

// HealthCheck is one named check in a data health report.
type HealthCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Value   string      `json:"value"`
	Message string      `json:"message,omitempty"`
}

// HealthReport is the fixed-shape output of the health report producer.
// It is attached to completed jobs for display only and never gates the
// pipeline.
type HealthReport []HealthCheck

// Summary returns the number of PASS (including EXCELLENT), WARN, and FAIL
// checks in the report.
func (r HealthReport) Summary() (pass, warn, fail int) {
	for _, c := range r {
		switch c.Status {
		case CheckPass, CheckExcellent:
			pass++
		case CheckWarn:
			warn++
		case CheckFail:
			fail++
		}
	}
	return pass, warn, fail
}
