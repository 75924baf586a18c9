package ingest

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// schemaVersions is the closed set of supported schema versions and the
// canonical fields each requires. Unknown versions are a validation
// failure, never a silent default.
var schemaVersions = map[string][]string{
	"v1.0": {model.FieldPropertyAddress, model.FieldZip},
	"v2.0": {model.FieldPropertyAddress, model.FieldCity, model.FieldState, model.FieldZip},
}

// KnownSchemaVersions returns the supported version strings, sorted.
func KnownSchemaVersions() []string {
	versions := make([]string, 0, len(schemaVersions))
	for v := range schemaVersions {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// ValidateSchema checks that a canonicalized prefix sample carries every
// field the named schema version requires. It runs once per job, before
// the chunked pass; it never re-validates individual chunks. The error
// names the unknown version or the exact missing fields.
func ValidateSchema(sample []model.RawRecord, version string) error {
	required, ok := schemaVersions[version]
	if !ok {
		return eris.Errorf("schema: unknown schema version %q (known: %s)",
			version, strings.Join(KnownSchemaVersions(), ", "))
	}

	present := make(map[string]bool)
	for _, r := range sample {
		for k := range r {
			present[k] = true
		}
	}

	var missing []string
	for _, field := range required {
		if !present[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return eris.Errorf("schema %s: missing required fields: %s",
			version, strings.Join(missing, ", "))
	}

	return nil
}
