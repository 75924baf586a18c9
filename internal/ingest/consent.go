package ingest

import (
	"strings"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// parseBool interprets the truthy/falsy spellings vendors actually ship.
// The second return is false when the value is absent or unrecognized.
func parseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y":
		return true, true
	case "false", "f", "0", "no", "n":
		return false, true
	default:
		return false, false
	}
}

// FilterConsent drops records flagged do-not-contact or with consent
// explicitly withdrawn. A record missing both compliance fields is kept:
// the filter fails open on absent fields by policy, and the removed count
// is returned so that policy stays auditable.
func FilterConsent(rows []model.RawRecord) (kept []model.RawRecord, removed int) {
	kept = make([]model.RawRecord, 0, len(rows))
	for _, r := range rows {
		if dnc, ok := parseBool(r[model.FieldDNCFlag]); ok && dnc {
			removed++
			continue
		}
		if consent, ok := parseBool(r[model.FieldConsent]); ok && !consent {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	return kept, removed
}
