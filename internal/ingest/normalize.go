package ingest

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ar-rehman786/Axis-trade-market/internal/metrics"
	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// typedFields are the raw columns lifted into typed Record fields. Anything
// else survives in Extra untouched.
var typedFields = map[string]bool{
	model.FieldPropertyAddress: true,
	model.FieldCity:            true,
	model.FieldState:           true,
	model.FieldZip:             true,
	model.FieldOwnerName:       true,
	model.FieldLoanBalance:     true,
	model.FieldPropertyValue:   true,
	model.FieldLoanDate:        true,
	model.FieldDNCFlag:         true,
	model.FieldConsent:         true,
}

// Stage canonicalizes, filters, parses, and scores one chunk of raw rows.
// A single Stage is reused across chunks and across the second full pass.
type Stage struct {
	mapper *AliasMapper

	// Now is injectable so loan ages are stable under test.
	Now func() time.Time
}

// NewStage builds a stage over the given alias table.
func NewStage(table AliasTable) *Stage {
	return &Stage{mapper: NewAliasMapper(table), Now: time.Now}
}

// Mapper exposes the stage's alias mapper for header sampling.
func (s *Stage) Mapper() *AliasMapper { return s.mapper }

// ChunkResult carries a processed chunk plus the rows removed by the
// contact-consent filter.
type ChunkResult struct {
	Records  []model.Record
	Filtered int
}

// Process runs one chunk through the full stage: alias mapping, consent
// filtering, typed parsing, and metric computation.
func (s *Stage) Process(rows []model.RawRecord) ChunkResult {
	mapped := s.mapper.ApplyAll(rows)
	kept, removed := FilterConsent(mapped)

	records := make([]model.Record, 0, len(kept))
	for _, raw := range kept {
		rec := BuildRecord(raw)
		s.Score(&rec)
		records = append(records, rec)
	}

	return ChunkResult{Records: records, Filtered: removed}
}

// BuildRecord parses a canonicalized raw row into typed fields. Unparsable
// money and date values become absent, never zero, so downstream defaults
// stay distinguishable from real zeros.
func BuildRecord(raw model.RawRecord) model.Record {
	rec := model.Record{Extra: map[string]string{}}

	rec.PropertyAddress = raw[model.FieldPropertyAddress]
	rec.City = raw[model.FieldCity]
	rec.State = raw[model.FieldState]
	rec.Zip = raw[model.FieldZip]
	rec.OwnerName = raw[model.FieldOwnerName]

	if v, ok := parseMoney(raw[model.FieldLoanBalance]); ok {
		rec.LoanBalance = &v
	}
	if v, ok := parseMoney(raw[model.FieldPropertyValue]); ok {
		rec.PropertyValue = &v
	}
	if t, ok := parseDate(raw[model.FieldLoanDate]); ok {
		rec.LoanDate = &t
	}
	if b, ok := parseBool(raw[model.FieldDNCFlag]); ok {
		rec.DNCFlag = &b
	}
	if b, ok := parseBool(raw[model.FieldConsent]); ok {
		rec.Consent = &b
	}

	for key, val := range raw {
		if !typedFields[key] {
			rec.Extra[key] = val
		}
	}

	return rec
}

// Score computes the record's derived metrics in place.
func (s *Stage) Score(rec *model.Record) {
	loan := rec.LoanOrZero()
	value := rec.ValueOrZero()

	ltv := metrics.LTV(loan, value)
	ltvPct := metrics.Clip(ltv*100, 0, 100)
	eqPct100 := 100 - ltvPct
	age := metrics.LoanAgeMonths(s.Now(), rec.LoanDate)

	delta := 0.0
	if raw, ok := rec.Extra["equity_delta_90d"]; ok {
		if v, parseOK := parseMoney(raw); parseOK {
			delta = v
		}
	}

	m := model.Metrics{
		LTV:           ltv,
		EquityPct:     metrics.EquityPct(ltv),
		EquityDollars: metrics.EquityDollars(value, loan),
		LoanAgeMonths: age,
		CyclePhase:    metrics.CyclePhase(age),
		Velocity:      metrics.VelocityFromEquityDelta(delta),
	}
	m.Score = metrics.WeightedScore(eqPct100, age, ltvPct)
	m.Tier = metrics.Tier(m.Score, ltvPct, m.EquityDollars)
	m.CCI = metrics.CCI(eqPct100, ltvPct, age)
	m.ChurnIndex = metrics.ChurnIndex(m.CyclePhase, m.Velocity)

	rec.Metrics = &m
}

// parseMoney parses a currency-ish string, tolerating $, commas, and
// surrounding whitespace.
func parseMoney(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
}

// parseDate accepts ISO and US date forms. Timestamps are truncated to
// their date portion before parsing.
func parseDate(raw string) (time.Time, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return time.Time{}, false
	}
	if len(cleaned) > 10 && (strings.ContainsRune(cleaned, 'T') || strings.ContainsRune(cleaned, ' ')) {
		cleaned = cleaned[:10]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}
	zap.L().Debug("normalize: unparsable loan date", zap.String("value", raw))
	return time.Time{}, false
}
