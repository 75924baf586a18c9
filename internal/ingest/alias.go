// Package ingest implements the record-level stages of the pipeline:
// alias mapping, consent filtering, schema validation, chunked reading,
// and the normalization+scoring stage that composes them.
package ingest

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// AliasTable maps a canonical field name to the vendor column names that
// should be rewritten to it. Canonical names never appear as aliases of
// themselves, which is what makes mapping idempotent.
type AliasTable map[string][]string

// DefaultAliasTable returns the built-in vendor column aliases.
func DefaultAliasTable() AliasTable {
	return AliasTable{
		model.FieldPropertyAddress: {"Address", "Property Address", "Street Address", "Property_Address"},
		model.FieldCity:            {"City", "City Name", "Municipality"},
		model.FieldState:           {"State", "ST", "State Code"},
		model.FieldZip:             {"ZIP", "Zip Code", "Postal Code", "ZipCode"},
		model.FieldOwnerName:       {"Owner Name", "Owner", "Owner OO", "OwnerName"},
		model.FieldLoanDate:        {"LastLoanDate", "Loan Date", "Last Loan Date", "Loan 1 Date"},
		model.FieldLoanBalance:     {"TotalLoanBal", "Loan Balance", "Total Loan Balance"},
		model.FieldPropertyValue:   {"EstValue", "Property Value", "Est Value", "AVM"},
		model.FieldDNCFlag:         {"DNC", "Do Not Contact", "DNC Flag"},
		model.FieldConsent:         {"Consent", "Opt In", "OptIn"},
	}
}

// LoadAliasFile reads a canonical-name -> aliases table from a YAML file.
func LoadAliasFile(path string) (AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "alias: read %s", path)
	}
	var table AliasTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, eris.Wrapf(err, "alias: parse %s", path)
	}
	return table, nil
}

// Merge overlays per-job overrides onto the table. Overridden canonical
// fields replace their alias list entirely; untouched fields keep theirs.
func (t AliasTable) Merge(overrides map[string][]string) AliasTable {
	out := make(AliasTable, len(t)+len(overrides))
	for k, v := range t {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range overrides {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// AliasMapper rewrites vendor column names to canonical field names using a
// reverse lookup built once from the alias table.
type AliasMapper struct {
	reverse map[string]string
}

// NewAliasMapper builds a mapper from the given table. A nil table falls
// back to the defaults.
func NewAliasMapper(table AliasTable) *AliasMapper {
	if table == nil {
		table = DefaultAliasTable()
	}
	reverse := make(map[string]string)
	for canonical, aliases := range table {
		for _, alias := range aliases {
			reverse[alias] = canonical
		}
	}
	return &AliasMapper{reverse: reverse}
}

// Apply renames matching fields to their canonical names; unmatched fields
// pass through unchanged. If the canonical key already exists on the record
// it wins and the aliased value is dropped, which keeps Apply idempotent.
func (m *AliasMapper) Apply(r model.RawRecord) model.RawRecord {
	out := make(model.RawRecord, len(r))
	for k, v := range r {
		canonical, ok := m.reverse[k]
		if !ok {
			out[k] = v
			continue
		}
		if _, exists := r[canonical]; exists {
			continue
		}
		out[canonical] = v
	}
	return out
}

// ApplyAll maps every record in a chunk.
func (m *AliasMapper) ApplyAll(rows []model.RawRecord) []model.RawRecord {
	out := make([]model.RawRecord, len(rows))
	for i, r := range rows {
		out[i] = m.Apply(r)
	}
	return out
}
