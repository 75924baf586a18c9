package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ar-rehman786/Axis-trade-market/internal/model"
)

// RowSource yields the rows of a tabular file in original order. Next
// returns io.EOF when the source is exhausted; any other error is a
// chunk-level read failure.
type RowSource interface {
	// Header returns the column names from the first row.
	Header() []string

	// Next returns the next data row.
	Next() ([]string, error)
}

// CSVSource reads rows from a CSV stream. Vendor exports frequently carry
// a UTF-8 BOM, so the stream is BOM-stripped before parsing.
type CSVSource struct {
	reader *csv.Reader
	header []string
}

// NewCSVSource wraps r and reads the header row immediately.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	decoded := transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	reader := csv.NewReader(decoded)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("csv: empty source")
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	return &CSVSource{reader: reader, header: header}, nil
}

func (s *CSVSource) Header() []string { return s.header }

func (s *CSVSource) Next() ([]string, error) {
	row, err := s.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read row")
	}
	for i, field := range row {
		row[i] = strings.TrimSpace(field)
	}
	return row, nil
}

// XLSXSource reads rows from the first sheet of an XLSX workbook.
type XLSXSource struct {
	header []string
	rows   [][]string
	pos    int
}

// NewXLSXSource opens an XLSX file and loads its first sheet.
func NewXLSXSource(path string) (*XLSXSource, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("xlsx: %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("xlsx: empty source")
	}

	toStrings := func(row *xlsx.Row) []string {
		out := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			out[i] = strings.TrimSpace(cell.String())
		}
		return out
	}

	header := toStrings(sheet.Rows[0])
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, toStrings(row))
	}

	return &XLSXSource{header: header, rows: rows}, nil
}

func (s *XLSXSource) Header() []string { return s.header }

func (s *XLSXSource) Next() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// OpenFileSource opens a local tabular file, picking the row source by
// extension. Anything that is not .xlsx is treated as CSV.
func OpenFileSource(path string, open func(string) (io.ReadCloser, error)) (RowSource, io.Closer, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		src, err := NewXLSXSource(path)
		if err != nil {
			return nil, nil, err
		}
		return src, io.NopCloser(nil), nil
	}

	f, err := open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "reader: open %s", path)
	}
	src, err := NewCSVSource(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return src, f, nil
}

// ChunkReader batches a row source into record chunks of at most chunkRows,
// preserving input order within and across chunks. It is lazy, finite, and
// non-restartable; callers reopen the source for a second pass.
type ChunkReader struct {
	src       RowSource
	chunkRows int
	done      bool
}

// NewChunkReader creates a reader producing chunks of up to chunkRows
// records.
func NewChunkReader(src RowSource, chunkRows int) *ChunkReader {
	if chunkRows <= 0 {
		chunkRows = 1
	}
	return &ChunkReader{src: src, chunkRows: chunkRows}
}

// Next returns the next chunk, or io.EOF once the source is exhausted.
// A read error aborts the remaining sequence; chunks already returned
// stand.
func (c *ChunkReader) Next(ctx context.Context) ([]model.RawRecord, error) {
	if c.done {
		return nil, io.EOF
	}

	header := c.src.Header()
	chunk := make([]model.RawRecord, 0, c.chunkRows)

	for len(chunk) < c.chunkRows {
		if err := ctx.Err(); err != nil {
			c.done = true
			return nil, eris.Wrap(err, "chunk: context cancelled")
		}

		row, err := c.src.Next()
		if err == io.EOF {
			c.done = true
			if len(chunk) == 0 {
				return nil, io.EOF
			}
			return chunk, nil
		}
		if err != nil {
			c.done = true
			return nil, err
		}

		if IsBlankRow(row) {
			continue
		}
		chunk = append(chunk, RowToRecord(header, row))
	}

	return chunk, nil
}

// IsBlankRow reports whether every field of the row is empty. Blank rows
// are not data: readers skip them and row pre-counts must agree.
func IsBlankRow(row []string) bool {
	for _, field := range row {
		if field != "" {
			return false
		}
	}
	return true
}

// RowToRecord zips header names with row values. Cells beyond the header
// width are dropped; short rows simply leave trailing columns absent.
func RowToRecord(header, row []string) model.RawRecord {
	rec := make(model.RawRecord, len(header))
	for i, name := range header {
		if name == "" || i >= len(row) {
			continue
		}
		rec[name] = row[i]
	}
	return rec
}
