// Package records loads tabular data rows from CSV or XML.
package records

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"VDP-SVG/internal/textenc"

	"golang.org/x/net/html/charset"
)

// Record maps a column name to its value. Missing columns read as "".
type Record map[string]string

// Get returns the value for column, or "" when absent.
func (r Record) Get(column string) string {
	return r[column]
}

// Has reports whether the record carries column.
func (r Record) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// Table is a loaded data file.
type Table struct {
	Columns []string
	Rows    []Record
}

// FromAny converts a decoded JSON object into a Record. Nulls become "".
func FromAny(values map[string]any) Record {
	rec := make(Record, len(values))
	for k, v := range values {
		rec[k] = stringify(v)
	}
	return rec
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// Load picks the parser from the file extension.
func Load(filename string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return LoadCSV(r)
	case ".xml":
		return LoadXML(r)
	default:
		return nil, fmt.Errorf("unsupported data file %q: expected .csv or .xml", filename)
	}
}

// LoadCSV reads a CSV file with a header row. Bytes that are not valid
// UTF-8 are decoded as Latin-1.
func LoadCSV(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	text, _ := textenc.Decode(raw)
	text = strings.TrimPrefix(text, "\ufeff")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV data: %w", err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	table := &Table{Columns: make([]string, len(rows[0]))}
	for i, h := range rows[0] {
		table.Columns[i] = strings.TrimSpace(h)
	}
	for _, row := range rows[1:] {
		rec := make(Record, len(table.Columns))
		for i, col := range table.Columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		table.Rows = append(table.Rows, rec)
	}
	return table, nil
}

type xmlField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlRow struct {
	Fields []xmlField `xml:",any"`
}

type xmlTable struct {
	Rows []xmlRow `xml:",any"`
}

// LoadXML reads <root><row><col>value</col>...</row>...</root>. Column
// order follows first appearance.
func LoadXML(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read XML data: %w", err)
	}
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.CharsetReader = charset.NewReaderLabel

	var doc xmlTable
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse XML data: %w", err)
	}

	table := &Table{}
	seen := make(map[string]bool)
	for _, row := range doc.Rows {
		rec := make(Record, len(row.Fields))
		for _, f := range row.Fields {
			name := f.XMLName.Local
			rec[name] = f.Value
			if !seen[name] {
				seen[name] = true
				table.Columns = append(table.Columns, name)
			}
		}
		table.Rows = append(table.Rows, rec)
	}
	return table, nil
}
