package mapping

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadError is returned when a mapping document is rejected.
type LoadError struct {
	Format string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s mapping: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s mapping: %s", e.Format, e.Reason)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// CSVHeader is the column order of the tabular mapping form.
var CSVHeader = []string{"placeholder", "col", "align", "dx", "dy", "scale", "type", "height_mm"}

type wireEntry struct {
	Col      string   `json:"col"`
	Align    string   `json:"align"`
	DX       *float64 `json:"dx"`
	DY       *float64 `json:"dy"`
	Scale    *float64 `json:"scale"`
	Type     string   `json:"type"`
	HeightMM *float64 `json:"height_mm"`
}

func (w wireEntry) entry() Entry {
	e := Entry{
		Column: w.Col,
		Align:  parseAlignment(w.Align),
		Scale:  DefaultScale,
		Kind:   parseKind(w.Type),
	}
	if w.DX != nil {
		e.DX = *w.DX
	}
	if w.DY != nil {
		e.DY = *w.DY
	}
	if w.Scale != nil {
		e.Scale = *w.Scale
	}
	if e.Kind == KindEAN13 {
		e.Barcode = &Barcode{HeightMM: DefaultHeightMM}
		if w.HeightMM != nil {
			e.Barcode.HeightMM = *w.HeightMM
		}
	}
	return e.normalized()
}

func (e Entry) MarshalJSON() ([]byte, error) {
	e = e.normalized()
	scale, height := e.Scale, e.HeightMM()
	return json.Marshal(wireEntry{
		Col:      e.Column,
		Align:    string(e.Align),
		DX:       &e.DX,
		DY:       &e.DY,
		Scale:    &scale,
		Type:     string(e.Kind),
		HeightMM: &height,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = w.entry()
	return nil
}

// Load reads a mapping document in the format named by the file
// extension, .json or .csv.
func Load(filename string, r io.Reader) (Mapping, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, &LoadError{Format: "JSON", Reason: "unreadable document", Err: err}
		}
		return ParseJSON(data)
	case ".csv":
		return ParseCSV(r)
	default:
		return nil, &LoadError{Format: ext, Reason: "unsupported mapping format"}
	}
}

// ParseJSON reads the keyed document form. The top level must be an object.
func ParseJSON(data []byte) (Mapping, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &LoadError{Format: "JSON", Reason: "document must be an object mapping placeholder to config"}
	}
	var m Mapping
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, &LoadError{Format: "JSON", Reason: "malformed document", Err: err}
	}
	if m == nil {
		m = Mapping{}
	}
	return m, nil
}

// ParseCSV reads the tabular form. Rows without a placeholder name are
// skipped; a document with no usable rows is rejected.
func ParseCSV(r io.Reader) (Mapping, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &LoadError{Format: "CSV", Reason: "malformed document", Err: err}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Format: "CSV", Reason: "missing header row"}
	}

	index := make(map[string]int)
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	field := func(row []string, names ...string) string {
		for _, name := range names {
			if i, ok := index[name]; ok && i < len(row) {
				if v := strings.TrimSpace(row[i]); v != "" {
					return v
				}
			}
		}
		return ""
	}
	number := func(row []string, name string, line int) (*float64, error) {
		v := field(row, name)
		if v == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &LoadError{Format: "CSV", Reason: fmt.Sprintf("row %d: bad %s value %q", line, name, v), Err: err}
		}
		return &f, nil
	}

	m := make(Mapping)
	for n, row := range rows[1:] {
		line := n + 2
		name := field(row, "placeholder", "ph", "name")
		if name == "" {
			continue
		}
		w := wireEntry{
			Col:   field(row, "col"),
			Align: field(row, "align"),
			Type:  field(row, "type"),
		}
		if w.DX, err = number(row, "dx", line); err != nil {
			return nil, err
		}
		if w.DY, err = number(row, "dy", line); err != nil {
			return nil, err
		}
		if w.Scale, err = number(row, "scale", line); err != nil {
			return nil, err
		}
		if w.HeightMM, err = number(row, "height_mm", line); err != nil {
			return nil, err
		}
		m[name] = w.entry()
	}
	if len(m) == 0 {
		return nil, &LoadError{Format: "CSV", Reason: "no mapping rows found"}
	}
	return m, nil
}

// WriteJSON writes the keyed form, indented.
func WriteJSON(w io.Writer, m Mapping) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(m)
}

// WriteCSV writes the tabular form with rows sorted by placeholder.
func WriteCSV(w io.Writer, m Mapping) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, name := range m.Placeholders() {
		e := m[name].normalized()
		row := []string{
			name,
			e.Column,
			string(e.Align),
			formatFloat(e.DX),
			formatFloat(e.DY),
			formatFloat(e.Scale),
			string(e.Kind),
			formatFloat(e.HeightMM()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
