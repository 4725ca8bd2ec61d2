package mapping

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignmentTextAnchor(t *testing.T) {
	assert.Equal(t, "start", AlignLeft.TextAnchor())
	assert.Equal(t, "middle", AlignCenter.TextAnchor())
	assert.Equal(t, "end", AlignRight.TextAnchor())
	assert.Equal(t, "start", AlignJustify.TextAnchor())
	assert.Equal(t, "start", Alignment("").TextAnchor())
}

func TestLookupDefaults(t *testing.T) {
	m := Mapping{
		"city": {Column: "", Align: AlignCenter},
		"sku":  {Column: "ean", Kind: KindEAN13, Scale: -2},
	}

	city := m.Lookup("city")
	assert.Equal(t, "city", city.Column)
	assert.Equal(t, AlignCenter, city.Align)
	assert.Equal(t, 1.0, city.Scale)
	assert.False(t, city.IsBarcode())
	assert.Nil(t, city.Barcode)

	sku := m.Lookup("sku")
	assert.Equal(t, "ean", sku.Column)
	assert.True(t, sku.IsBarcode())
	assert.Equal(t, 1.0, sku.Scale)
	assert.Equal(t, DefaultHeightMM, sku.HeightMM())

	missing := m.Lookup("price")
	assert.Equal(t, TextEntry("price"), missing)
}

func TestParseJSON(t *testing.T) {
	doc := `{
		"city": {"col": "City", "align": "Center"},
		"sku": {"col": "sku", "type": "Barcode EAN13", "height_mm": 10, "dx": 2.5, "dy": -1, "scale": 0}
	}`
	m, err := ParseJSON([]byte(doc))
	require.NoError(t, err)
	require.Len(t, m, 2)

	assert.Equal(t, Entry{Column: "City", Align: AlignCenter, Scale: 1, Kind: KindText}, m["city"])

	sku := m["sku"]
	assert.Equal(t, KindEAN13, sku.Kind)
	assert.Equal(t, 10.0, sku.HeightMM())
	assert.Equal(t, 2.5, sku.DX)
	assert.Equal(t, -1.0, sku.DY)
	assert.Equal(t, 1.0, sku.Scale)
	assert.Equal(t, AlignLeft, sku.Align)
}

func TestParseJSONRejectsNonObject(t *testing.T) {
	for _, doc := range []string{`[]`, `"x"`, ``, `{"a": 5}`, `{"a": {"dx": "left"}}`} {
		_, err := ParseJSON([]byte(doc))
		var loadErr *LoadError
		assert.True(t, errors.As(err, &loadErr), "doc %q", doc)
	}
}

func TestParseCSV(t *testing.T) {
	doc := "placeholder,col,align,dx,dy,scale,type,height_mm\n" +
		"city,City,Right,1,2,1.5,Text,25\n" +
		"sku,ean,Left,0,0,1,Barcode EAN13,12.5\n" +
		",ignored,Left,0,0,1,Text,25\n"
	m, err := ParseCSV(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, m, 2)

	assert.Equal(t, Entry{Column: "City", Align: AlignRight, DX: 1, DY: 2, Scale: 1.5, Kind: KindText}, m["city"])
	assert.Equal(t, BarcodeEntry("ean", 12.5), m["sku"])
}

func TestParseCSVDefaults(t *testing.T) {
	m, err := ParseCSV(strings.NewReader("placeholder,col\nname,\n"))
	require.NoError(t, err)
	assert.Equal(t, TextEntry("name"), m.Lookup("name"))
}

func TestParseCSVRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"header only", "placeholder,col\n"},
		{"bad number", "placeholder,dx\ncity,far\n"},
		{"unterminated quote", "placeholder,col\n\"city,City\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.doc))
			var loadErr *LoadError
			assert.True(t, errors.As(err, &loadErr))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	m := Mapping{
		"city":  {Column: "City", Align: AlignCenter, DX: 3, DY: -4.25, Scale: 0.8, Kind: KindText},
		"sku":   BarcodeEntry("ean", 18),
		"notes": TextEntry("Notes, long"),
	}

	var jsonBuf bytes.Buffer
	require.NoError(t, WriteJSON(&jsonBuf, m))
	fromJSON, err := ParseJSON(jsonBuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, m, fromJSON)

	var csvBuf bytes.Buffer
	require.NoError(t, WriteCSV(&csvBuf, fromJSON))
	assert.True(t, strings.HasPrefix(csvBuf.String(), "placeholder,col,align,dx,dy,scale,type,height_mm\n"))
	fromCSV, err := ParseCSV(&csvBuf)
	require.NoError(t, err)
	assert.Equal(t, m, fromCSV)
}

func TestColumnsAndClone(t *testing.T) {
	m := Mapping{
		"a":   TextEntry("shared"),
		"b":   TextEntry("shared"),
		"sku": BarcodeEntry("", 10),
	}
	assert.Equal(t, []string{"shared", "sku"}, m.Columns())

	c := m.Clone()
	c["sku"].Barcode.HeightMM = 99
	assert.Equal(t, 10.0, m["sku"].HeightMM())
}

func TestLoadByExtension(t *testing.T) {
	m, err := Load("map.JSON", strings.NewReader(`{"sku": {"col": "ean", "type": "Barcode EAN13"}}`))
	require.NoError(t, err)
	assert.True(t, m.Lookup("sku").IsBarcode())

	m, err = Load("map.csv", strings.NewReader("placeholder,col\nname,full_name\n"))
	require.NoError(t, err)
	assert.Equal(t, "full_name", m.Lookup("name").Column)

	_, err = Load("map.yaml", strings.NewReader("name: x"))
	var lerr *LoadError
	assert.ErrorAs(t, err, &lerr)
}
