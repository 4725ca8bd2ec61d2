package records

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSV(t *testing.T) {
	table, err := Load("data.csv", strings.NewReader("name,city,sku\nAnna,\"Berlin\nGermany\",012345678901\nBob,Paris\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "city", "sku"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, Record{"name": "Anna", "city": "Berlin\nGermany", "sku": "012345678901"}, table.Rows[0])
	assert.Equal(t, "", table.Rows[1].Get("sku"))
	assert.True(t, table.Rows[1].Has("sku"))
}

func TestLoadCSVLatin1(t *testing.T) {
	table, err := LoadCSV(strings.NewReader("city\nZ\xfcrich\n"))
	require.NoError(t, err)
	assert.Equal(t, "Zürich", table.Rows[0]["city"])
}

func TestLoadXML(t *testing.T) {
	doc := `<?xml version="1.0" encoding="ISO-8859-1"?>
<products>
  <product><name>Tea</name><sku>4006381333931</sku></product>
  <product><name>Caf` + "\xe9" + `</name><price>2.50</price></product>
</products>`
	table, err := Load("feed.XML", strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "sku", "price"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "4006381333931", table.Rows[0]["sku"])
	assert.Equal(t, "Café", table.Rows[1]["name"])
	assert.False(t, table.Rows[1].Has("sku"))
}

func TestLoadUnsupported(t *testing.T) {
	_, err := Load("data.xlsx", strings.NewReader(""))
	assert.Error(t, err)
}

func TestFromAny(t *testing.T) {
	rec := FromAny(map[string]any{"a": nil, "b": 12.0, "c": 2.5, "d": "x", "e": true})
	assert.Equal(t, Record{"a": "", "b": "12", "c": "2.5", "d": "x", "e": "true"}, rec)
}
