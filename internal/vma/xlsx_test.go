package vma

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixtureWorkbook = `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Notes" sheetId="1" r:id="rId1"/><sheet name="Data" sheetId="2" r:id="rId2"/></sheets>
</workbook>`
	fixtureRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="worksheet" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`
	fixtureShared = `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<si><t>Source ID</t></si><si><t>Raw Data Input</t></si><si><t>Thermal-Moisture Regime</t></si><si><t>World / Drawdown Region</t></si>
<si><t>Tropical-Humid</t></si><si><t>OECD90</t></si><si><t>USA</t></si>
</sst>`
	fixtureNotes = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="inlineStr"><is><t>Read me first</t></is></c></row>
</sheetData></worksheet>`
	// Row 3 omits column C to exercise sparse cell references.
	fixtureData = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>2</v></c><c r="D1" t="s"><v>3</v></c></row>
<row r="2"><c r="A2" t="inlineStr"><is><t>A</t></is></c><c r="B2"><v>0.4</v></c><c r="C2" t="s"><v>4</v></c><c r="D2" t="s"><v>5</v></c></row>
<row r="3"><c r="A3" t="inlineStr"><is><t>B</t></is></c><c r="B3"><v>0.5</v></c><c r="D3" t="s"><v>6</v></c></row>
</sheetData></worksheet>`
)

const fixtureCSV = "Source ID,Raw Data Input,Thermal-Moisture Regime,World / Drawdown Region\nA,0.4,Tropical-Humid,OECD90\nB,0.5,,USA\n"

func writeWorkbook(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct{ name, body string }{
		{"xl/workbook.xml", fixtureWorkbook},
		{"xl/_rels/workbook.xml.rels", fixtureRels},
		{"xl/sharedStrings.xml", fixtureShared},
		{"xl/worksheets/sheet1.xml", fixtureNotes},
		{"xl/worksheets/sheet2.xml", fixtureData},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	path := filepath.Join(t.TempDir(), "vma_sheet.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestXLSXSheetSelectionMatchesCSV(t *testing.T) {
	path := writeWorkbook(t)
	csvTable, err := readCSV([]byte(fixtureCSV), ',')
	require.NoError(t, err)
	want := normalize(csvTable)

	for name, opt := range map[string]Options{
		"by name":  {Path: path, SheetName: "data"},
		"by index": {Path: path, SheetIndex: 2},
	} {
		v, err := New(opt)
		require.NoError(t, err, name)
		got := v.Snapshot()
		assert.Equal(t, csvTable.Header, got.Raw.Header, name)
		assert.Equal(t, csvTable.Rows, got.Raw.Rows, name)
		assert.Equal(t, want.Records, got.Records, name)
	}
}

func TestXLSXDefaultsToFirstSheet(t *testing.T) {
	v, err := New(Options{Path: writeWorkbook(t)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Read me first"}, v.Raw().Header)
	assert.Zero(t, v.Raw().Len())
}

func TestXLSXUnknownSheet(t *testing.T) {
	_, err := New(Options{Path: writeWorkbook(t), SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available sheets: Notes, Data")
}

func TestXLSXIsReadOnly(t *testing.T) {
	v, err := New(Options{Path: writeWorkbook(t), SheetName: "Data"})
	require.NoError(t, err)
	assert.Error(t, v.WriteToFile(v.Raw()))
}

func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
	}
	for _, tt := range tests {
		if got := normalizeRelPath(tt.input); got != tt.expected {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestColIndexFromRef(t *testing.T) {
	assert.Equal(t, 0, colIndexFromRef("A1"))
	assert.Equal(t, 2, colIndexFromRef("c12"))
	assert.Equal(t, 27, colIndexFromRef("AB3"))
	assert.Equal(t, -1, colIndexFromRef("12"))
}

func TestSharedStringsJoinRunsAndDropPhonetics(t *testing.T) {
	data := `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<si><t xml:space="preserve"> plain </t></si>
<si><r><rPr><b/></rPr><t>Asia </t></r><r><t>(Sans Japan)</t></r><rPh sb="0" eb="4"><t>ajia</t></rPh></si>
<si><t>東京</t><rPh sb="0" eb="2"><t>トウキョウ</t></rPh></si>
</sst>`
	assert.Equal(t, []string{" plain ", "Asia (Sans Japan)", "東京"}, parseSharedStrings([]byte(data)))
	assert.Nil(t, parseSharedStrings(nil))
}

func TestSheetRowReaderCellTypes(t *testing.T) {
	sheet := `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="B1" t="s"><v>1</v></c><c r="C1" t="inlineStr"><is><r><t>in</t></r><r><t>line</t></r></is></c><c r="D1" t="s"><v>9</v></c><c r="E1"><f>1+1</f><v>2</v></c></row>
</sheetData></worksheet>`
	rr := newSheetRowReader([]byte(sheet), []string{"zero", "one"})
	row, ok := rr.Next()
	require.True(t, ok)
	assert.Equal(t, []string{"", "one", "inline", "", "2"}, row)
	_, ok = rr.Next()
	assert.False(t, ok)
}
