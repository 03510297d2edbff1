package vma

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// readXLSX extracts the selected worksheet of a workbook as a RawTable.
// If sheetName is empty the 1-based sheetIndex is used (default 1).
func readXLSX(data []byte, sheetName string, sheetIndex int) (RawTable, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return RawTable{}, fmt.Errorf("open workbook: %w", err)
	}
	sheets := parseWorkbook(readZipFile(zr, "xl/workbook.xml"))
	rels := parseRelationships(readZipFile(zr, "xl/_rels/workbook.xml.rels"))

	target := ""
	if sheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, sheetName) {
				if rel, ok := rels[s.RID]; ok {
					target = normalizeRelPath(rel)
				}
				break
			}
		}
		if target == "" {
			names := make([]string, len(sheets))
			for i, s := range sheets {
				names[i] = s.Name
			}
			return RawTable{}, fmt.Errorf("sheet '%s' not found; available sheets: %s", sheetName, strings.Join(names, ", "))
		}
	}
	if target == "" {
		idx := sheetIndex
		if idx <= 0 {
			idx = 1
		}
		for _, s := range sheets {
			if s.SheetID == idx {
				if rel, ok := rels[s.RID]; ok {
					target = normalizeRelPath(rel)
				}
				break
			}
		}
		if target == "" {
			target = path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", idx))
		}
	}
	sheetXML := readZipFile(zr, target)
	if sheetXML == nil {
		return RawTable{}, fmt.Errorf("worksheet %s missing from workbook", target)
	}
	shared := parseSharedStrings(readZipFile(zr, "xl/sharedStrings.xml"))

	var t RawTable
	rr := newSheetRowReader(sheetXML, shared)
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		if skipRecord(row, t.Header != nil) {
			continue
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		if t.Header == nil {
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, padRow(row, len(t.Header)))
	}
	return t, nil
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

// parseWorkbook extracts sheet entries with names and relationship ids.
func parseWorkbook(data []byte) []wbSheet {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []wbSheet
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID, _ = strconv.Atoi(strings.TrimSpace(a.Value))
			case "id":
				s.RID = a.Value
			}
		}
		sheets = append(sheets, s)
	}
}

// parseRelationships returns map[r:id]Target.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

// richText is the content of a shared string or inline string: either a plain
// <t> or a list of formatted runs. Phonetic guides (<rPh>) are not part of the
// cell text and are left out.
type richText struct {
	T    *string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (rt richText) String() string {
	if rt.T != nil {
		return *rt.T
	}
	var b strings.Builder
	for _, r := range rt.Runs {
		b.WriteString(r.T)
	}
	return b.String()
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	var sst struct {
		Items []richText `xml:"si"`
	}
	if err := xml.Unmarshal(data, &sst); err != nil {
		return nil
	}
	out := make([]string, len(sst.Items))
	for i, it := range sst.Items {
		out[i] = it.String()
	}
	return out
}

// xlsxCell is one <c> element of a worksheet.
type xlsxCell struct {
	Ref    string   `xml:"r,attr"`
	Type   string   `xml:"t,attr"`
	Value  string   `xml:"v"`
	Inline richText `xml:"is"`
}

// sheetRowReader streams rows of a worksheet as string slices.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	curRow []string
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Next returns the next <row>, with cells placed by their column reference.
func (r *sheetRowReader) Next() ([]string, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "row":
				r.curRow = nil
			case "c":
				var c xlsxCell
				if err := r.dec.DecodeElement(&c, &se); err != nil {
					return nil, false
				}
				col := colIndexFromRef(c.Ref)
				if col < 0 {
					col = len(r.curRow)
				}
				if len(r.curRow) <= col {
					r.curRow = append(r.curRow, make([]string, col+1-len(r.curRow))...)
				}
				r.curRow[col] = r.cellText(c)
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				return r.curRow, true
			}
		}
	}
}

// cellText resolves shared and inline strings; other types are returned as stored.
func (r *sheetRowReader) cellText(c xlsxCell) string {
	switch c.Type {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil || idx < 0 || idx >= len(r.shared) {
			return ""
		}
		return r.shared[idx]
	case "inlineStr":
		return c.Inline.String()
	default:
		return c.Value
	}
}

// colIndexFromRef turns "C12" into 2; refs without letters give -1.
func colIndexFromRef(ref string) int {
	letters := strings.ToUpper(ref)
	if i := strings.IndexFunc(letters, func(c rune) bool { return c < 'A' || c > 'Z' }); i >= 0 {
		letters = letters[:i]
	}
	col := 0
	for _, c := range letters {
		col = col*26 + int(c-'A') + 1
	}
	return col - 1
}

// normalizeRelPath converts relationship targets to ZIP entry names, which never
// carry a leading slash.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
