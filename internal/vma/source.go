package vma

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// RawTable is the source sheet as read: trimmed header names and cell strings.
// Short rows are padded with blanks; unrecognized columns are kept.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t RawTable) Len() int { return len(t.Rows) }

// Index returns the position of a recognized column, or -1.
func (t RawTable) Index(col string) int {
	for i, h := range t.Header {
		if canonicalColumn(h) == col {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed cell at row/col, or "" when out of range.
func (t RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Clone returns a deep copy so callers can edit a table before WriteToFile.
func (t RawTable) Clone() RawTable {
	out := RawTable{Header: append([]string(nil), t.Header...)}
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

// source describes where a VMA table comes from.
type source struct {
	path       string
	reader     io.Reader
	delimiter  rune
	sheetName  string
	sheetIndex int
	consumed   bool
}

func (s *source) name() string {
	if s.path != "" {
		return s.path
	}
	if s.reader != nil {
		return "<stream>"
	}
	return ""
}

func (s *source) isXLSX() bool {
	return strings.HasSuffix(strings.ToLower(s.path), ".xlsx")
}

// read loads the whole source. An unset source yields an empty table.
func (s *source) read() (RawTable, error) {
	var data []byte
	switch {
	case s.path != "":
		b, err := os.ReadFile(s.path)
		if err != nil {
			return RawTable{}, &SourceError{Source: s.path, Err: err}
		}
		data = b
	case s.reader != nil:
		if s.consumed {
			sk, ok := s.reader.(io.Seeker)
			if !ok {
				return RawTable{}, &SourceError{Source: s.name(), Err: errors.New("stream cannot be re-read")}
			}
			if _, err := sk.Seek(0, io.SeekStart); err != nil {
				return RawTable{}, &SourceError{Source: s.name(), Err: err}
			}
		}
		b, err := io.ReadAll(s.reader)
		s.consumed = true
		if err != nil {
			return RawTable{}, &SourceError{Source: s.name(), Err: err}
		}
		data = b
	default:
		return RawTable{}, nil
	}
	if s.isXLSX() {
		t, err := readXLSX(data, s.sheetName, s.sheetIndex)
		if err != nil {
			return RawTable{}, fmt.Errorf("read xlsx %s: %w", filepath.Base(s.path), err)
		}
		return t, nil
	}
	delim := s.delimiter
	if delim == 0 {
		delim = sniffDelimiter(s.path)
	}
	return readCSV(data, delim)
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// decodeText returns UTF-8 text, treating invalid UTF-8 as Windows-1252, which is
// what spreadsheet "Save as CSV" produces on most desktops.
func decodeText(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return data
	}
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return data
	}
	return out
}

func readCSV(data []byte, delim rune) (RawTable, error) {
	r := csv.NewReader(bytes.NewReader(decodeText(data)))
	r.FieldsPerRecord = -1
	// With a whitespace delimiter TrimLeadingSpace would swallow empty fields.
	r.TrimLeadingSpace = !unicode.IsSpace(delim)
	r.LazyQuotes = true
	r.Comma = delim

	var t RawTable
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return RawTable{}, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		if skipRecord(rec, t.Header != nil) {
			continue
		}
		row := make([]string, len(rec))
		for i, c := range rec {
			row[i] = strings.TrimSpace(c)
		}
		if t.Header == nil {
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, padRow(row, len(t.Header)))
	}
	return t, nil
}

// skipRecord drops blank lines, and '#' comment lines until the header is seen.
// After the header a leading '#' is data, as in source IDs like "#12 IPCC AR5".
func skipRecord(rec []string, headerSeen bool) bool {
	if !headerSeen && len(rec) > 0 && strings.HasPrefix(strings.TrimSpace(rec[0]), "#") {
		return true
	}
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func padRow(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	tmp := make([]string, n)
	copy(tmp, row)
	return tmp
}

// encodeCSV renders a raw table back to CSV text.
func encodeCSV(t RawTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("write rows: %w", err)
	}
	return buf.Bytes(), nil
}
