// Package spreadsheet reads and writes the single-sheet workbooks the
// lookup runs consume and produce. The first row is the header.
package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/use-agent/ownerlookup/models"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet names the sheet of a table read from nowhere.
const DefaultSheet = "Sheet1"

// Table is one sheet: a header row and data rows. Rows may be shorter than
// the header; missing cells read as empty.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]string
}

// Column returns the index of the header named name, or -1. Header names
// are compared ignoring surrounding whitespace.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// EnsureColumn returns the index of the header named name, appending the
// column if it does not exist yet.
func (t *Table) EnsureColumn(name string) int {
	if i := t.Column(name); i >= 0 {
		return i
	}
	t.Header = append(t.Header, name)
	return len(t.Header) - 1
}

// Cell returns the value at row, col or "" when the row is short.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Set stores v at row, col, padding the row as needed.
func (t *Table) Set(row, col int, v string) {
	for len(t.Rows[row]) <= col {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][col] = v
}

// ReadFile reads the first sheet of the workbook at path.
func ReadFile(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSpreadsheet, fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()
	return readFirstSheet(f)
}

// Read reads the first sheet of a workbook streamed from r.
func Read(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSpreadsheet, "open workbook", err)
	}
	defer f.Close()
	return readFirstSheet(f)
}

func readFirstSheet(f *excelize.File) (*Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeSpreadsheet, "workbook has no sheets", nil)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSpreadsheet, fmt.Sprintf("read sheet %q", sheet), err)
	}

	t := &Table{Sheet: sheet}
	if len(rows) == 0 {
		return t, nil
	}
	t.Header = rows[0]
	t.Rows = rows[1:]
	return t, nil
}

// WriteFile saves t as a new workbook at path.
func WriteFile(path string, t *Table) error {
	f, err := build(t)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return models.NewScrapeError(models.ErrCodeSpreadsheet, fmt.Sprintf("save %s", path), err)
	}
	return nil
}

// Write streams t as a workbook to w.
func Write(w io.Writer, t *Table) error {
	f, err := build(t)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return models.NewScrapeError(models.ErrCodeSpreadsheet, "write workbook", err)
	}
	return nil
}

func build(t *Table) (*excelize.File, error) {
	f := excelize.NewFile()

	sheet := t.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}
	if first := f.GetSheetName(0); first != sheet {
		if err := f.SetSheetName(first, sheet); err != nil {
			f.Close()
			return nil, models.NewScrapeError(models.ErrCodeSpreadsheet, fmt.Sprintf("name sheet %q", sheet), err)
		}
	}

	write := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(sheet, cell, &row)
	}

	if err := write(1, t.Header); err != nil {
		f.Close()
		return nil, models.NewScrapeError(models.ErrCodeSpreadsheet, "write header", err)
	}
	for i, r := range t.Rows {
		if err := write(i+2, r); err != nil {
			f.Close()
			return nil, models.NewScrapeError(models.ErrCodeSpreadsheet, fmt.Sprintf("write row %d", i+2), err)
		}
	}
	return f, nil
}
