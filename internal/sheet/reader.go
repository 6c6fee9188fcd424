package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
)

// AllowedExtension reports whether the reader recognizes the upload's file
// extension. Only the two spreadsheet extensions are accepted; everything
// else is rejected before any storage write.
func AllowedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return true
	}
	return false
}

// Table is the first sheet of a workbook: header row plus data rows. Cell
// values are kept as the formatted strings the source encodes.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Read loads the first sheet of the spreadsheet. The decoder follows the
// extension: OOXML for .xlsx, legacy BIFF for .xls. An unreadable workbook
// or a sheet with no rows at all fails with a FileFormatError.
func Read(r io.Reader, filename string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xls") {
		return readBIFF(r, filename)
	}
	return readOOXML(r, filename)
}

func readOOXML(r io.Reader, filename string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &apperr.FileFormatError{Filename: filename, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &apperr.FileFormatError{Filename: filename, Err: fmt.Errorf("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &apperr.FileFormatError{Filename: filename, Err: err}
	}
	return tableFromRows(rows, sheets[0], filename)
}

func readBIFF(r io.Reader, filename string) (*Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, &apperr.FileFormatError{Filename: filename, Err: err}
	}
	wb, err := xls.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, &apperr.FileFormatError{Filename: filename, Err: err}
	}

	sh, err := wb.GetSheet(0)
	if err != nil {
		return nil, &apperr.FileFormatError{Filename: filename, Err: err}
	}

	rows := make([][]string, 0, sh.GetNumberRows())
	for i := 0; i < sh.GetNumberRows(); i++ {
		row, err := sh.GetRow(i)
		if err != nil {
			return nil, &apperr.FileFormatError{Filename: filename, Err: err}
		}
		cells := row.GetCols()
		values := make([]string, len(cells))
		for j, cell := range cells {
			values[j] = cell.GetString()
		}
		rows = append(rows, values)
	}
	return tableFromRows(rows, sh.GetName(), filename)
}

func tableFromRows(rows [][]string, sheetName, filename string) (*Table, error) {
	if len(rows) == 0 {
		return nil, &apperr.FileFormatError{Filename: filename, Err: fmt.Errorf("sheet %q is empty", sheetName)}
	}

	headers := rows[0]
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// decoders trim trailing empty cells; pad back to header width.
		if len(row) < len(headers) {
			padded := make([]string, len(headers))
			copy(padded, row)
			row = padded
		}
		data = append(data, row)
	}

	return &Table{Headers: headers, Rows: data}, nil
}

// CSV serializes the table as delimited text for the extraction prompt:
// header row first, one line per record, no truncation.
func (t *Table) CSV() (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(t.Headers); err != nil {
		return "", err
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
