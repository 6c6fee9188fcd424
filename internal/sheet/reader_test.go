package sheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return &buf
}

func TestAllowedExtension(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"orders.xlsx", true},
		{"orders.xls", true},
		{"ORDERS.XLSX", true},
		{"orders.csv", false},
		{"orders.pdf", false},
		{"orders", false},
	}
	for _, c := range cases {
		if got := AllowedExtension(c.name); got != c.want {
			t.Fatalf("AllowedExtension(%q): want=%v got=%v", c.name, c.want, got)
		}
	}
}

func TestReadPreservesHeaderOrder(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"PO", "Qty", "Ship"},
		{"PO-1", 500, "2024-02-01"},
		{"PO-2", 250, "2024-03-15"},
	})

	tbl, err := Read(buf, "orders.xlsx")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(tbl.Headers) != 3 || tbl.Headers[0] != "PO" || tbl.Headers[1] != "Qty" || tbl.Headers[2] != "Ship" {
		t.Fatalf("headers: want=[PO Qty Ship] got=%v", tbl.Headers)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows: want=2 got=%d", len(tbl.Rows))
	}

	csvText, err := tbl.CSV()
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(csvText), "\n")
	if lines[0] != "PO,Qty,Ship" {
		t.Fatalf("csv header: want=%q got=%q", "PO,Qty,Ship", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("csv lines: want=3 got=%d", len(lines))
	}
	if !strings.HasPrefix(lines[1], "PO-1,500,") {
		t.Fatalf("csv first record: got=%q", lines[1])
	}
}

func TestReadPadsShortRows(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"PO", "Qty", "Ship"},
		{"PO-1"},
	})

	tbl, err := Read(buf, "orders.xlsx")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(tbl.Rows[0]) != 3 {
		t.Fatalf("padded row width: want=3 got=%d", len(tbl.Rows[0]))
	}
}

func TestReadUnreadableFile(t *testing.T) {
	var ffe *apperr.FileFormatError
	_, err := Read(strings.NewReader("this is not a workbook"), "orders.xlsx")
	if !errors.As(err, &ffe) {
		t.Fatalf("unreadable file: want FileFormatError got %v", err)
	}
}

func TestReadDispatchesXLSToLegacyDecoder(t *testing.T) {
	// A valid OOXML workbook under a .xls name must go through the BIFF
	// decoder, which rejects the zip container outright.
	buf := buildWorkbook(t, [][]any{
		{"PO", "Qty"},
		{"PO-1", 500},
	})

	var ffe *apperr.FileFormatError
	_, err := Read(buf, "orders.xls")
	if !errors.As(err, &ffe) {
		t.Fatalf("ooxml bytes as .xls: want FileFormatError got %v", err)
	}
}

func TestReadUnreadableXLS(t *testing.T) {
	var ffe *apperr.FileFormatError
	_, err := Read(strings.NewReader("this is not a workbook"), "orders.xls")
	if !errors.As(err, &ffe) {
		t.Fatalf("unreadable .xls: want FileFormatError got %v", err)
	}
}

func TestReadEmptySheet(t *testing.T) {
	f := excelize.NewFile()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	f.Close()

	var ffe *apperr.FileFormatError
	_, err := Read(&buf, "orders.xlsx")
	if !errors.As(err, &ffe) {
		t.Fatalf("empty sheet: want FileFormatError got %v", err)
	}
}
