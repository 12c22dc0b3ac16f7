package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// InputSheet is the fully loaded first worksheet of an uploaded file.
// Rows are padded to ColCount so every cell position addressed by the
// header index exists, the way openpyxl-style readers present them.
type InputSheet struct {
	Headers  []string   // normalized header row
	Rows     [][]string // data rows, header excluded
	RowCount int        // original row count, header included
	ColCount int        // original column count
}

// ReadInput opens the workbook at path and loads its first sheet.
func ReadInput(path string) (*InputSheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	// excelize trims trailing empty cells per row, so the column count is
	// the widest row seen.
	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	in := &InputSheet{
		RowCount: len(rows),
		ColCount: colCount,
	}
	if len(rows) > 0 {
		in.Headers = NormalizeHeaders(padRow(rows[0], colCount))
		in.Rows = make([][]string, 0, len(rows)-1)
		for _, row := range rows[1:] {
			in.Rows = append(in.Rows, padRow(row, colCount))
		}
	}
	return in, nil
}

// BlankColumns counts columns whose every data row cell is empty after
// trimming. A sheet with no data rows counts every column as blank.
func (in *InputSheet) BlankColumns() int {
	blank := 0
	for col := 0; col < in.ColCount; col++ {
		empty := true
		for _, row := range in.Rows {
			if col < len(row) && strings.TrimSpace(row[col]) != "" {
				empty = false
				break
			}
		}
		if empty {
			blank++
		}
	}
	return blank
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
