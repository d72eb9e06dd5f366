package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (e *XLSXExporter) Render(data Dataset, sheet string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	if sheet == "" {
		sheet = "Sheet1"
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	row := 1
	for _, note := range data.Notes {
		if err := f.SetCellValue(sheet, cell(1, row), note); err != nil {
			return nil, fmt.Errorf("write note: %w", err)
		}
		row++
	}
	if len(data.Notes) > 0 {
		row++
	}

	headerRow := row
	if err := f.SetSheetRow(sheet, cell(1, row), &data.Headers); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, cell(1, headerRow), cell(len(data.Headers), headerRow), bold); err != nil {
		return nil, fmt.Errorf("style headers: %w", err)
	}
	row++

	for _, r := range data.Rows {
		values := data.record(r)
		if err := f.SetSheetRow(sheet, cell(1, row), &values); err != nil {
			return nil, fmt.Errorf("write xlsx row: %w", err)
		}
		row++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
