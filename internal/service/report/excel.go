package report

import (
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"geoattendance/backend/internal/entity"
)

const ContentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var excelWidths = []float64{8, 15, 20, 15, 20, 25, 20, 25}

// headerRow is the 1-based row of the column header; data follows it.
const headerRow = 4

// Excel renders records into a single-sheet workbook.
func (f *Formatter) Excel(records []entity.AttendanceWithUser, filter Filter) ([]byte, error) {
	x := excelize.NewFile()
	defer x.Close()

	if err := x.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, errors.Wrap(err, "renaming sheet")
	}
	if err := x.SetDocProps(&excelize.DocProperties{Creator: system, Title: Title}); err != nil {
		return nil, errors.Wrap(err, "setting document properties")
	}

	styles, err := newExcelStyles(x)
	if err != nil {
		return nil, err
	}

	last, _ := excelize.ColumnNumberToName(len(Columns))

	for i, w := range excelWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := x.SetColWidth(SheetName, col, col, w); err != nil {
			return nil, errors.Wrap(err, "setting column width")
		}
	}

	// Title and filter lines span the table.
	for row, text := range map[int]string{1: Title, 2: f.FilterLine(filter)} {
		start, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(len(Columns), row)
		if err := x.MergeCell(SheetName, start, end); err != nil {
			return nil, errors.Wrap(err, "merging cells")
		}
		if err := x.SetCellValue(SheetName, start, text); err != nil {
			return nil, errors.Wrap(err, "writing cell")
		}
		style := styles.title
		if row == 2 {
			style = styles.filter
		}
		if err := x.SetCellStyle(SheetName, start, end, style); err != nil {
			return nil, errors.Wrap(err, "styling cell")
		}
	}

	if err := writeRow(x, headerRow, toValues(Columns)); err != nil {
		return nil, err
	}
	if err := x.SetCellStyle(SheetName, "A4", last+"4", styles.header); err != nil {
		return nil, errors.Wrap(err, "styling header")
	}

	for i, r := range records {
		rowNum := headerRow + 1 + i

		values := toValues(f.row(i, r, 6))
		values[0] = i + 1
		if err := writeRow(x, rowNum, values); err != nil {
			return nil, err
		}

		style := styles.cell
		if i%2 == 1 {
			style = styles.zebra
		}
		start, _ := excelize.CoordinatesToCellName(1, rowNum)
		end, _ := excelize.CoordinatesToCellName(len(Columns), rowNum)
		if err := x.SetCellStyle(SheetName, start, end, style); err != nil {
			return nil, errors.Wrap(err, "styling row")
		}
	}

	// One blank row, then the total.
	totalRow := headerRow + len(records) + 2
	if err := writeRow(x, totalRow, []interface{}{"Total Records:", len(records)}); err != nil {
		return nil, err
	}
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	if err := x.SetCellStyle(SheetName, cell, cell, styles.bold); err != nil {
		return nil, errors.Wrap(err, "styling total")
	}

	buf, err := x.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf.Bytes(), nil
}

func writeRow(x *excelize.File, row int, values []interface{}) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := x.SetSheetRow(SheetName, cell, &values); err != nil {
		return errors.Wrapf(err, "writing row %d", row)
	}
	return nil
}

func toValues(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

type excelStyles struct {
	title, filter, header, cell, zebra, bold int
}

func newExcelStyles(x *excelize.File) (excelStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center"}

	defs := []*excelize.Style{
		{Font: &excelize.Font{Bold: true, Size: 16}, Alignment: center},
		{Font: &excelize.Font{Italic: true, Size: 10}, Alignment: center},
		{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
			Alignment: center,
			Border:    border,
		},
		{Border: border},
		{Border: border, Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F2F2F2"}}},
		{Font: &excelize.Font{Bold: true}},
	}

	ids := make([]int, len(defs))
	for i, d := range defs {
		id, err := x.NewStyle(d)
		if err != nil {
			return excelStyles{}, errors.Wrap(err, "creating style")
		}
		ids[i] = id
	}

	return excelStyles{
		title:  ids[0],
		filter: ids[1],
		header: ids[2],
		cell:   ids[3],
		zebra:  ids[4],
		bold:   ids[5],
	}, nil
}
