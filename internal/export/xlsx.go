package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Timetable"

// RenderXLSX пишет расписание в книгу: строка заголовка, строка дней и по строке
// на урок. Перемены объединяются по всем дням.
func RenderXLSX(t *Timetable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	breakStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Italic: true, Color: "#6E7378"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D2D6DC"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create break style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("create cell style: %w", err)
	}

	if err := f.SetCellValue(sheetName, "A1", t.Title); err != nil {
		return nil, err
	}

	days := t.days()
	periods := t.periods()
	lastCol := len(days) + 1

	if err := f.SetCellValue(sheetName, "A2", "Period"); err != nil {
		return nil, err
	}
	for i, day := range days {
		if err := setCell(f, i+2, 2, dayLabel(day)); err != nil {
			return nil, err
		}
	}
	if err := styleRow(f, 2, lastCol, headerStyle); err != nil {
		return nil, err
	}

	for r, p := range periods {
		row := r + 3
		if err := setCell(f, 1, row, fmt.Sprintf("%s\n%s-%s", p.Name, p.StartTime, p.EndTime)); err != nil {
			return nil, err
		}

		if p.IsBreak() {
			if len(days) > 0 {
				if err := setCell(f, 2, row, p.Name); err != nil {
					return nil, err
				}
				from, _ := excelize.CoordinatesToCellName(2, row)
				to, _ := excelize.CoordinatesToCellName(lastCol, row)
				if err := f.MergeCell(sheetName, from, to); err != nil {
					return nil, fmt.Errorf("merge break row: %w", err)
				}
			}
			if err := styleRow(f, row, lastCol, breakStyle); err != nil {
				return nil, err
			}
			continue
		}

		for i, day := range days {
			c := t.cell(day, p)
			text := c.Subject
			if c.Teacher != "" {
				text += "\n" + c.Teacher
			}
			if err := setCell(f, i+2, row, text); err != nil {
				return nil, err
			}
		}
		if err := styleRow(f, row, lastCol, cellStyle); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 18); err != nil {
		return nil, err
	}
	if lastCol > 1 {
		last, _ := excelize.ColumnNumberToName(lastCol)
		if err := f.SetColWidth(sheetName, "B", last, 22); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheetName, cell, value)
}

func styleRow(f *excelize.File, row, lastCol, style int) error {
	from, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(lastCol, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheetName, from, to, style)
}
