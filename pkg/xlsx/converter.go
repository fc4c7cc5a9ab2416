package xlsx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/tdtp-tds/pkg/core/resultset"
	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// DefaultSheet is used when no sheet name is given.
const DefaultSheet = "Sheet1"

// Built-in excelize number formats
const (
	numFmtInteger = 1  // 0
	numFmtText    = 49 // @
)

// ToXLSX - write decoded rows to an XLSX file
//
// Headers show field names with wire types (e.g., "price (MONEYN)",
// "amount (NUMERICN 10,2)"). Integers and floats are written as numbers,
// decimals as text so no digits are lost. NULL leaves the cell empty.
//
// Example:
//
//	err := xlsx.ToXLSX(fields, rows, "output.xlsx", "Orders")
func ToXLSX(fields tds.Fields, rows []tds.Row, filePath string, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = DefaultSheet
	}

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheetName != DefaultSheet {
		if err := f.DeleteSheet(DefaultSheet); err != nil {
			return fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	integerStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtInteger})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtText})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	for col, field := range fields {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header(field)); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	for rowIdx, row := range rows {
		if row.Len() != len(fields) {
			return fmt.Errorf("row %d has %d values, expected %d", rowIdx, row.Len(), len(fields))
		}
		for col := range fields {
			v := row.At(col)
			if v.IsNull() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v.Interface()); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
			style := 0
			switch v.Kind() {
			case tds.KindInteger:
				style = integerStyle
			case tds.KindDecimal, tds.KindText:
				style = textStyle
			}
			if style != 0 {
				if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
					return fmt.Errorf("failed to style cell %s: %w", cell, err)
				}
			}
		}
	}

	if len(fields) > 0 {
		last, _ := excelize.ColumnNumberToName(len(fields))
		if err := f.SetColWidth(sheetName, "A", last, 15); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	return f.SaveAs(filePath)
}

// FromResultSet drains rs from its current position into an XLSX file.
func FromResultSet(rs resultset.ResultSet, filePath string, sheetName string) (int, error) {
	rows, err := resultset.Collect(rs)
	if err != nil {
		return 0, fmt.Errorf("failed to read result set: %w", err)
	}
	if err := ToXLSX(rs.Fields(), rows, filePath, sheetName); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// FromXLSX - read rows written by ToXLSX
//
// The header row must use the "name (TYPE)" form. Empty cells read as NULL.
func FromXLSX(filePath string, sheetName string) (tds.Fields, []tds.Row, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}

	cells, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(cells) == 0 {
		return nil, nil, fmt.Errorf("sheet %s has no header row", sheetName)
	}

	fields := make(tds.Fields, len(cells[0]))
	for i, h := range cells[0] {
		if fields[i], err = parseHeader(h); err != nil {
			return nil, nil, err
		}
	}
	names := fields.Names()

	rows := make([]tds.Row, 0, len(cells)-1)
	for r, line := range cells[1:] {
		values := make([]tds.Value, len(fields))
		for col, field := range fields {
			if col >= len(line) || line[col] == "" {
				continue
			}
			isText := false
			if field.Type.IsNumeric() {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				if isText, err = isTextCell(f, sheetName, cell); err != nil {
					return nil, nil, fmt.Errorf("failed to read cell %s: %w", cell, err)
				}
			}
			if values[col], err = parseCell(field, line[col], isText); err != nil {
				return nil, nil, fmt.Errorf("row %d column %s: %w", r+2, field.Name, err)
			}
		}
		rows = append(rows, tds.NewRow(names, values))
	}
	return fields, rows, nil
}

// header - "name (TYPE)" or "name (TYPE p,s)" for DECIMAL/NUMERIC
func header(f tds.Field) string {
	if f.Type.IsNumeric() {
		return fmt.Sprintf("%s (%s %d,%d)", f.Name, f.Type, f.Precision, f.Scale)
	}
	return fmt.Sprintf("%s (%s)", f.Name, f.Type)
}

// parseHeader - parse header string produced by header
func parseHeader(h string) (tds.Field, error) {
	idx := strings.LastIndex(h, " (")
	if idx <= 0 || !strings.HasSuffix(h, ")") {
		return tds.Field{}, fmt.Errorf("invalid header %q: expected \"name (TYPE)\"", h)
	}
	field := tds.Field{Name: h[:idx]}

	typeName, params, _ := strings.Cut(h[idx+2:len(h)-1], " ")
	t, err := tds.ParseWireType(typeName)
	if err != nil {
		return tds.Field{}, fmt.Errorf("invalid header %q: %w", h, err)
	}
	field.Type = t

	if params != "" {
		p, s, ok := strings.Cut(params, ",")
		if !ok {
			return tds.Field{}, fmt.Errorf("invalid header %q: expected precision,scale", h)
		}
		if field.Precision, err = strconv.Atoi(p); err != nil {
			return tds.Field{}, fmt.Errorf("invalid header %q: %w", h, err)
		}
		if field.Scale, err = strconv.Atoi(s); err != nil {
			return tds.Field{}, fmt.Errorf("invalid header %q: %w", h, err)
		}
	}
	return field, nil
}

// parseCell - convert a raw cell value back to the kind its field decodes to.
// For DECIMAL/NUMERIC the cell type tells Decimal (text) from Float or Int.
func parseCell(f tds.Field, s string, isText bool) (tds.Value, error) {
	switch {
	case f.Type.IsInteger():
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return tds.Value{}, fmt.Errorf("invalid integer %q", s)
		}
		return tds.Int(n), nil
	case f.Type.IsFloat():
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return tds.Value{}, fmt.Errorf("invalid float %q", s)
		}
		return tds.Float(x), nil
	case f.Type.IsMoney():
		return tds.Decimal(s), nil
	case f.Type.IsNumeric():
		if isText {
			return tds.Decimal(s), nil
		}
		if f.Scale == 0 {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return tds.Value{}, fmt.Errorf("invalid integer %q", s)
			}
			return tds.Int(n), nil
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return tds.Value{}, fmt.Errorf("invalid number %q", s)
		}
		return tds.Float(x), nil
	default:
		return tds.Text(s), nil
	}
}

// isTextCell reports whether the cell stores a string
func isTextCell(f *excelize.File, sheet, cell string) (bool, error) {
	ct, err := f.GetCellType(sheet, cell)
	if err != nil {
		return false, err
	}
	return ct == excelize.CellTypeSharedString || ct == excelize.CellTypeInlineString, nil
}
