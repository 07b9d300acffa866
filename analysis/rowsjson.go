package analysis

import (
	"encoding/json"
	"fmt"
)

// RowsError reports the first structural failure in a rowsJson payload.
// Row and Col are -1 when the failure is above that level.
type RowsError struct {
	Row int
	Col int
	Msg string
}

func (e *RowsError) Error() string {
	switch {
	case e.Row < 0:
		return "rowsJson: " + e.Msg
	case e.Col < 0:
		return fmt.Sprintf("rowsJson: row %d: %s", e.Row, e.Msg)
	default:
		return fmt.Sprintf("rowsJson: row %d, cell %d: %s", e.Row, e.Col, e.Msg)
	}
}

// ParseRows decodes a rowsJson payload into a cell grid.
//
// The payload is JSON serialized inside JSON and the model honors its shape
// far less reliably than the top-level document, so parsing is deliberately
// permissive at the field level: a wrong-typed optional field is dropped and
// a missing or wrong-typed text becomes "". Structural failures (not JSON,
// root not an array, a row not an array, a cell not an object) still fail
// the whole table, tagged with the row/cell that broke.
func ParseRows(rowsJSON string) ([][]TableCell, error) {
	var root any
	if err := json.Unmarshal([]byte(rowsJSON), &root); err != nil {
		return nil, &RowsError{Row: -1, Col: -1, Msg: "not valid JSON: " + err.Error()}
	}
	rows, ok := root.([]any)
	if !ok {
		return nil, &RowsError{Row: -1, Col: -1, Msg: "root is not an array"}
	}

	grid := make([][]TableCell, 0, len(rows))
	for r, rawRow := range rows {
		cells, ok := rawRow.([]any)
		if !ok {
			return nil, &RowsError{Row: r, Col: -1, Msg: "row is not an array"}
		}
		row := make([]TableCell, 0, len(cells))
		for c, rawCell := range cells {
			obj, ok := rawCell.(map[string]any)
			if !ok {
				return nil, &RowsError{Row: r, Col: c, Msg: "cell is not an object"}
			}
			row = append(row, parseCell(obj))
		}
		grid = append(grid, row)
	}
	return grid, nil
}

func parseCell(obj map[string]any) TableCell {
	var cell TableCell
	if s, ok := obj["text"].(string); ok {
		cell.Text = s
	}
	if n, ok := obj["colspan"].(float64); ok && n >= 1 {
		cell.Colspan = int(n)
	}
	if n, ok := obj["rowspan"].(float64); ok && n >= 1 {
		cell.Rowspan = int(n)
	}
	if b, ok := obj["bold"].(bool); ok {
		cell.Bold = b
	}
	if s, ok := obj["fillColor"].(string); ok {
		if s == FillTransparent || IsHexColor(s) {
			cell.FillColor = s
		}
	}
	if s, ok := obj["color"].(string); ok && IsHexColor(s) {
		cell.Color = s
	}
	if s, ok := obj["align"].(string); ok {
		switch Align(s) {
		case AlignLeft, AlignCenter, AlignRight:
			cell.Align = Align(s)
		}
	}
	return cell
}
