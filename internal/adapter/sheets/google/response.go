package google

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/heartmarshall/annotext/internal/domain"
)

// valueRange is the body of a values.get response. Rows are ragged: trailing
// empty cells and rows are omitted by the API.
type valueRange struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

// apiError is the error body returned by Google APIs.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (v valueRange) grid() domain.SheetGrid {
	grid := make(domain.SheetGrid, len(v.Values))
	for i, row := range v.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cellString(cell)
		}
		grid[i] = cells
	}
	return grid
}

// cellString renders a cell value. Formatted values arrive as strings; other
// JSON types appear only with unformatted rendering.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func apiMessage(body []byte, status int) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return http.StatusText(status)
}
