package fundamentalsfs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/bobmcallan/cnstock/internal/models"
)

// missingMarkers are cell values read as missing, in addition to the empty string.
var missingMarkers = map[string]bool{
	"nan": true, "null": true, "none": true, "n/a": true, "na": true, "#n/a": true, "<na>": true,
}

// readSheet decodes a UTF-8 CSV (byte-order mark optional) into a header and typed records.
// Rows shorter than the header are padded with nil; longer rows are an error.
func readSheet(r io.Reader) ([]string, []models.Record, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("no columns to parse from file")
	}
	if err != nil {
		return nil, nil, err
	}

	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		columns[i] = h
	}

	var records []models.Record
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, nil, err
		}
		if len(row) > len(columns) {
			return nil, nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(columns), len(row))
		}

		values := make(map[string]interface{}, len(columns))
		for i, raw := range row {
			values[columns[i]] = parseCell(columns[i], raw)
		}
		records = append(records, models.NewRecord(columns, values))
	}

	return columns, records, nil
}

// parseCell keeps text columns as strings and reads every other cell as a number
// where possible. Missing markers, NaN and infinities become nil.
func parseCell(col, raw string) interface{} {
	v := strings.TrimSpace(raw)
	if v == "" || missingMarkers[strings.ToLower(v)] {
		return nil
	}
	if models.IsTextColumn(col) {
		return v
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
