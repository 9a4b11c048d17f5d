package describe

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/datapond/pkg/types"
)

// Sample is the schema taken from the leading rows of a spreadsheet.
type Sample struct {
	Names []string
	Types []string
	// Rows is the data row count when the whole sheet fit in the sample,
	// nil otherwise.
	Rows *int64
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/06",
	"1/2/2006",
	"02/01/2006",
}

// SampleSpreadsheet reads the header and up to maxRows data rows from the
// first sheet and infers a type tag per column.
func SampleSpreadsheet(path string, maxRows int) (*Sample, error) {
	name := filepath.Base(path)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, types.IOError("open spreadsheet", name, err)
	}
	defer f.Close()

	sample := &Sample{Names: []string{}, Types: []string{}}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return sample, nil
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, types.IOError("read sheet", name, err)
	}
	defer rows.Close()

	var header []string
	var kinds []string
	var dataRows int64
	exhausted := true
	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return nil, types.IOError("read row", name, err)
		}
		if header == nil {
			header = cells
			if header == nil {
				header = []string{}
			}
			kinds = make([]string, len(header))
			continue
		}
		if int(dataRows) >= maxRows {
			exhausted = false
			break
		}
		dataRows++
		for i := 0; i < len(kinds) && i < len(cells); i++ {
			kinds[i] = mergeKind(kinds[i], kindOf(cells[i]))
		}
	}
	if err := rows.Error(); err != nil {
		return nil, types.IOError("read sheet", name, err)
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	sample.Names = dedupe(header)
	sample.Types = make([]string, len(kinds))
	for i, k := range kinds {
		if k == "" {
			k = types.ColumnUnknown
		}
		sample.Types[i] = k
	}
	if exhausted {
		sample.Rows = &dataRows
	}
	return sample, nil
}

// kindOf returns the type tag of a single formatted cell, or "" for blanks.
func kindOf(cell string) string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return ""
	}
	if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return types.ColumnInteger
	}
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return types.ColumnNumber
	}
	switch strings.ToUpper(cell) {
	case "TRUE", "FALSE":
		return types.ColumnBoolean
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, cell); err == nil {
			return types.ColumnDate
		}
	}
	return types.ColumnString
}

// mergeKind widens the running tag of a column with the tag of a new cell.
func mergeKind(current, next string) string {
	switch {
	case next == "" || current == next:
		return current
	case current == "":
		return next
	case (current == types.ColumnInteger && next == types.ColumnNumber) ||
		(current == types.ColumnNumber && next == types.ColumnInteger):
		return types.ColumnNumber
	default:
		return types.ColumnString
	}
}
