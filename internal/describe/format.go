package describe

import "github.com/mesh-intelligence/datapond/internal/naming"

// Format classifies a file by extension.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatDelimited
	FormatSpreadsheet
	FormatArchive
)

func (f Format) String() string {
	switch f {
	case FormatDelimited:
		return "delimited"
	case FormatSpreadsheet:
		return "spreadsheet"
	case FormatArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// Tabular reports whether files of this format are ingested directly.
func (f Format) Tabular() bool {
	return f == FormatDelimited || f == FormatSpreadsheet
}

var formatsByExt = map[string]Format{
	".csv":  FormatDelimited,
	".tsv":  FormatDelimited,
	".txt":  FormatDelimited,
	".xlsx": FormatSpreadsheet,
	".xlsm": FormatSpreadsheet,
	".zip":  FormatArchive,
}

// FormatOf returns the format implied by name's extension.
func FormatOf(name string) Format {
	return formatsByExt[naming.Ext(name)]
}
