// Package export renders report rows for people and spreadsheets.
//
// Console formats (text, table) write to an io.Writer. File formats (xlsx,
// pdf) are chosen by the output path's extension and built in memory first,
// so a failed render never leaves a partial file behind.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/gwp/internal/calendar"
	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/report"
)

// Report is a finished report run.
type Report struct {
	Range  calendar.MonthRange `json:"range"`
	Mode   contract.Mode       `json:"mode"`
	Events int                 `json:"events"`
	Rows   []report.Row        `json:"rows"`
}

// Final returns the last row, or a zero row when the report is empty.
func (r Report) Final() report.Row {
	if len(r.Rows) == 0 {
		return report.Row{}
	}
	return r.Rows[len(r.Rows)-1]
}

// FileFormat is a file export format.
type FileFormat string

const (
	FormatXLSX FileFormat = "xlsx"
	FormatPDF  FileFormat = "pdf"
)

// FileFormatOf returns the export format implied by path's extension.
func FileFormatOf(path string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported output file %q: want .xlsx or .pdf", path)
	}
}

// Build renders the report in the given file format.
func Build(format FileFormat, r Report) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return BuildXLSX(r)
	case FormatPDF:
		return BuildPDF(r)
	default:
		return nil, fmt.Errorf("unknown file format %q", format)
	}
}

// WriteFile renders the report and writes it to path.
func WriteFile(path string, r Report) error {
	format, err := FileFormatOf(path)
	if err != nil {
		return err
	}
	data, err := Build(format, r)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
