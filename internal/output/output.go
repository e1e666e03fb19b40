package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "ghasreport/internal/errors"
	"ghasreport/internal/types"
)

// Format is one of the supported report file formats.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Formats lists every supported format in emission order.
var Formats = []Format{FormatCSV, FormatJSON, FormatHTML}

// ParseFormats expands a --format value into the format list; "all" selects
// every supported format.
func ParseFormats(value string) ([]Format, error) {
	switch Format(value) {
	case FormatCSV, FormatJSON, FormatHTML:
		return []Format{Format(value)}, nil
	default:
		if value == "all" {
			return Formats, nil
		}
		return nil, fmt.Errorf("unsupported output format %q", value)
	}
}

// Write emits one report file and returns its path. Each file is written
// independently, so a failure never corrupts previously written reports.
func Write(rep *types.ProjectReport, dir string, format Format, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.NewIOError(fmt.Sprintf("creating report directory %s", dir), err)
	}

	name := fmt.Sprintf("%s-%s-%s.%s", rep.Project, rep.Kind, now.Format("20060102150405"), format)
	path := filepath.Join(dir, name)

	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(path, rep)
	case FormatJSON:
		err = writeJSON(path, rep)
	case FormatHTML:
		err = writeHTML(path, rep)
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}
