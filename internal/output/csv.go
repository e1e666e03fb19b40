package output

import (
	"encoding/csv"
	"fmt"
	"os"

	apperrors "ghasreport/internal/errors"
	"ghasreport/internal/types"
)

func writeCSV(path string, rep *types.ProjectReport) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewIOError(fmt.Sprintf("creating %s", path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(rep.Header); err != nil {
		return apperrors.NewIOError(fmt.Sprintf("writing %s", path), err)
	}
	for _, row := range rep.Rows {
		if err := w.Write(row); err != nil {
			return apperrors.NewIOError(fmt.Sprintf("writing %s", path), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return apperrors.NewIOError(fmt.Sprintf("flushing %s", path), err)
	}
	return nil
}
