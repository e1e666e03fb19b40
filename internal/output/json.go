package output

import (
	"encoding/json"
	"fmt"
	"os"

	apperrors "ghasreport/internal/errors"
	"ghasreport/internal/types"
)

func writeJSON(path string, rep *types.ProjectReport) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewIOError(fmt.Sprintf("creating %s", path), err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return apperrors.NewIOError(fmt.Sprintf("writing %s", path), err)
	}
	return nil
}
