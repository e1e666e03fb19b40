package report

import (
	"time"

	"github.com/tidwall/gjson"

	apperrors "ghasreport/internal/errors"
	"ghasreport/internal/types"
)

const (
	apiTimeLayout = "2006-01-02T15:04:05Z"
	dateLayout    = "2006-01-02"
)

// Normalize maps one raw alert onto the category's fixed row schema. It is a
// pure function: no I/O, deterministic for identical inputs. Missing nested
// fields resolve to the sentinel; a missing or unparsable timestamp returns a
// date-parse error so the caller can skip just this alert.
func Normalize(category types.AlertCategory, target types.Target, alert types.RawAlert) (types.Row, error) {
	cols := schemas[category]
	row := make(types.Row, 0, len(cols))

	for _, c := range cols {
		switch c.kind {
		case colOrganization:
			if target.Kind == types.KindOrganization {
				row = append(row, target.Name)
			} else {
				row = append(row, lookup(alert, "organization.name"))
			}
		case colRepository:
			if target.Kind == types.KindRepository {
				row = append(row, target.Name)
			} else {
				row = append(row, lookup(alert, "repository.name"))
			}
		case colDate:
			raw := lookup(alert, c.path)
			ts, err := time.Parse(apiTimeLayout, raw)
			if err != nil {
				return nil, apperrors.NewDateParseError(c.path, raw)
			}
			row = append(row, ts.Format(dateLayout))
		case colField:
			paths := []string{c.path}
			if c.fallback != "" {
				paths = append(paths, c.fallback)
			}
			row = append(row, lookup(alert, paths...))
		}
	}

	return row, nil
}

// lookup resolves the first path that yields a non-null, non-empty value.
// Absence at any nesting depth falls through to the sentinel.
func lookup(alert types.RawAlert, paths ...string) string {
	for _, p := range paths {
		r := gjson.GetBytes(alert, p)
		if r.Exists() && r.Type != gjson.Null && r.String() != "" {
			return r.String()
		}
	}
	return types.Sentinel
}
