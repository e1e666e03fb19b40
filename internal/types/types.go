package types

import "encoding/json"

// Sentinel is the placeholder emitted for any field the API did not supply.
const Sentinel = "N/A"

// TargetKind distinguishes organization-scoped from repository-scoped queries.
type TargetKind string

const (
	KindOrganization TargetKind = "organization"
	KindRepository   TargetKind = "repository"
)

// Target is one organization or one owner/repository pair to query.
// Repository targets always carry a non-empty Owner; organization targets never use it.
type Target struct {
	Kind  TargetKind `json:"kind"`
	Name  string     `json:"name"`
	Owner string     `json:"owner,omitempty"`
}

// Slug returns the API path fragment for the target.
func (t Target) Slug() string {
	if t.Kind == KindRepository {
		return t.Owner + "/" + t.Name
	}
	return t.Name
}

// AlertCategory selects the endpoint path suffix and the row schema.
type AlertCategory string

const (
	CodeScanning   AlertCategory = "code-scanning"
	SecretScanning AlertCategory = "secret-scanning"
	Dependabot     AlertCategory = "dependabot"
)

// Categories lists every alert category in report order.
var Categories = []AlertCategory{CodeScanning, SecretScanning, Dependabot}

// RawAlert is one undecoded alert record as returned by the API.
type RawAlert = json.RawMessage

// Row is one flat, fixed-schema record destined for a report. Every row of a
// category carries the same field count and order within a run.
type Row []string

// ProjectReport is the finished row sequence for one project, headed by the
// schema's column names.
type ProjectReport struct {
	Project string `json:"project"`
	Kind    string `json:"kind"`
	Header  Row    `json:"header"`
	Rows    []Row  `json:"rows"`
	// Skipped counts targets or alerts dropped by recoverable errors.
	Skipped int `json:"skipped"`
}
