package report

import "ghasreport/internal/types"

type columnKind int

const (
	// colOrganization / colRepository resolve from the target or the payload,
	// depending on the target kind.
	colOrganization columnKind = iota
	colRepository
	// colDate parses an API timestamp and re-emits a calendar date.
	colDate
	// colField is a null-safe nested payload lookup with a sentinel fallback.
	colField
)

type column struct {
	header string
	kind   columnKind
	path   string
	// fallback is tried when path resolves to nothing.
	fallback string
}

// schemas fixes the per-category row layout. Order is significant: it must
// match the emitted header exactly.
var schemas = map[types.AlertCategory][]column{
	types.CodeScanning: {
		{header: "Organization", kind: colOrganization},
		{header: "Repository", kind: colRepository},
		{header: "Date Created", kind: colDate, path: "created_at"},
		{header: "Date Updated", kind: colDate, path: "updated_at"},
		{header: "Severity", kind: colField, path: "rule.security_severity_level", fallback: "rule.severity"},
		{header: "Rule ID", kind: colField, path: "rule.id"},
		{header: "Description", kind: colField, path: "most_recent_instance.message.text"},
		{header: "File", kind: colField, path: "most_recent_instance.location.path"},
		{header: "Category", kind: colField, path: "most_recent_instance.category"},
		{header: "URL", kind: colField, path: "html_url"},
	},
	types.SecretScanning: {
		{header: "Organization", kind: colOrganization},
		{header: "Repository", kind: colRepository},
		{header: "Date Created", kind: colDate, path: "created_at"},
		{header: "Date Updated", kind: colDate, path: "updated_at"},
		{header: "Secret Type Name", kind: colField, path: "secret_type_display_name"},
		{header: "Secret Type", kind: colField, path: "secret_type"},
		{header: "URL", kind: colField, path: "html_url"},
	},
	types.Dependabot: {
		{header: "Organization", kind: colOrganization},
		{header: "Repository", kind: colRepository},
		{header: "Date Created", kind: colDate, path: "created_at"},
		{header: "Date Updated", kind: colDate, path: "updated_at"},
		{header: "Severity", kind: colField, path: "security_advisory.severity"},
		{header: "Package Name", kind: colField, path: "dependency.package.name"},
		{header: "CVE ID", kind: colField, path: "security_advisory.cve_id"},
		{header: "Summary", kind: colField, path: "security_advisory.summary"},
		{header: "Scope", kind: colField, path: "dependency.scope"},
		{header: "Manifest Path", kind: colField, path: "dependency.manifest_path"},
		{header: "URL", kind: colField, path: "html_url"},
	},
}

// CountHeader is the fixed schema of the alert-count report.
var CountHeader = types.Row{
	"Organization",
	"Repository",
	"Code Scanning Alerts",
	"Secret Scanning Alerts",
	"Dependabot Alerts",
}

// Header returns the column names of a category's detail schema.
func Header(category types.AlertCategory) types.Row {
	cols := schemas[category]
	header := make(types.Row, len(cols))
	for i, c := range cols {
		header[i] = c.header
	}
	return header
}

// SchemaWidth returns the fixed field count of a category's detail rows.
func SchemaWidth(category types.AlertCategory) int {
	return len(schemas[category])
}
