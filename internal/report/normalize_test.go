package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ghasreport/internal/errors"
	"ghasreport/internal/types"
)

var (
	orgTarget  = types.Target{Kind: types.KindOrganization, Name: "acme-corp"}
	repoTarget = types.Target{Kind: types.KindRepository, Name: "billing-api", Owner: "acme-corp"}
)

const codeAlert = `{
	"created_at": "2024-03-01T10:15:00Z",
	"updated_at": "2024-03-05T08:00:00Z",
	"rule": {"id": "js/sql-injection", "security_severity_level": "critical", "severity": "error"},
	"most_recent_instance": {
		"message": {"text": "Query built from user input"},
		"location": {"path": "src/db.js"},
		"category": ".github/workflows/codeql.yml:analyze"
	},
	"html_url": "https://github.com/acme-corp/billing-api/security/code-scanning/42",
	"repository": {"name": "billing-api"},
	"organization": {"name": "acme-corp"}
}`

const secretAlert = `{
	"created_at": "2023-11-20T23:59:59Z",
	"updated_at": "2023-11-21T00:00:01Z",
	"secret_type_display_name": "GitHub Personal Access Token",
	"secret_type": "github_personal_access_token",
	"html_url": "https://github.com/acme-corp/billing-api/security/secret-scanning/7",
	"repository": {"name": "billing-api"}
}`

const dependabotAlert = `{
	"created_at": "2024-01-02T03:04:05Z",
	"updated_at": "2024-02-02T03:04:05Z",
	"security_advisory": {"severity": "high", "cve_id": "CVE-2024-1234", "summary": "Prototype pollution"},
	"dependency": {"package": {"name": "lodash"}, "scope": "runtime", "manifest_path": "package-lock.json"},
	"html_url": "https://github.com/acme-corp/billing-api/security/dependabot/3",
	"repository": {"name": "billing-api"}
}`

func TestNormalizeCodeScanning(t *testing.T) {
	row, err := Normalize(types.CodeScanning, orgTarget, types.RawAlert(codeAlert))
	require.NoError(t, err)

	assert.Equal(t, types.Row{
		"acme-corp",
		"billing-api",
		"2024-03-01",
		"2024-03-05",
		"critical",
		"js/sql-injection",
		"Query built from user input",
		"src/db.js",
		".github/workflows/codeql.yml:analyze",
		"https://github.com/acme-corp/billing-api/security/code-scanning/42",
	}, row)
}

func TestNormalizeSecretScanning(t *testing.T) {
	row, err := Normalize(types.SecretScanning, repoTarget, types.RawAlert(secretAlert))
	require.NoError(t, err)

	assert.Equal(t, types.Row{
		"N/A", // no organization in the payload, target is a repository
		"billing-api",
		"2023-11-20",
		"2023-11-21",
		"GitHub Personal Access Token",
		"github_personal_access_token",
		"https://github.com/acme-corp/billing-api/security/secret-scanning/7",
	}, row)
}

func TestNormalizeDependabot(t *testing.T) {
	row, err := Normalize(types.Dependabot, repoTarget, types.RawAlert(dependabotAlert))
	require.NoError(t, err)

	assert.Equal(t, types.Row{
		"N/A",
		"billing-api",
		"2024-01-02",
		"2024-02-02",
		"high",
		"lodash",
		"CVE-2024-1234",
		"Prototype pollution",
		"runtime",
		"package-lock.json",
		"https://github.com/acme-corp/billing-api/security/dependabot/3",
	}, row)
}

func TestNormalizeSchemaWidth(t *testing.T) {
	alerts := map[types.AlertCategory]string{
		types.CodeScanning:   codeAlert,
		types.SecretScanning: secretAlert,
		types.Dependabot:     dependabotAlert,
	}

	for category, alert := range alerts {
		t.Run(string(category), func(t *testing.T) {
			row, err := Normalize(category, orgTarget, types.RawAlert(alert))
			require.NoError(t, err)
			assert.Len(t, row, SchemaWidth(category))
			assert.Len(t, Header(category), SchemaWidth(category))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first, err := Normalize(types.Dependabot, repoTarget, types.RawAlert(dependabotAlert))
	require.NoError(t, err)
	second, err := Normalize(types.Dependabot, repoTarget, types.RawAlert(dependabotAlert))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalizeNullSafety(t *testing.T) {
	// Valid timestamps, everything else absent: every remaining field is the
	// sentinel except those supplied directly by the target.
	bare := `{"created_at": "2024-01-02T03:04:05Z", "updated_at": "2024-01-02T03:04:05Z"}`

	tests := []struct {
		name     string
		category types.AlertCategory
		target   types.Target
	}{
		{"code scanning from organization", types.CodeScanning, orgTarget},
		{"secret scanning from repository", types.SecretScanning, repoTarget},
		{"dependabot from organization", types.Dependabot, orgTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := Normalize(tt.category, tt.target, types.RawAlert(bare))
			require.NoError(t, err)
			require.Len(t, row, SchemaWidth(tt.category))

			assert.Equal(t, "2024-01-02", row[2])
			assert.Equal(t, "2024-01-02", row[3])
			if tt.target.Kind == types.KindOrganization {
				assert.Equal(t, tt.target.Name, row[0])
				assert.Equal(t, types.Sentinel, row[1])
			} else {
				assert.Equal(t, types.Sentinel, row[0])
				assert.Equal(t, tt.target.Name, row[1])
			}
			for _, field := range row[4:] {
				assert.Equal(t, types.Sentinel, field)
			}
		})
	}
}

func TestNormalizeDateErrors(t *testing.T) {
	tests := []struct {
		name  string
		alert string
	}{
		{"missing created_at", `{"updated_at": "2024-01-02T03:04:05Z"}`},
		{"sentinel timestamp", `{"created_at": "N/A", "updated_at": "2024-01-02T03:04:05Z"}`},
		{"malformed timestamp", `{"created_at": "02/01/2024", "updated_at": "2024-01-02T03:04:05Z"}`},
		{"null timestamp", `{"created_at": null, "updated_at": "2024-01-02T03:04:05Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := Normalize(types.CodeScanning, orgTarget, types.RawAlert(tt.alert))
			assert.Nil(t, row)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindDateParse, apperrors.ToAppError(err).Kind)
			assert.False(t, apperrors.IsFatal(err))
		})
	}
}

func TestNormalizeSeverityFallback(t *testing.T) {
	alert := `{
		"created_at": "2024-01-02T03:04:05Z",
		"updated_at": "2024-01-02T03:04:05Z",
		"rule": {"id": "go/unsafe-tls", "severity": "warning"}
	}`

	row, err := Normalize(types.CodeScanning, orgTarget, types.RawAlert(alert))
	require.NoError(t, err)
	assert.Equal(t, "warning", row[4])
}

func TestCountHeaderWidth(t *testing.T) {
	assert.Len(t, CountHeader, 5)
}
