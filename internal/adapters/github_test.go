package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
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

func TestListAlertsRequestShape(t *testing.T) {
	tests := []struct {
		name     string
		category types.AlertCategory
		target   types.Target
		wantPath string
	}{
		{"organization code scanning", types.CodeScanning, orgTarget, "/orgs/acme-corp/code-scanning/alerts"},
		{"organization secret scanning", types.SecretScanning, orgTarget, "/orgs/acme-corp/secret-scanning/alerts"},
		{"repository dependabot", types.Dependabot, repoTarget, "/repos/acme-corp/billing-api/dependabot/alerts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReq *http.Request
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotReq = r.Clone(context.Background())
				fmt.Fprint(w, `[]`)
			}))
			defer srv.Close()

			adapter := NewGitHubAdapter(srv.URL, "test-key", "2022-11-28")
			alerts, err := adapter.ListAlerts(context.Background(), tt.category, tt.target)
			require.NoError(t, err)
			assert.Empty(t, alerts)

			require.NotNil(t, gotReq)
			assert.Equal(t, tt.wantPath, gotReq.URL.Path)
			assert.Equal(t, "open", gotReq.URL.Query().Get("state"))
			assert.Equal(t, "100", gotReq.URL.Query().Get("per_page"))
			assert.Equal(t, "token test-key", gotReq.Header.Get("Authorization"))
			assert.Equal(t, "2022-11-28", gotReq.Header.Get("X-GitHub-Api-Version"))
			assert.Equal(t, "application/vnd.github+json", gotReq.Header.Get("Accept"))
		})
	}
}

func TestListAlertsDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"number":1,"state":"open"},{"number":2,"state":"open"}]`)
	}))
	defer srv.Close()

	adapter := NewGitHubAdapter(srv.URL, "test-key", "2022-11-28")
	alerts, err := adapter.ListAlerts(context.Background(), types.CodeScanning, orgTarget)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
	assert.JSONEq(t, `{"number":1,"state":"open"}`, string(alerts[0]))
}

func TestListAlertsPagination(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/orgs/acme-corp/dependabot/alerts?state=open&per_page=100&page=2>; rel="next", <%s/x?page=9>; rel="last"`, srv.URL, srv.URL))
			fmt.Fprint(w, `[{"number":1},{"number":2}]`)
		case "2":
			fmt.Fprint(w, `[{"number":3}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	adapter := NewGitHubAdapter(srv.URL, "test-key", "2022-11-28")
	alerts, err := adapter.ListAlerts(context.Background(), types.Dependabot, orgTarget)
	require.NoError(t, err)

	require.Len(t, alerts, 3)
	assert.JSONEq(t, `{"number":1}`, string(alerts[0]))
	assert.JSONEq(t, `{"number":3}`, string(alerts[2]))
}

func TestListAlertsErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   apperrors.Kind
		wantDetail string
		wantFatal  bool
	}{
		{
			name:       "401 is fatal",
			status:     http.StatusUnauthorized,
			body:       `{"message":"Bad credentials"}`,
			wantKind:   apperrors.KindUnauthorized,
			wantDetail: "Bad credentials",
			wantFatal:  true,
		},
		{
			name:       "404 uses body message",
			status:     http.StatusNotFound,
			body:       `{"message":"Not Found"}`,
			wantKind:   apperrors.KindNotFound,
			wantDetail: "Not Found",
		},
		{
			name:       "403 without body falls back to generic message",
			status:     http.StatusForbidden,
			body:       ``,
			wantKind:   apperrors.KindForbidden,
			wantDetail: "GitHub Advanced Security is not enabled for this target",
		},
		{
			name:       "422 appends structured errors",
			status:     http.StatusUnprocessableEntity,
			body:       `{"message":"Validation Failed","errors":[{"field":"state"}]}`,
			wantKind:   apperrors.KindUnprocessable,
			wantDetail: `Validation Failed, errors: [{"field":"state"}]`,
		},
		{
			name:       "400 bad request",
			status:     http.StatusBadRequest,
			body:       `{}`,
			wantKind:   apperrors.KindBadRequest,
			wantDetail: "Bad request, check the configured API version",
		},
		{
			name:       "503 service unavailable",
			status:     http.StatusServiceUnavailable,
			body:       `{}`,
			wantKind:   apperrors.KindServiceUnavailable,
			wantDetail: "Service unavailable",
		},
		{
			name:       "unexpected status maps to unknown",
			status:     http.StatusTeapot,
			body:       `{}`,
			wantKind:   apperrors.KindUnknown,
			wantDetail: "Unexpected status 418",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			adapter := NewGitHubAdapter(srv.URL, "test-key", "2022-11-28")
			alerts, err := adapter.ListAlerts(context.Background(), types.SecretScanning, repoTarget)
			assert.Nil(t, alerts)
			require.Error(t, err)

			appErr := apperrors.ToAppError(err)
			assert.Equal(t, tt.wantKind, appErr.Kind)
			assert.Equal(t, tt.status, appErr.StatusCode)
			assert.Contains(t, appErr.Error(), tt.wantDetail)
			assert.Equal(t, tt.wantFatal, appErr.Fatal())
		})
	}
}

func TestListAlertsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	adapter := NewGitHubAdapter(srv.URL, "test-key", "2022-11-28")
	_, err := adapter.ListAlerts(context.Background(), types.CodeScanning, orgTarget)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindTransport, apperrors.ToAppError(err).Kind)
	assert.False(t, apperrors.IsFatal(err))
}

func TestListAlertsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not":"a list"}`)
	}))
	defer srv.Close()

	adapter := NewGitHubAdapter(srv.URL, "test-key", "2022-11-28")
	_, err := adapter.ListAlerts(context.Background(), types.CodeScanning, orgTarget)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindTransport, apperrors.ToAppError(err).Kind)
}

func TestListAlertsNoAuthHeaderWithoutToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	adapter := NewGitHubAdapter(srv.URL, "", "2022-11-28")
	_, err := adapter.ListAlerts(context.Background(), types.CodeScanning, orgTarget)
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestNextPageLink(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty header", "", ""},
		{"next present", `<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x?page=5>; rel="last"`, "https://api.github.com/x?page=2"},
		{"only last", `<https://api.github.com/x?page=5>; rel="last"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextPageLink(tt.header))
		})
	}
}
