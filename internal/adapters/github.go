package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	apperrors "ghasreport/internal/errors"
	"ghasreport/internal/types"
)

// GitHubAdapter fetches security alerts from the GitHub API. It issues one
// logical request per (category, target) pair, following pagination, and
// classifies every non-2xx response. It never retries.
type GitHubAdapter struct {
	baseURL    string
	token      string
	apiVersion string
	client     *http.Client
	limiter    *rate.Limiter
}

// NewGitHubAdapter creates an adapter for the given connection settings.
// Requests are paced so that fan-out across targets cannot trip the API's
// secondary rate limits.
func NewGitHubAdapter(baseURL, token, apiVersion string) *GitHubAdapter {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxConnsPerHost:       20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	return &GitHubAdapter{
		baseURL:    baseURL,
		token:      token,
		apiVersion: apiVersion,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 5),
	}
}

// ListAlerts retrieves all currently open alerts of one category for one
// target. Pages are concatenated in API order before returning.
func (g *GitHubAdapter) ListAlerts(ctx context.Context, category types.AlertCategory, target types.Target) ([]types.RawAlert, error) {
	url := g.alertsURL(category, target)

	var alerts []types.RawAlert
	for url != "" {
		page, next, err := g.fetchPage(ctx, url)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, page...)
		url = next
	}
	return alerts, nil
}

func (g *GitHubAdapter) alertsURL(category types.AlertCategory, target types.Target) string {
	scope := "orgs"
	if target.Kind == types.KindRepository {
		scope = "repos"
	}
	return fmt.Sprintf("%s/%s/%s/%s/alerts?state=open&per_page=100", g.baseURL, scope, target.Slug(), category)
}

func (g *GitHubAdapter) fetchPage(ctx context.Context, url string) ([]types.RawAlert, string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, "", apperrors.NewTransportError(err)
	}

	resp, err := g.makeRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, "", apperrors.NewTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apperrors.NewTransportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", apperrors.NewAPIError(resp.StatusCode, errorDetail(resp.StatusCode, body))
	}

	var page []types.RawAlert
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", apperrors.NewTransportError(fmt.Errorf("decoding alerts payload: %w", err))
	}

	return page, nextPageLink(resp.Header.Get("Link")), nil
}

func (g *GitHubAdapter) makeRequest(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "ghas-report/1.0")
	if g.token != "" {
		req.Header.Set("Authorization", "token "+g.token)
	}
	if g.apiVersion != "" {
		req.Header.Set("X-GitHub-Api-Version", g.apiVersion)
	}

	return g.client.Do(req)
}

// genericMessages backs the error detail when the response body carries no
// message field.
var genericMessages = map[int]string{
	http.StatusBadRequest:          "Bad request, check the configured API version",
	http.StatusUnauthorized:        "Authentication failed, check your API key",
	http.StatusForbidden:           "GitHub Advanced Security is not enabled for this target",
	http.StatusNotFound:            "Resource not found",
	http.StatusUnprocessableEntity: "Validation failed, or the endpoint has been spammed",
	http.StatusServiceUnavailable:  "Service unavailable",
}

func errorDetail(statusCode int, body []byte) string {
	msg := gjson.GetBytes(body, "message").String()
	if msg == "" {
		if generic, ok := genericMessages[statusCode]; ok {
			msg = generic
		} else {
			msg = fmt.Sprintf("Unexpected status %d", statusCode)
		}
	}
	if errs := gjson.GetBytes(body, "errors"); errs.Exists() && errs.Raw != "null" {
		msg = fmt.Sprintf("%s, errors: %s", msg, errs.Raw)
	}
	return msg
}

var nextLinkRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

func nextPageLink(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	if m := nextLinkRe.FindStringSubmatch(linkHeader); m != nil {
		return m[1]
	}
	return ""
}
