package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"git.pepabo.com/yukyan/gh-scope-collision/github/ghtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	issuesPath = "/repos/octo/widgets/issues"
)

func setupEnv(t *testing.T, eventJSON string) {
	t.Helper()
	for _, name := range []string{
		"GH_TOKEN", "COORD_MODE", "GH_HOST", "GITHUB_SERVER_URL",
		"COORD_TIMEOUT", "COORD_LOG_LEVEL", "COORD_OUTPUT_FORMAT", "COORD_DRY_RUN",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("GITHUB_TOKEN", "test-token")

	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(eventJSON), 0o600))
	t.Setenv("GITHUB_EVENT_PATH", path)
}

func run(t *testing.T, tr *ghtest.Transport, args ...string) (int, string) {
	t.Helper()
	var stdout bytes.Buffer
	code := execute(context.Background(), args, &stdout, io.Discard, tr)
	return code, stdout.String()
}

const billingPR = `{
	"action": "opened",
	"repository": {"full_name": "octo/widgets"},
	"pull_request": {"number": 12, "title": "Migrate billing", "body": "SCOPE: billing-migration"}
}`

func billingTransport() *ghtest.Transport {
	tr := ghtest.NewTransport()
	tr.Handle(http.MethodGet, issuesPath, ghtest.Response{Status: 200, Body: `[
		{"number": 12, "body": "SCOPE: billing-migration", "html_url": "https://github.com/octo/widgets/pull/12", "pull_request": {}},
		{"number": 7, "body": "Scope: Billing-Migration", "html_url": "https://github.com/octo/widgets/issues/7"}
	]`})
	tr.Handle(http.MethodPost, issuesPath+"/12/comments",
		ghtest.Response{Status: 201, Body: `{"html_url": "https://github.com/octo/widgets/pull/12#issuecomment-1"}`})
	return tr
}

func TestExecute_CollisionWarn(t *testing.T) {
	setupEnv(t, billingPR)
	t.Setenv("COORD_MODE", "warn")
	tr := billingTransport()

	code, out := run(t, tr)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "Collision found for pull_request #12, mode=warn.")

	posts := tr.Calls(http.MethodPost, issuesPath+"/12/comments")
	require.Len(t, posts, 1)

	var payload struct {
		Body string `json:"body"`
	}
	require.NoError(t, json.Unmarshal([]byte(posts[0].Body), &payload))
	assert.Contains(t, payload.Body, "**SCOPE:** `billing-migration`")
	assert.Contains(t, payload.Body, "- Issue #7: https://github.com/octo/widgets/issues/7")
	assert.NotContains(t, payload.Body, "#12")
}

func TestExecute_CollisionBlock(t *testing.T) {
	setupEnv(t, billingPR)
	t.Setenv("COORD_MODE", "BLOCK")
	tr := billingTransport()

	code, out := run(t, tr)
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, out, "failing because COORD_MODE=block")
	assert.Len(t, tr.Calls(http.MethodPost, issuesPath+"/12/comments"), 1)
}

func TestExecute_JSONReport(t *testing.T) {
	setupEnv(t, billingPR)
	t.Setenv("COORD_MODE", "block")
	tr := billingTransport()

	code, out := run(t, tr, "--output-format", "json")
	assert.Equal(t, exitFailed, code)

	var report struct {
		Scope      string `json:"scope"`
		Blocked    bool   `json:"blocked"`
		CommentURL string `json:"comment_url"`
		Collisions []struct {
			Number int    `json:"number"`
			Type   string `json:"type"`
		} `json:"collisions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "billing-migration", report.Scope)
	assert.True(t, report.Blocked)
	assert.Equal(t, "https://github.com/octo/widgets/pull/12#issuecomment-1", report.CommentURL)
	require.Len(t, report.Collisions, 1)
	assert.Equal(t, 7, report.Collisions[0].Number)
	assert.Equal(t, "Issue", report.Collisions[0].Type)
}

func TestExecute_DryRunBlockStillFails(t *testing.T) {
	setupEnv(t, billingPR)
	tr := billingTransport()

	code, _ := run(t, tr, "--mode", "block", "--dry-run")
	assert.Equal(t, exitFailed, code)
	assert.Empty(t, tr.Calls(http.MethodPost, issuesPath+"/12/comments"))
}

func TestExecute_IssueWithoutScope(t *testing.T) {
	setupEnv(t, `{
		"repository": {"full_name": "octo/widgets"},
		"issue": {"number": 3, "title": "Something", "body": "No declaration in here."}
	}`)
	tr := ghtest.NewTransport()

	code, _ := run(t, tr)
	assert.Equal(t, exitOK, code)
	assert.Empty(t, tr.Requests())
}

func TestExecute_NoCollision(t *testing.T) {
	setupEnv(t, `{
		"repository": {"full_name": "octo/widgets"},
		"pull_request": {"number": 20, "body": "SCOPE: api-v2"}
	}`)
	t.Setenv("COORD_MODE", "block")
	tr := ghtest.NewTransport()
	tr.Handle(http.MethodGet, issuesPath, ghtest.Response{Status: 200, Body: `[
		{"number": 20, "body": "SCOPE: api-v2", "pull_request": {}},
		{"number": 21, "body": "SCOPE: api-v1"}
	]`})

	code, _ := run(t, tr)
	assert.Equal(t, exitOK, code)
	assert.Len(t, tr.Calls(http.MethodGet, issuesPath), 1)
	assert.Empty(t, tr.Calls(http.MethodPost, issuesPath+"/20/comments"))
}

func TestExecute_MissingToken(t *testing.T) {
	setupEnv(t, billingPR)
	t.Setenv("GITHUB_TOKEN", "")
	tr := billingTransport()

	code, out := run(t, tr)
	assert.Equal(t, exitMisconfigured, code)
	assert.Contains(t, out, "missing GITHUB_TOKEN")
	assert.Empty(t, tr.Requests())
}

func TestExecute_MissingEventFile(t *testing.T) {
	setupEnv(t, billingPR)
	t.Setenv("GITHUB_EVENT_PATH", filepath.Join(t.TempDir(), "missing.json"))
	tr := billingTransport()

	code, _ := run(t, tr)
	assert.Equal(t, exitMisconfigured, code)
	assert.Empty(t, tr.Requests())
}

func TestExecute_UnsupportedEvent(t *testing.T) {
	setupEnv(t, `{"repository": {"full_name": "octo/widgets"}, "ref": "refs/heads/main"}`)
	tr := ghtest.NewTransport()

	code, out := run(t, tr)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "Unsupported event type")
	assert.Empty(t, tr.Requests())
}

func TestExecute_MissingNumber(t *testing.T) {
	setupEnv(t, `{"repository": {"full_name": "octo/widgets"}, "issue": {"body": "SCOPE: x"}}`)
	tr := ghtest.NewTransport()

	code, _ := run(t, tr)
	assert.Equal(t, exitMisconfigured, code)
	assert.Empty(t, tr.Requests())
}

func TestExecute_BadRepository(t *testing.T) {
	setupEnv(t, `{"repository": {"full_name": "widgets"}, "issue": {"number": 3, "body": "SCOPE: x"}}`)
	tr := ghtest.NewTransport()

	code, _ := run(t, tr)
	assert.Equal(t, exitMisconfigured, code)
	assert.Empty(t, tr.Requests())
}

func TestExecute_APIFailure(t *testing.T) {
	setupEnv(t, billingPR)
	tr := ghtest.NewTransport()
	tr.Handle(http.MethodGet, issuesPath, ghtest.Response{Status: 403, Body: `{"message": "Resource not accessible by integration"}`})

	code, _ := run(t, tr)
	assert.Equal(t, exitFailed, code)
}

func TestExecute_UnknownFlag(t *testing.T) {
	setupEnv(t, billingPR)

	code, _ := run(t, ghtest.NewTransport(), "--bogus")
	assert.Equal(t, exitMisconfigured, code)
}
