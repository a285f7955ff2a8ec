package gitlab

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vilaca/gitlab-ci-status/internal/api"
	"github.com/vilaca/gitlab-ci-status/internal/domain"
)

// mockHTTPClient is a test double for HTTPClient.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func respondWith(status int, body string) *mockHTTPClient {
	return &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(bytes.NewBufferString(body)),
			}, nil
		},
	}
}

func newTestClient(httpClient HTTPClient) *Client {
	return NewClient(api.ClientConfig{
		BaseURL: "https://gitlab.com",
		Token:   "test-token",
		Project: "group/sub-project",
	}, httpClient)
}

// TestFetchPipelines tests retrieving pipelines for a branch.
// Follows AAA (Arrange, Act, Assert) pattern.
func TestFetchPipelines(t *testing.T) {
	// Arrange
	responseBody := `[
		{"id": 457, "status": "running", "ref": "main", "web_url": "https://gitlab.com/group/sub-project/-/pipelines/457"},
		{"id": 456, "status": "success", "ref": "main", "web_url": "https://gitlab.com/group/sub-project/-/pipelines/456"}
	]`

	var gotReq *http.Request
	mockHTTP := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			gotReq = req
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
			}, nil
		},
	}

	client := newTestClient(mockHTTP)

	// Act
	pipelines, err := client.FetchPipelines(context.Background(), "main")

	// Assert
	require.NoError(t, err)
	require.Len(t, pipelines, 2)

	assert.Equal(t, uint64(457), pipelines[0].ID)
	assert.Equal(t, domain.StatusRunning, pipelines[0].Status)
	assert.Equal(t, "main", pipelines[0].RefName)
	assert.Empty(t, pipelines[0].RefField)
	assert.Equal(t, uint64(456), pipelines[1].ID)

	require.NotNil(t, gotReq)
	assert.Equal(t, http.MethodGet, gotReq.Method)
	assert.Equal(t, "test-token", gotReq.Header.Get("PRIVATE-TOKEN"))
	assert.Equal(t,
		"https://gitlab.com/api/v4/projects/group%2Fsub-project/pipelines?ref=main",
		gotReq.URL.String(),
	)
}

// TestFetchPipelines_Empty tests when no pipelines exist for the branch.
func TestFetchPipelines_Empty(t *testing.T) {
	// Arrange
	client := newTestClient(respondWith(http.StatusOK, `[]`))

	// Act
	pipelines, err := client.FetchPipelines(context.Background(), "main")

	// Assert
	require.NoError(t, err)
	assert.Empty(t, pipelines)
}

// TestFetchPipelines_APIError tests error handling when API returns error.
func TestFetchPipelines_APIError(t *testing.T) {
	// Arrange
	client := newTestClient(respondWith(http.StatusUnauthorized, `{"message":"401 Unauthorized"}`))

	// Act
	pipelines, err := client.FetchPipelines(context.Background(), "main")

	// Assert
	require.Error(t, err)
	assert.Nil(t, pipelines)

	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "failed to get pipelines")
}

// TestFetchPipelines_NetworkError tests that transport failures are reported as NetworkError.
func TestFetchPipelines_NetworkError(t *testing.T) {
	// Arrange
	cause := errors.New("dial tcp: connection refused")
	client := newTestClient(&mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return nil, cause
		},
	})

	// Act
	_, err := client.FetchPipelines(context.Background(), "main")

	// Assert
	var netErr *api.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, cause)
}

// TestFetchPipelines_DecodeError tests bodies that are not a JSON array of pipelines.
func TestFetchPipelines_DecodeError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"object instead of array", `{"message":"ok"}`},
		{"array of numbers", `[1, 2, 3]`},
		{"wrong field type", `[{"id": "not-a-number", "status": "success", "ref": "main"}]`},
		{"not json", `<html>maintenance</html>`},
		{"null body", `null`},
		{"null element", `[null]`},
		{"empty object", `[{}]`},
		{"missing id and ref", `[{"status": "success"}]`},
		{"missing ref", `[{"id": 1, "status": "success"}]`},
		{"null status", `[{"id": 1, "status": null, "ref": "main"}]`},
		{"trailing data", `[] trailing`},
		{"second value", `[{"id": 1, "status": "success", "ref": "main"}] []`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			client := newTestClient(respondWith(http.StatusOK, tt.body))

			// Act
			pipelines, err := client.FetchPipelines(context.Background(), "main")

			// Assert
			assert.Nil(t, pipelines)
			var decodeErr *api.DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}

// TestFetchJobs tests retrieving jobs of a pipeline.
func TestFetchJobs(t *testing.T) {
	// Arrange
	responseBody := `[
		{"id": 1, "status": "success", "name": "build", "stage": "build"},
		{"id": 2, "status": "failed", "name": "test", "stage": "test"}
	]`

	var gotURL string
	client := newTestClient(&mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			gotURL = req.URL.String()
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
			}, nil
		},
	})

	// Act
	jobs, err := client.FetchJobs(context.Background(), 457)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "https://gitlab.com/api/v4/projects/group%2Fsub-project/pipelines/457/jobs", gotURL)
	assert.Equal(t, []domain.Job{
		{ID: 1, Status: domain.StatusSuccess, Name: "build", Stage: "build"},
		{ID: 2, Status: domain.StatusFailed, Name: "test", Stage: "test"},
	}, jobs)
}

// TestFetchPipelines_OptionalRefField tests that only ref_field may be absent.
func TestFetchPipelines_OptionalRefField(t *testing.T) {
	// Arrange
	client := newTestClient(respondWith(http.StatusOK,
		`[{"id": 1, "status": "success", "ref": "main", "ref_field": "branch"}, {"id": 0, "status": "", "ref": ""}]`+"\n"))

	// Act
	pipelines, err := client.FetchPipelines(context.Background(), "main")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []domain.Pipeline{
		{ID: 1, Status: domain.StatusSuccess, RefField: "branch", RefName: "main"},
		{ID: 0, Status: "", RefName: ""},
	}, pipelines)
}

// TestFetchJobs_DecodeError tests bodies that are not a JSON array of jobs.
func TestFetchJobs_DecodeError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"object instead of array", `{"message":"ok"}`},
		{"null body", `null`},
		{"null element", `[null]`},
		{"empty object", `[{}]`},
		{"missing stage", `[{"id": 1, "status": "success", "name": "build"}]`},
		{"missing name", `[{"id": 1, "status": "success", "stage": "build"}]`},
		{"trailing data", `[] trailing`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			client := newTestClient(respondWith(http.StatusOK, tt.body))

			// Act
			jobs, err := client.FetchJobs(context.Background(), 1)

			// Assert
			assert.Nil(t, jobs)
			var decodeErr *api.DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}

// TestFetchJobs_APIError tests that job listing failures carry the status code.
func TestFetchJobs_APIError(t *testing.T) {
	// Arrange
	client := newTestClient(respondWith(http.StatusNotFound, `{"message":"404 Not found"}`))

	// Act
	jobs, err := client.FetchJobs(context.Background(), 1)

	// Assert
	assert.Nil(t, jobs)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "failed to get jobs")
}

// TestURLs tests URL construction for project path escaping and trailing slashes.
func TestURLs(t *testing.T) {
	tests := []struct {
		name      string
		baseURL   string
		project   string
		pipelines string
		jobs      string
	}{
		{
			name:      "nested project path",
			baseURL:   "https://gitlab.example.com",
			project:   "group/sub-project",
			pipelines: "https://gitlab.example.com/api/v4/projects/group%2Fsub-project/pipelines?ref=feature/x",
			jobs:      "https://gitlab.example.com/api/v4/projects/group%2Fsub-project/pipelines/42/jobs",
		},
		{
			name:      "trailing slash",
			baseURL:   "https://gitlab.example.com/",
			project:   "1234",
			pipelines: "https://gitlab.example.com/api/v4/projects/1234/pipelines?ref=feature/x",
			jobs:      "https://gitlab.example.com/api/v4/projects/1234/pipelines/42/jobs",
		},
		{
			name:      "self-hosted under a path",
			baseURL:   "https://example.com/gitlab//",
			project:   "a/b/c",
			pipelines: "https://example.com/gitlab/api/v4/projects/a%2Fb%2Fc/pipelines?ref=feature/x",
			jobs:      "https://example.com/gitlab/api/v4/projects/a%2Fb%2Fc/pipelines/42/jobs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			client := NewClient(api.ClientConfig{BaseURL: tt.baseURL, Project: tt.project}, nil)

			// Act & Assert
			assert.Equal(t, tt.pipelines, client.PipelinesURL("feature/x"))
			assert.Equal(t, tt.jobs, client.JobsURL(42))
			assert.NotContains(t, client.PipelinesURL("main"), "//api/v4")
		})
	}
}

// TestClient_AgainstServer tests the wire format against a real HTTP server.
func TestClient_AgainstServer(t *testing.T) {
	// Arrange
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath()+"?"+r.URL.RawQuery)

		if r.Header.Get("PRIVATE-TOKEN") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/pipelines"):
			_, _ = io.WriteString(w, `[{"id": 9, "status": "pending", "ref": "feature/x"}]`)
		case strings.HasSuffix(r.URL.Path, "/jobs"):
			_, _ = io.WriteString(w, `[{"id": 3, "status": "manual", "name": "deploy", "stage": "deploy"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(api.ClientConfig{
		BaseURL: server.URL + "/",
		Token:   "secret",
		Project: "group/sub-project",
	}, server.Client())

	// Act
	pipelines, err := client.FetchPipelines(context.Background(), "feature/x")
	require.NoError(t, err)
	require.Len(t, pipelines, 1)

	jobs, err := client.FetchJobs(context.Background(), pipelines[0].ID)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, domain.StatusPending, pipelines[0].Status)
	assert.Equal(t, "feature/x", pipelines[0].RefName)
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.Status("manual"), jobs[0].Status)
	assert.Equal(t, []string{
		"/api/v4/projects/group%2Fsub-project/pipelines?ref=feature/x",
		"/api/v4/projects/group%2Fsub-project/pipelines/9/jobs?",
	}, paths)
}
