package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/reconquest/karma-go"
	"github.com/reconquest/pkg/log"

	"github.com/vilaca/gitlab-ci-status/internal/api"
	"github.com/vilaca/gitlab-ci-status/internal/domain"
)

// maxErrorBody bounds how much of an error response is kept in APIError.
const maxErrorBody = 512

// Client implements api.Client for GitLab REST API v4.
// Only handles GitLab API communication for a single project.
type Client struct {
	baseURL    string
	token      string
	project    string
	httpClient HTTPClient
}

// HTTPClient interface for HTTP operations (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewClient creates a new GitLab client.
// Uses dependency injection for HTTPClient.
func NewClient(config api.ClientConfig, httpClient HTTPClient) *Client {
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		project:    config.Project,
		httpClient: httpClient,
	}
}

// PipelinesURL returns the URL listing pipelines of the project for a branch.
// The project is path-escaped, the branch is used as is.
func (c *Client) PipelinesURL(branch string) string {
	return fmt.Sprintf("%s/pipelines?ref=%s", c.projectURL(), branch)
}

// JobsURL returns the URL listing jobs of a pipeline.
func (c *Client) JobsURL(pipelineID uint64) string {
	return fmt.Sprintf("%s/pipelines/%s/jobs", c.projectURL(), strconv.FormatUint(pipelineID, 10))
}

func (c *Client) projectURL() string {
	return fmt.Sprintf("%s/api/v4/projects/%s", c.baseURL, url.PathEscape(c.project))
}

// FetchPipelines retrieves pipelines for a branch in the order GitLab returns them (newest first).
func (c *Client) FetchPipelines(ctx context.Context, branch string) ([]domain.Pipeline, error) {
	var glPipelines []*gitlabPipeline
	if err := c.doRequest(ctx, c.PipelinesURL(branch), &glPipelines); err != nil {
		return nil, fmt.Errorf("failed to get pipelines: %w", err)
	}

	err := validateList(glPipelines == nil, len(glPipelines), func(i int) error {
		return glPipelines[i].validate()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pipelines: %w", err)
	}

	pipelines := make([]domain.Pipeline, len(glPipelines))
	for i, glp := range glPipelines {
		pipelines[i] = convertPipeline(glp)
	}

	return pipelines, nil
}

// FetchJobs retrieves the jobs of a pipeline.
func (c *Client) FetchJobs(ctx context.Context, pipelineID uint64) ([]domain.Job, error) {
	var glJobs []*gitlabJob
	if err := c.doRequest(ctx, c.JobsURL(pipelineID), &glJobs); err != nil {
		return nil, fmt.Errorf("failed to get jobs: %w", err)
	}

	err := validateList(glJobs == nil, len(glJobs), func(i int) error {
		return glJobs[i].validate()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs: %w", err)
	}

	jobs := make([]domain.Job, len(glJobs))
	for i, glj := range glJobs {
		jobs[i] = convertJob(glj)
	}

	return jobs, nil
}

// doRequest performs a GET request to GitLab API and decodes the JSON body into result.
func (c *Client) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("PRIVATE-TOKEN", c.token)
	req.Header.Set("Accept", "application/json")

	debugContext := karma.Describe("url", endpoint)
	log.Tracef(debugContext, "sending http request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &api.NetworkError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	log.Tracef(debugContext.Describe("status_code", resp.StatusCode), "received response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &api.APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(result); err != nil {
		return &api.DecodeError{Err: err}
	}
	if decoder.More() {
		return &api.DecodeError{Err: errTrailingData}
	}

	return nil
}

// validateList checks a decoded JSON array. A null body is not a list.
func validateList(isNull bool, n int, validate func(i int) error) error {
	if isNull {
		return &api.DecodeError{Err: errNotList}
	}

	for i := 0; i < n; i++ {
		if err := validate(i); err != nil {
			return &api.DecodeError{Err: fmt.Errorf("element %d: %w", i, err)}
		}
	}

	return nil
}

// convertPipeline converts a validated GitLab pipeline to domain model.
func convertPipeline(glp *gitlabPipeline) domain.Pipeline {
	return domain.Pipeline{
		ID:       *glp.ID,
		Status:   domain.Status(*glp.Status),
		RefField: glp.RefField,
		RefName:  *glp.Ref,
	}
}

// convertJob converts a validated GitLab job to domain model.
func convertJob(glj *gitlabJob) domain.Job {
	return domain.Job{
		ID:     *glj.ID,
		Status: domain.Status(*glj.Status),
		Name:   *glj.Name,
		Stage:  *glj.Stage,
	}
}

// GitLab API response types.
// Required fields are pointers so a missing field can be told apart from a zero value.
type gitlabPipeline struct {
	ID       *uint64 `json:"id"`
	Status   *string `json:"status"`
	Ref      *string `json:"ref"`
	RefField string  `json:"ref_field"`
}

func (p *gitlabPipeline) validate() error {
	switch {
	case p == nil:
		return errNullElement
	case p.ID == nil:
		return missingField("id")
	case p.Status == nil:
		return missingField("status")
	case p.Ref == nil:
		return missingField("ref")
	}
	return nil
}

type gitlabJob struct {
	ID     *uint64 `json:"id"`
	Status *string `json:"status"`
	Name   *string `json:"name"`
	Stage  *string `json:"stage"`
}

func (j *gitlabJob) validate() error {
	switch {
	case j == nil:
		return errNullElement
	case j.ID == nil:
		return missingField("id")
	case j.Status == nil:
		return missingField("status")
	case j.Name == nil:
		return missingField("name")
	case j.Stage == nil:
		return missingField("stage")
	}
	return nil
}

var (
	errNotList      = errors.New("expected a JSON array, got null")
	errNullElement  = errors.New("element is null")
	errTrailingData = errors.New("unexpected data after JSON array")
)

func missingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}
