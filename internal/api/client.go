package api

import (
	"context"

	"github.com/vilaca/gitlab-ci-status/internal/domain"
)

// Client defines the interface for CI platform clients.
// Follows Interface Segregation Principle.
type Client interface {
	// FetchPipelines returns pipelines for the given branch, newest first.
	FetchPipelines(ctx context.Context, branch string) ([]domain.Pipeline, error)

	// FetchJobs returns the jobs of a pipeline in the order the server returns them.
	FetchJobs(ctx context.Context, pipelineID uint64) ([]domain.Job, error)
}

// ClientConfig holds common configuration for API clients.
type ClientConfig struct {
	BaseURL string
	Token   string
	Project string
}
