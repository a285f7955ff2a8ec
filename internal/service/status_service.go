package service

import (
	"context"
	"fmt"

	"github.com/reconquest/karma-go"
	"github.com/reconquest/pkg/log"

	"github.com/vilaca/gitlab-ci-status/internal/api"
	"github.com/vilaca/gitlab-ci-status/internal/config"
	"github.com/vilaca/gitlab-ci-status/internal/domain"
	"github.com/vilaca/gitlab-ci-status/internal/gitrepo"
)

// Renderer prints the parts of the status report.
type Renderer interface {
	Branch(name string) error
	NoPipelines() error
	Pipeline(p domain.Pipeline) error
	Jobs(jobs []domain.Job) error
}

// ClientFactory builds an API client once the GitLab settings are known.
type ClientFactory func(cfg *config.GitLabConfig) api.Client

// StatusService reports the latest pipeline of the current branch.
// It runs each step in order and stops at the first failure.
type StatusService struct {
	dir       string
	newClient ClientFactory
	renderer  Renderer
}

// NewStatusService creates a service for the repository in dir.
func NewStatusService(dir string, newClient ClientFactory, renderer Renderer) *StatusService {
	return &StatusService{
		dir:       dir,
		newClient: newClient,
		renderer:  renderer,
	}
}

// Run prints the branch, its latest pipeline and that pipeline's jobs.
// A branch without pipelines is reported and is not an error.
func (s *StatusService) Run(ctx context.Context) error {
	if !gitrepo.HasMarker(s.dir) {
		return &gitrepo.RepositoryError{Op: "open repository", Err: gitrepo.ErrNotRepository}
	}

	repo, err := gitrepo.Open(s.dir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(repo)
	if err != nil {
		return fmt.Errorf("failed to load GitLab config: %w", err)
	}

	branch, err := repo.CurrentBranch()
	if err != nil {
		return err
	}

	if err := s.renderer.Branch(branch); err != nil {
		return err
	}

	logContext := karma.Describe("project", cfg.ProjectName).Describe("branch", branch)
	log.Debugf(logContext.Describe("repository", repo.Path()), "fetching pipelines")

	client := s.newClient(cfg)

	pipelines, err := client.FetchPipelines(ctx, branch)
	if err != nil {
		return fmt.Errorf("project %s: %w", cfg.ProjectName, err)
	}

	if len(pipelines) == 0 {
		return s.renderer.NoPipelines()
	}

	latest := pipelines[0]
	if err := s.renderer.Pipeline(latest); err != nil {
		return err
	}

	log.Debugf(
		logContext.Describe("pipeline", latest.ID),
		"fetching jobs of latest pipeline out of %d", len(pipelines),
	)

	jobs, err := client.FetchJobs(ctx, latest.ID)
	if err != nil {
		return fmt.Errorf("project %s: %w", cfg.ProjectName, err)
	}

	return s.renderer.Jobs(jobs)
}
