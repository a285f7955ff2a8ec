package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/reconquest/pkg/log"
	"github.com/spf13/cobra"

	"github.com/vilaca/gitlab-ci-status/internal/api"
	"github.com/vilaca/gitlab-ci-status/internal/api/gitlab"
	"github.com/vilaca/gitlab-ci-status/internal/config"
	"github.com/vilaca/gitlab-ci-status/internal/report"
	"github.com/vilaca/gitlab-ci-status/internal/service"
)

var version = "[manual build]"

// requestTimeout bounds each GitLab API request.
const requestTimeout = 30 * time.Second

func main() {
	setLogLevel(os.Getenv("GITLAB_CI_STATUS_DEBUG"))

	os.Exit(run(".", os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command for the repository in dir and returns the process exit code.
// Errors are printed to stderr as a single red "Error:" line.
func run(dir string, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(dir)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		_ = report.NewRenderer(stderr).Error(err)
		return 1
	}

	return 0
}

func newRootCommand(dir string) *cobra.Command {
	return &cobra.Command{
		Use:           "gitlab-ci-status",
		Short:         "Show the GitLab CI pipeline status of the current branch",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildService(dir, cmd).Run(cmd.Context())
		},
	}
}

// buildService wires up all dependencies for a run in dir.
// This is the composition root where all dependencies are created and injected.
func buildService(dir string, cmd *cobra.Command) *service.StatusService {
	httpClient := &http.Client{
		Timeout: requestTimeout,
	}

	factory := func(cfg *config.GitLabConfig) api.Client {
		return gitlab.NewClient(cfg.ClientConfig(), httpClient)
	}

	return service.NewStatusService(dir, factory, report.NewRenderer(cmd.OutOrStdout()))
}

// Log levels selectable through GITLAB_CI_STATUS_DEBUG.
const (
	logLevelDefault = ""
	logLevelDebug   = "debug"
	logLevelTrace   = "trace"
)

// parseLogLevel maps the GITLAB_CI_STATUS_DEBUG value to a log level.
// Unset, "0" and "false" keep the default; "trace" enables trace; anything else enables debug.
func parseLogLevel(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false":
		return logLevelDefault
	case "trace":
		return logLevelTrace
	default:
		return logLevelDebug
	}
}

func setLogLevel(value string) {
	switch parseLogLevel(value) {
	case logLevelTrace:
		log.SetLevel(log.LevelTrace)
	case logLevelDebug:
		log.SetLevel(log.LevelDebug)
	}
}
