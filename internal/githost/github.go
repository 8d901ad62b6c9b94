// Package githost opens pull requests. It prefers the gh CLI because
// that inherits the user's existing authentication and interactive
// prompts; when gh is not installed it falls back to the GitHub API
// with a token from the environment.
package githost

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"go.uber.org/zap"

	"gitscribe/internal/gitcli"
)

// Client creates pull requests for the repository the Runner operates in.
type Client struct {
	git    *gitcli.Runner
	logger *zap.Logger
}

// NewClient builds a Client around an existing git runner.
func NewClient(git *gitcli.Runner, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{git: git, logger: logger}
}

// CreatePROptions describes the pull request to open. Head and Base are
// only used by the API fallback; the gh CLI infers them itself.
type CreatePROptions struct {
	Title string
	Body  string
	Draft bool
	Head  string
	Base  string
}

// CreatePR opens a pull request and returns its URL when one is known.
// The gh CLI path returns an empty URL because gh prints it directly to
// the terminal. An already-existing pull request is not an error.
func (c *Client) CreatePR(ctx context.Context, opts CreatePROptions) (string, error) {
	if _, err := exec.LookPath("gh"); err == nil {
		return "", c.createWithGH(ctx, opts)
	}
	c.logger.Debug("gh CLI not found, using the GitHub API")
	return c.createWithAPI(ctx, opts)
}

func (c *Client) createWithGH(ctx context.Context, opts CreatePROptions) error {
	bodyFile, err := os.CreateTemp("", "gitscribe-pr-*.md")
	if err != nil {
		return fmt.Errorf("failed to create body file: %w", err)
	}
	defer os.Remove(bodyFile.Name())

	if _, err := bodyFile.WriteString(opts.Body); err != nil {
		bodyFile.Close()
		return fmt.Errorf("failed to write body file: %w", err)
	}
	if err := bodyFile.Close(); err != nil {
		return fmt.Errorf("failed to write body file: %w", err)
	}

	return c.git.ToolInteractive(ctx, "gh", ghArgs(opts, bodyFile.Name())...)
}

func ghArgs(opts CreatePROptions, bodyFile string) []string {
	args := []string{"pr", "create"}
	if opts.Draft {
		args = append(args, "--draft")
	}
	return append(args, "--title", opts.Title, "--body-file", bodyFile)
}

func (c *Client) createWithAPI(ctx context.Context, opts CreatePROptions) (string, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}
	if token == "" {
		return "", fmt.Errorf("cannot create pull request: install the gh CLI or set GITHUB_TOKEN")
	}

	remote, err := c.git.RemoteURL(ctx, "origin")
	if err != nil {
		return "", fmt.Errorf("failed to resolve origin: %w", err)
	}
	owner, repo, err := ParseRemoteURL(remote)
	if err != nil {
		return "", err
	}

	client := gh.NewClient(nil).WithAuthToken(token)

	pr := &gh.NewPullRequest{
		Title: &opts.Title,
		Head:  &opts.Head,
		Base:  &opts.Base,
		Body:  &opts.Body,
		Draft: &opts.Draft,
	}

	created, resp, err := client.PullRequests.Create(ctx, owner, repo, pr)
	if err == nil {
		c.logger.Debug("created pull request", zap.String("url", created.GetHTMLURL()))
		return created.GetHTMLURL(), nil
	}

	// HTTP 422: a PR already exists for this head/base pair.
	if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
		c.logger.Info("pull request already exists for this branch")
		return "", nil
	}

	return "", fmt.Errorf("creating pull request: %w", err)
}

// ParseRemoteURL extracts owner and repository name from a git remote
// URL in either SSH (git@host:owner/repo.git) or HTTP form.
func ParseRemoteURL(remote string) (owner, repo string, err error) {
	path := ""
	switch {
	case strings.Contains(remote, "://"):
		u, perr := url.Parse(remote)
		if perr != nil {
			return "", "", fmt.Errorf("unparseable remote URL %q: %w", remote, perr)
		}
		path = u.Path
	case strings.Contains(remote, "@") && strings.Contains(remote, ":"):
		path = remote[strings.Index(remote, ":")+1:]
	default:
		return "", "", fmt.Errorf("unsupported remote URL %q", remote)
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("cannot extract owner/repo from remote URL %q", remote)
	}
	return parts[0], parts[1], nil
}
