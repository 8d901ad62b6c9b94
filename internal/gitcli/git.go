// Package gitcli shells out to git and keeps the rest of the tool away from
// subprocess plumbing. Commands either capture output (Run) or inherit the
// terminal for editor sessions (RunInteractive). The tool never parses git
// object formats; everything it needs comes back as text.
package gitcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// DefaultDiffExcludes lists pathspecs dropped from generated diffs.
// Lockfiles dominate a prompt's token budget without telling the model
// anything.
var DefaultDiffExcludes = []string{"package-lock.json", "yarn.lock"}

// defaultUnified is the diff context width sent to the model. Wider than
// git's default so the model sees enough surrounding code.
const defaultUnified = 10

// Runner executes git commands in a fixed working directory.
type Runner struct {
	dir    string
	logger *zap.Logger
}

// New creates a Runner operating in the current working directory.
func New(logger *zap.Logger) *Runner {
	return NewInDir("", logger)
}

// NewInDir creates a Runner operating in dir. An empty dir means the
// process working directory.
func NewInDir(dir string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{dir: dir, logger: logger}
}

// Run executes git with the given arguments and returns trimmed stdout.
// A non-zero exit is reported as *BackendError.
func (r *Runner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running git", zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &BackendError{
				Args:     append([]string{"git"}, args...),
				ExitCode: exitErr.ExitCode(),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
			}
		}
		return "", fmt.Errorf("running git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// RunInteractive executes git with the parent's terminal attached, for
// flows that open an editor. The output streams in the returned
// *BackendError are empty because they went to the terminal.
func (r *Runner) RunInteractive(ctx context.Context, args ...string) error {
	return r.ToolInteractive(ctx, "git", args...)
}

// ToolInteractive runs an arbitrary external tool with the same terminal
// passthrough and error conventions as interactive git commands. The gh
// CLI needs this for its own prompts.
func (r *Runner) ToolInteractive(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	r.logger.Debug("running interactive command", zap.String("name", name), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &BackendError{
				Args:     append([]string{name}, args...),
				ExitCode: exitErr.ExitCode(),
			}
		}
		return fmt.Errorf("running %s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

// CurrentBranch returns the checked-out branch name, empty when detached.
func (r *Runner) CurrentBranch(ctx context.Context) (string, error) {
	return r.Run(ctx, "branch", "--show-current")
}

// TopLevel returns the absolute path of the working tree root.
func (r *Runner) TopLevel(ctx context.Context) (string, error) {
	return r.Run(ctx, "rev-parse", "--show-toplevel")
}

// OriginDefaultBranch resolves what origin/HEAD points to, e.g.
// "origin/main". A symbolic ref outside refs/remotes/origin is an error.
func (r *Runner) OriginDefaultBranch(ctx context.Context) (string, error) {
	const remotePrefix = "refs/remotes/origin"
	ref, err := r.Run(ctx, "symbolic-ref", remotePrefix+"/HEAD")
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(ref, remotePrefix) {
		return "", fmt.Errorf("invalid symbolic ref: %s", ref)
	}
	return "origin" + strings.TrimPrefix(ref, remotePrefix), nil
}

// MergeBase returns the best common ancestor of two revisions.
func (r *Runner) MergeBase(ctx context.Context, a, b string) (string, error) {
	return r.Run(ctx, "merge-base", a, b)
}

// RemoteURL returns the fetch URL of the named remote.
func (r *Runner) RemoteURL(ctx context.Context, remote string) (string, error) {
	return r.Run(ctx, "remote", "get-url", remote)
}

// DiffOptions selects what Diff compares and what it leaves out.
type DiffOptions struct {
	// Staged diffs the index instead of the working tree.
	Staged bool
	// Base is an optional revision to diff against.
	Base string
	// Exclude lists pathspecs to drop. Nil means DefaultDiffExcludes;
	// an empty non-nil slice excludes nothing.
	Exclude []string
	// Unified overrides the context line count when positive.
	Unified int
}

func diffArgs(opts DiffOptions) []string {
	unified := opts.Unified
	if unified <= 0 {
		unified = defaultUnified
	}
	args := []string{"diff", fmt.Sprintf("--unified=%d", unified)}
	if opts.Staged {
		args = append(args, "--staged")
	}
	if opts.Base != "" {
		args = append(args, opts.Base)
	}
	exclude := opts.Exclude
	if exclude == nil {
		exclude = DefaultDiffExcludes
	}
	for _, f := range exclude {
		args = append(args, ":(exclude)"+f)
	}
	return args
}

// Diff returns the requested diff with wide context lines.
func (r *Runner) Diff(ctx context.Context, opts DiffOptions) (string, error) {
	return r.Run(ctx, diffArgs(opts)...)
}

// DiffForCommitMessage returns the change content a commit message should
// describe. A new commit describes the staged diff; an amend describes the
// staged content plus HEAD diffed against HEAD^, so rewording an existing
// commit still sees its full changes. Staged and Base in opts are
// overwritten.
func (r *Runner) DiffForCommitMessage(ctx context.Context, amend bool, opts DiffOptions) (string, error) {
	opts.Staged = true
	opts.Base = ""
	if amend {
		opts.Base = "HEAD^"
	}
	return r.Diff(ctx, opts)
}

// CommitRangeLog returns log text for a commit spec. Specs containing ".."
// are ranges; anything else is shown as a single commit.
func (r *Runner) CommitRangeLog(ctx context.Context, spec string) (string, error) {
	if strings.Contains(spec, "..") {
		return r.Run(ctx, "log", "--oneline", spec, "--format=fuller")
	}
	return r.Run(ctx, "show", "--oneline", spec, "--format=fuller")
}

// Log returns plain `git log` output for a revision range.
func (r *Runner) Log(ctx context.Context, rangeSpec string) (string, error) {
	return r.Run(ctx, "log", rangeSpec)
}

// LastCommitMessage returns the full message body of HEAD.
func (r *Runner) LastCommitMessage(ctx context.Context) (string, error) {
	return r.Run(ctx, "show", "--format=%B", "-s")
}

// Apply applies a patch file to the working tree, or to the index when
// cached is set.
func (r *Runner) Apply(ctx context.Context, patchFile string, cached bool) error {
	args := []string{"apply"}
	if cached {
		args = append(args, "--cached")
	}
	args = append(args, patchFile)
	_, err := r.Run(ctx, args...)
	return err
}

// CheckoutNewBranch creates and switches to a new branch.
func (r *Runner) CheckoutNewBranch(ctx context.Context, name string) error {
	_, err := r.Run(ctx, "checkout", "-b", name)
	return err
}

// CommitArgs builds the argv for `git commit`. The message file is passed
// with -F; --edit is added unless noEdit so the user can adjust the
// generated message in their editor.
func CommitArgs(amend, noEdit bool, messageFile string) []string {
	args := []string{"commit"}
	if amend {
		args = append(args, "--amend")
	}
	if !noEdit {
		args = append(args, "--edit")
	}
	if messageFile != "" {
		args = append(args, "-F", messageFile)
	}
	return args
}
