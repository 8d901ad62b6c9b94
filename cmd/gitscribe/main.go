package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gitscribe/internal/config"
	"gitscribe/internal/gitcli"
	"gitscribe/internal/githost"
	"gitscribe/internal/llm"
	"gitscribe/internal/prompt"
	"gitscribe/internal/render"
)

var (
	// Global flags
	verbose   bool
	modelFlag string

	// extendPrompt is registered on every model-calling command; only
	// one command runs per process so they can share the variable.
	extendPrompt string

	// Logger
	logger *zap.Logger

	// app holds the wired components every command works with.
	app *appContext
)

// appContext bundles the pieces a command handler needs.
type appContext struct {
	cfg      *config.Config
	git      *gitcli.Runner
	resolver *prompt.Resolver
	registry *llm.Registry
	display  *render.Terminal
	github   *githost.Client
	logger   *zap.Logger
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gitscribe",
	Short: "Git workflows driven by a language model",
	Long: `gitscribe generates commit messages, branch names, pull request
descriptions, and patches from your repository state, then hands the
result to git.

Prompts are assembled from layered YAML configuration: built-in
defaults, then the user config, then the repository's .gitscribe.yaml.
Model output streams to the terminal as it arrives.

Set GITSCRIBE_SHOW_PROMPTS=1 to echo the prompts sent to the model.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		git := gitcli.New(logger)

		// Outside a repository the repo config layer is simply absent.
		topLevel, err := git.TopLevel(cmd.Context())
		if err != nil {
			logger.Debug("not inside a git repository", zap.Error(err))
			topLevel = ""
		}

		cfg, err := config.Load(topLevel, logger)
		if err != nil {
			return err
		}

		app = &appContext{
			cfg:      cfg,
			git:      git,
			resolver: prompt.New(prompt.Lenient, cfg.Prompts...),
			registry: llm.NewRegistry(cfg.LLM, logger),
			display:  render.NewTerminal(cfg.Terminal, logger),
			github:   githost.NewClient(git, logger),
			logger:   logger,
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model name or configured alias (default: llm.default_model)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "git", Title: "Git commands:"},
		&cobra.Group{ID: "github", Title: "GitHub commands:"},
	)
}

// addExtendPromptFlag registers the shared --extend-prompt flag.
func addExtendPromptFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&extendPrompt, "extend-prompt", "", "Extra instructions appended to the system prompt")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// operationContext returns a context cancelled by SIGINT or SIGTERM so
// an in-flight model request stops when the user interrupts.
func operationContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

// promptVars collects the variables every template may reference.
func (a *appContext) promptVars(ctx context.Context) map[string]string {
	pwd, _ := os.Getwd()
	branch, err := a.git.CurrentBranch(ctx)
	if err != nil {
		branch = ""
	}
	return prompt.BaseVars(pwd, branch, nil)
}

// diffOptions carries the configured diff shaping into gitcli.
func (a *appContext) diffOptions() gitcli.DiffOptions {
	return gitcli.DiffOptions{
		Exclude: a.cfg.Diff.Exclude,
		Unified: a.cfg.Diff.Unified,
	}
}

// resolveClient picks the model client for this invocation and whether
// the executor built on it should stream.
func (a *appContext) resolveClient() (llm.Client, error) {
	return a.registry.Resolve(modelFlag)
}

// closeClient releases clients that hold connections.
func closeClient(client llm.Client) {
	if c, ok := client.(io.Closer); ok {
		_ = c.Close()
	}
}

// extendSystemPrompt appends caller-supplied instructions to a resolved
// system prompt.
func extendSystemPrompt(base, extension string) string {
	if strings.TrimSpace(extension) == "" {
		return base
	}
	return base + "\n\n" + extension
}

// metadataInstruction asks the model to append a provenance trailer.
func metadataInstruction(model string) string {
	return fmt.Sprintf("\n\nEnd the message with this exact trailer on its own line:\nGenerated-by: gitscribe (%s)", model)
}

// commentedPromptSection renders the system prompt as git comment lines
// so it shows up in the editor but is stripped from the final message.
func commentedPromptSection(systemPrompt string) string {
	var sb strings.Builder
	sb.WriteString("\n\n# ----- LLM PROMPT (WILL BE REMOVED) -----\n")
	for _, line := range strings.Split(systemPrompt, "\n") {
		sb.WriteString("# ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("# ----- END LLM PROMPT -----\n")
	return sb.String()
}

// splitTitleBody cuts generated pull request text into its first line
// and the remainder.
func splitTitleBody(text string) (title, body string) {
	title, body, _ = strings.Cut(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(title), strings.TrimSpace(body)
}

// tempFileWithContent writes content to a fresh temp file and returns
// its path. The caller removes it.
func tempFileWithContent(pattern, content string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return f.Name(), nil
}
