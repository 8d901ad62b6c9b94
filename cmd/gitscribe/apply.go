package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"gitscribe/internal/llm"
	"gitscribe/internal/render"
)

var applyCached bool

var applyCmd = &cobra.Command{
	Use:     "apply [instructions]",
	GroupID: "git",
	Short:   "Transform the working tree diff with a model-generated patch",
	Long: `Sends the current diff to the model along with your instructions
and applies the patch it produces. The diff is read from stdin when
piped, otherwise from git diff.

If git rejects the patch, the rejection is fed back to the model and it
tries again, up to three attempts.

Example:
  gitscribe apply "split the helper into its own file"
  git diff HEAD~3 | gitscribe apply "drop the debug logging"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runApply,
}

var addCmd = &cobra.Command{
	Use:     "add",
	GroupID: "git",
	Short:   "Stage a minimal cleanup patch generated from the working tree diff",
	Long: `Generates a minimal patch from the unstaged diff and applies it to
the index, leaving the working tree untouched. Use it to stage the
substance of a change while leaving stray edits behind.`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	applyCmd.Flags().BoolVar(&applyCached, "cached", false, "Apply the patch to the index instead of the working tree")
	addExtendPromptFlag(applyCmd)
	addExtendPromptFlag(addCmd)

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(addCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx, cancel := operationContext()
	defer cancel()

	vars := app.promptVars(ctx)
	vars["instructions"] = strings.Join(args, " ")

	system, err := app.resolver.Resolve("apply_patch_custom_instructions", vars)
	if err != nil {
		return err
	}
	return runPatchPipeline(ctx, extendSystemPrompt(system, extendPrompt), applyCached)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := operationContext()
	defer cancel()

	system, err := app.resolver.Resolve("apply_patch_minimal", app.promptVars(ctx))
	if err != nil {
		return err
	}
	return runPatchPipeline(ctx, extendSystemPrompt(system, extendPrompt), true)
}

// runPatchPipeline asks the model for a patch over the current diff and
// applies it, retrying with git's rejection when it does not apply.
func runPatchPipeline(ctx context.Context, systemPrompt string, cached bool) error {
	input, err := readDiffInput(ctx)
	if err != nil {
		return err
	}

	client, err := app.resolveClient()
	if err != nil {
		return err
	}
	defer closeClient(client)

	executor := llm.NewExecutor(client, app.display, app.logger)
	req := llm.Request{
		Prompt:       "Result of `git diff`:\n```\n" + input + "\n```",
		SystemPrompt: systemPrompt,
		Stream:       true,
		Kind:         render.Diff,
	}

	_, err = llm.WithRetry(ctx, executor, req, func(text string) (string, error) {
		return applyPatchText(ctx, text, cached)
	}, 3)
	if err != nil {
		return err
	}

	app.display.Notice("Patch applied.")
	return nil
}

// readDiffInput takes the diff from a pipe when stdin is one, otherwise
// from git.
func readDiffInput(ctx context.Context) (string, error) {
	fd := os.Stdin.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return app.git.Diff(ctx, app.diffOptions())
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// applyPatchText extracts the fenced patch from model output and hands
// it to git apply. A git rejection comes back as the validation error,
// so the retry loop shows the model exactly what git said.
func applyPatchText(ctx context.Context, text string, cached bool) (string, error) {
	patch, ok := llm.ExtractFencedBlock(text)
	if !ok {
		app.display.Error("apply result:")
		app.display.Error(text)
		return "", errors.New("no patch found in the output")
	}

	patchFile, err := tempFileWithContent("gitscribe-patch-*.diff", patch)
	if err != nil {
		return "", err
	}
	defer os.Remove(patchFile)

	if err := app.git.Apply(ctx, patchFile, cached); err != nil {
		return "", err
	}
	return patch, nil
}
