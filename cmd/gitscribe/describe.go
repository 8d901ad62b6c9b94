package main

import (
	"github.com/spf13/cobra"

	"gitscribe/internal/llm"
	"gitscribe/internal/render"
)

var describeStagedCmd = &cobra.Command{
	Use:     "describe-staged",
	GroupID: "git",
	Short:   "Analyze the staged changes and suggest how to commit them",
	Long: `Shows the staged diff and asks the model to describe what changed,
including whether the changes should be split into separate commits.`,
	Args: cobra.NoArgs,
	RunE: runDescribeStaged,
}

func init() {
	addExtendPromptFlag(describeStagedCmd)

	rootCmd.AddCommand(describeStagedCmd)
}

func runDescribeStaged(cmd *cobra.Command, args []string) error {
	ctx, cancel := operationContext()
	defer cancel()

	opts := app.diffOptions()
	opts.Staged = true
	diff, err := app.git.Diff(ctx, opts)
	if err != nil {
		return err
	}

	app.display.Header("Staged changes:")
	app.display.Print(app.display.Highlight(diff, render.Diff))
	app.display.Notice("\nAnalyzing changes...\n")

	system, err := app.resolver.Resolve("describe_staged", app.promptVars(ctx))
	if err != nil {
		return err
	}
	system = extendSystemPrompt(system, extendPrompt)

	client, err := app.resolveClient()
	if err != nil {
		return err
	}
	defer closeClient(client)

	executor := llm.NewExecutor(client, app.display, app.logger)
	_, err = executor.Execute(ctx, llm.Request{
		Prompt:       diff,
		SystemPrompt: system,
		Stream:       true,
		Kind:         render.Markdown,
	})
	return err
}
