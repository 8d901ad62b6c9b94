package main

import (
	"github.com/spf13/cobra"

	"gitscribe/internal/llm"
)

var branchPreview bool

var createBranchCmd = &cobra.Command{
	Use:     "create-branch [commit-spec]",
	GroupID: "git",
	Short:   "Name and create a branch from a range of commits",
	Long: `Generates a branch name from the commits you are about to branch
off and checks it out. Without a commit spec the range is everything on
HEAD since it diverged from origin's default branch.

Example:
  gitscribe create-branch
  gitscribe create-branch HEAD~3..HEAD
  gitscribe create-branch --preview`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreateBranch,
}

func init() {
	createBranchCmd.Flags().BoolVar(&branchPreview, "preview", false, "Print the generated name without creating the branch")
	addExtendPromptFlag(createBranchCmd)

	rootCmd.AddCommand(createBranchCmd)
}

func runCreateBranch(cmd *cobra.Command, args []string) error {
	ctx, cancel := operationContext()
	defer cancel()

	spec := ""
	if len(args) > 0 {
		spec = args[0]
	}
	if spec == "" {
		upstream, err := app.git.OriginDefaultBranch(ctx)
		if err != nil {
			return err
		}
		base, err := app.git.MergeBase(ctx, upstream, "HEAD")
		if err != nil {
			return err
		}
		spec = base + "..HEAD"
	}

	log, err := app.git.CommitRangeLog(ctx, spec)
	if err != nil {
		return err
	}

	system, err := app.resolver.Resolve("branch_name", app.promptVars(ctx))
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
	name, err := executor.Execute(ctx, llm.Request{
		Prompt:       log,
		SystemPrompt: system,
	})
	if err != nil {
		return err
	}

	if branchPreview {
		app.display.Print(name + "\n")
		return nil
	}

	if err := app.git.CheckoutNewBranch(ctx, name); err != nil {
		return err
	}
	app.display.Notice("Created branch " + name)
	return nil
}
