package main

import (
	"os"

	"github.com/spf13/cobra"

	"gitscribe/internal/gitcli"
	"gitscribe/internal/llm"
	"gitscribe/internal/render"
)

// includePromptEnv flips the default of --include-prompt so the prompt
// review habit can be set once per shell.
const includePromptEnv = "GITSCRIBE_COMMIT_INCLUDE_PROMPT"

var (
	commitNoEdit        bool
	commitAmend         bool
	commitAddMetadata   bool
	commitNoMetadata    bool
	commitIncludePrompt bool
)

var commitCmd = &cobra.Command{
	Use:     "commit",
	GroupID: "git",
	Short:   "Generate a commit message for the staged diff and run git commit",
	Long: `Generates a commit message from the staged diff and hands it to
git commit. Unless --no-edit is given, git opens your editor on the
generated message exactly as if you had typed it with -F.

With --amend the previous message is shown to the model so intent is
preserved while the message is updated for the amended content.`,
	RunE: runCommit,
}

func init() {
	commitCmd.Flags().BoolVar(&commitNoEdit, "no-edit", false, "Commit without opening the editor")
	commitCmd.Flags().BoolVar(&commitAmend, "amend", false, "Amend the last commit, regenerating its message")
	commitCmd.Flags().BoolVar(&commitAddMetadata, "add-metadata", false, "Ask the model for a Generated-by trailer")
	commitCmd.Flags().BoolVar(&commitNoMetadata, "no-metadata", false, "Suppress the Generated-by trailer")
	commitCmd.Flags().BoolVar(&commitIncludePrompt, "include-prompt", os.Getenv(includePromptEnv) == "1",
		"Show the prompt as comment lines in the commit editor")
	addExtendPromptFlag(commitCmd)

	rootCmd.AddCommand(commitCmd)
}

func runCommit(cmd *cobra.Command, args []string) error {
	ctx, cancel := operationContext()
	defer cancel()

	diff, err := app.git.DiffForCommitMessage(ctx, commitAmend, app.diffOptions())
	if err != nil {
		return err
	}

	vars := app.promptVars(ctx)
	templateName := "commit_message"
	if commitAmend {
		previous, err := app.git.LastCommitMessage(ctx)
		if err != nil {
			return err
		}
		vars["previous_message"] = previous
		templateName = "commit_message_amend"
	}

	system, err := app.resolver.Resolve(templateName, vars)
	if err != nil {
		return err
	}
	system = extendSystemPrompt(system, extendPrompt)

	client, err := app.resolveClient()
	if err != nil {
		return err
	}
	defer closeClient(client)

	addMetadata := app.cfg.Commit.AddMetadata
	if commitAddMetadata {
		addMetadata = true
	}
	if commitNoMetadata {
		addMetadata = false
	}
	if addMetadata {
		system += metadataInstruction(client.ModelID())
	}

	executor := llm.NewExecutor(client, app.display, app.logger)
	message, err := executor.Execute(ctx, llm.Request{
		Prompt:       diff,
		SystemPrompt: system,
		Stream:       true,
		Kind:         render.Markdown,
	})
	if err != nil {
		return err
	}

	if commitIncludePrompt && !commitNoEdit {
		message += commentedPromptSection(system)
	}

	messageFile, err := tempFileWithContent("gitscribe-commit-*.txt", message)
	if err != nil {
		return err
	}
	defer os.Remove(messageFile)

	return app.git.RunInteractive(ctx, gitcli.CommitArgs(commitAmend, commitNoEdit, messageFile)...)
}
