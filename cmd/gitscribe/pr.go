package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gitscribe/internal/editor"
	"gitscribe/internal/githost"
	"gitscribe/internal/llm"
	"gitscribe/internal/render"
)

var (
	prUpstream string
	prNoEdit   bool
)

var createPRCmd = &cobra.Command{
	Use:     "create-pr",
	GroupID: "github",
	Short:   "Generate a pull request description and open a draft PR",
	Long: `Generates a pull request title and body from the commits between
the upstream branch and HEAD, opens your editor to revise it, and
creates a draft pull request.

The gh CLI is used when installed; otherwise the GitHub API is called
with GITHUB_TOKEN.`,
	Args: cobra.NoArgs,
	RunE: runCreatePR,
}

func init() {
	createPRCmd.Flags().StringVar(&prUpstream, "upstream", "", "Branch the PR targets (default: origin's default branch)")
	createPRCmd.Flags().BoolVar(&prNoEdit, "no-edit", false, "Use the generated description without opening the editor")
	addExtendPromptFlag(createPRCmd)

	rootCmd.AddCommand(createPRCmd)
}

func runCreatePR(cmd *cobra.Command, args []string) error {
	ctx, cancel := operationContext()
	defer cancel()

	upstream := prUpstream
	if upstream == "" {
		var err error
		upstream, err = app.git.OriginDefaultBranch(ctx)
		if err != nil {
			return err
		}
	}

	base, err := app.git.MergeBase(ctx, "HEAD", upstream)
	if err != nil {
		return err
	}
	log, err := app.git.Log(ctx, base+"..HEAD")
	if err != nil {
		return err
	}

	system, err := app.resolver.Resolve("pr_description", app.promptVars(ctx))
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
	text, err := executor.Execute(ctx, llm.Request{
		Prompt:       log,
		SystemPrompt: system,
		Stream:       true,
		Kind:         render.Markdown,
	})
	if err != nil {
		return err
	}

	if !prNoEdit {
		text, err = editor.Edit(ctx, text)
		if err != nil {
			return err
		}
	}

	title, body := splitTitleBody(text)
	if title == "" {
		return fmt.Errorf("pull request description is empty")
	}

	head, err := app.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	url, err := app.github.CreatePR(ctx, githost.CreatePROptions{
		Title: title,
		Body:  body,
		Draft: true,
		Head:  head,
		Base:  strings.TrimPrefix(upstream, "origin/"),
	})
	if err != nil {
		return err
	}
	if url != "" {
		app.display.Notice("Created pull request: " + url)
	}
	return nil
}
