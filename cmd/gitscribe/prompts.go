package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gitscribe/internal/prompt"
	"gitscribe/internal/render"
)

var dumpPromptsCmd = &cobra.Command{
	Use:     "dump-prompts",
	GroupID: "git",
	Short:   "Show every prompt as it would be sent to the model",
	Long: `Resolves each prompt template against the current repository state
and prints the result. Useful for checking what a .gitscribe.yaml
override actually produces.`,
	Args: cobra.NoArgs,
	RunE: runDumpPrompts,
}

func init() {
	rootCmd.AddCommand(dumpPromptsCmd)
}

func runDumpPrompts(cmd *cobra.Command, args []string) error {
	ctx, cancel := operationContext()
	defer cancel()

	vars := app.promptVars(ctx)

	app.display.Header("Available prompts:")
	for _, kind := range prompt.Kinds() {
		resolved, err := app.resolver.Resolve(kind.Name, vars)
		if err != nil {
			app.display.Error(fmt.Sprintf("%s: %v", kind.Name, err))
			continue
		}
		app.display.Print("\n")
		app.display.Accent(kind.Name)
		app.display.Print(kind.Description + "\n\n")
		app.display.Print(app.display.Highlight(resolved, render.Markdown) + "\n")
	}
	return nil
}
