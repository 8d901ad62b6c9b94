package prompt

// Kind describes one prompt template the tool ships a default for.
type Kind struct {
	Name        string
	Description string
}

// Kinds lists the built-in prompt templates in alphabetical order.
func Kinds() []Kind {
	return []Kind{
		{Name: "apply_patch_base", Description: "shared preamble for patch-generating prompts"},
		{Name: "apply_patch_custom_instructions", Description: "patch following caller instructions"},
		{Name: "apply_patch_minimal", Description: "minimal cleanup patch for staging"},
		{Name: "branch_name", Description: "branch name from a commit range"},
		{Name: "commit_message", Description: "commit message from the staged diff"},
		{Name: "commit_message_amend", Description: "amended commit message with previous text"},
		{Name: "describe_staged", Description: "analysis of staged changes with split suggestions"},
		{Name: "pr_description", Description: "pull request title and body from a commit log"},
		{Name: "split_diff", Description: "instructions to split a diff into multiple commits"},
	}
}
