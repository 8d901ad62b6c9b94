package render

// Kind selects the highlighter applied to model output.
type Kind string

const (
	// Markdown renders with glamour.
	Markdown Kind = "markdown"
	// Diff highlights unified diffs.
	Diff Kind = "diff"
	// Code guesses the language and highlights accordingly.
	Code Kind = "code"
)
