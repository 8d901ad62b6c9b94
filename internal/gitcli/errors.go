package gitcli

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// BackendError indicates a git (or gh) command exited non-zero. It carries
// the full argv and both captured output streams so callers can diagnose
// the failure without re-running the command.
type BackendError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Error renders the failure as a single JSON line. Multi-line stderr stays
// inside one diagnostic string that way.
func (e *BackendError) Error() string {
	detail, err := json.Marshal(struct {
		Cmd        []string `json:"cmd"`
		ReturnCode int      `json:"returncode"`
		Stdout     string   `json:"stdout"`
		Stderr     string   `json:"stderr"`
	}{e.Args, e.ExitCode, e.Stdout, e.Stderr})
	if err != nil {
		return fmt.Sprintf("command %v exited with code %d", e.Args, e.ExitCode)
	}
	return string(detail)
}
