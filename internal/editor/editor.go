// Package editor opens the user's text editor on generated text so it
// can be revised before a side effect uses it.
package editor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Edit writes content to a temporary file, opens the user's editor on
// it, and returns whatever was saved.
func Edit(ctx context.Context, content string) (string, error) {
	f, err := os.CreateTemp("", "gitscribe-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create edit file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write edit file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write edit file: %w", err)
	}

	// The editor value may carry arguments, e.g. "code --wait".
	parts := strings.Fields(resolveEditor())
	cmd := exec.CommandContext(ctx, parts[0], append(parts[1:], name)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor %s failed: %w", parts[0], err)
	}

	edited, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}
	return string(edited), nil
}

// resolveEditor picks the editor command: VISUAL, then EDITOR, then vi.
func resolveEditor() string {
	if v := os.Getenv("VISUAL"); v != "" {
		return v
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "vi"
}
