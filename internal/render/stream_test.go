package render

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitscribe/internal/config"
)

var ansiSequence = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

func stripANSI(s string) string {
	return ansiSequence.ReplaceAllString(s, "")
}

func testTerminal(t *testing.T, tty bool) (*Terminal, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	term := NewTerminalWriter(&out, &bytes.Buffer{}, tty, config.TerminalConfig{
		Theme:         "monokai",
		MarkdownStyle: "notty",
		Width:         80,
	}, nil)
	return term, &out
}

func TestPlainStreamPassthrough(t *testing.T) {
	term, out := testTerminal(t, false)

	s := term.Stream(Diff)
	s.Write("-old line\n")
	s.Write("+new ")
	s.Write("line")
	s.Close()

	assert.Equal(t, "-old line\n+new line\n", out.String())
}

func TestPlainStreamEmpty(t *testing.T) {
	term, out := testTerminal(t, false)

	s := term.Stream(Markdown)
	s.Close()

	assert.Empty(t, out.String())
}

func TestLiveStreamThrottlesAndRepaints(t *testing.T) {
	term, out := testTerminal(t, true)

	s := term.Stream(Diff).(*liveStream)
	s.Write("-old line\n")
	afterFirst := stripANSI(out.String())
	require.Contains(t, afterFirst, "-old line")

	// A fragment inside the refresh interval leaves the screen
	// untouched until Close.
	s.lastDraw = time.Now()
	s.Write("+new line\n")
	assert.NotContains(t, stripANSI(out.String()), "+new line")

	s.Close()
	final := stripANSI(out.String())
	assert.Contains(t, final, "-old line")
	assert.Contains(t, final, "+new line")
	assert.True(t, strings.HasSuffix(final, "\n"))
}

func TestLiveStreamSurvivesMalformedPartialInput(t *testing.T) {
	term, out := testTerminal(t, true)

	s := term.Stream(Markdown).(*liveStream)
	s.Write("```diff\n-a")
	// Force the next write to repaint despite the throttle.
	s.lastDraw = time.Time{}
	s.Write("\n+b\n```\n")
	s.Close()

	assert.Equal(t, "```diff\n-a\n+b\n```\n", s.buf.String())
	assert.Contains(t, stripANSI(out.String()), "+b")
}

func TestResolveTTYColorOverride(t *testing.T) {
	assert.True(t, resolveTTY(false, "always"))
	assert.False(t, resolveTTY(true, "never"))
	assert.True(t, resolveTTY(true, "auto"))
	assert.False(t, resolveTTY(false, ""))
}

func TestLiveStreamRendersMarkdownIncrementally(t *testing.T) {
	term, out := testTerminal(t, true)

	s := term.Stream(Markdown)
	s.Write("# Title\n\nSome *body* text")
	s.Close()

	rendered := stripANSI(out.String())
	assert.Contains(t, rendered, "Title")
	assert.Contains(t, rendered, "body")
}

func TestHighlightPlainWhenNotTTY(t *testing.T) {
	term, _ := testTerminal(t, false)

	text := "# Heading\n\n- item\n"
	assert.Equal(t, text, term.Highlight(text, Markdown))
	assert.Equal(t, "-a\n+b\n", term.Highlight("-a\n+b\n", Diff))
}

func TestHighlightDiffAddsColor(t *testing.T) {
	term, _ := testTerminal(t, true)

	got := term.Highlight("-removed\n+added\n", Diff)
	assert.Contains(t, got, "\x1b[")
	assert.Contains(t, stripANSI(got), "+added")
}

func TestStyledLinesBypassStylingWhenPiped(t *testing.T) {
	term, out := testTerminal(t, false)

	term.Header("Staged changes:")
	term.Notice("Analyzing changes...")

	assert.Equal(t, "Staged changes:\nAnalyzing changes...\n", out.String())
}
