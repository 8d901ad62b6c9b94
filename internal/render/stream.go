package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/muesli/termenv"
)

// Streamed frames are repainted at most this often.
const streamRefreshInterval = 100 * time.Millisecond

// Stream displays model output as it arrives. Write appends a
// fragment; Close paints the final state. Streams are not safe for
// concurrent use.
type Stream interface {
	Write(fragment string)
	Close()
}

// Stream returns a Stream for the given kind: a live repainting view
// on a terminal, plain passthrough otherwise.
func (t *Terminal) Stream(kind Kind) Stream {
	if !t.tty {
		return &plainStream{out: t.out}
	}
	return &liveStream{
		term:   t,
		kind:   kind,
		output: termenv.NewOutput(t.out),
	}
}

// liveStream re-renders the whole accumulated buffer on every repaint.
// Highlighting partial input is unstable near the tail, so redrawing
// from scratch keeps earlier lines correct once their context is
// complete.
type liveStream struct {
	term      *Terminal
	kind      Kind
	output    *termenv.Output
	buf       strings.Builder
	lastLines int
	lastDraw  time.Time
}

func (s *liveStream) Write(fragment string) {
	s.buf.WriteString(fragment)
	if time.Since(s.lastDraw) < streamRefreshInterval {
		return
	}
	s.draw()
}

func (s *liveStream) Close() {
	s.draw()
}

func (s *liveStream) draw() {
	if s.buf.Len() == 0 {
		return
	}
	frame := s.term.Highlight(s.buf.String(), s.kind)
	frame = strings.TrimRight(frame, "\n")
	lines := strings.Split(frame, "\n")
	// Lines scrolled off the top of the screen cannot be cleared, so
	// tall frames show only their tail.
	if h := s.term.height(); h > 1 && len(lines) > h-1 {
		lines = lines[len(lines)-(h-1):]
	}
	if s.lastLines > 0 {
		s.output.ClearLines(s.lastLines)
	}
	fmt.Fprint(s.output, strings.Join(lines, "\n")+"\n")
	s.lastLines = len(lines)
	s.lastDraw = time.Now()
}

// plainStream forwards fragments untouched for pipes and redirects.
type plainStream struct {
	out          io.Writer
	wrote        bool
	endedNewline bool
}

func (s *plainStream) Write(fragment string) {
	if fragment == "" {
		return
	}
	fmt.Fprint(s.out, fragment)
	s.wrote = true
	s.endedNewline = strings.HasSuffix(fragment, "\n")
}

func (s *plainStream) Close() {
	if s.wrote && !s.endedNewline {
		fmt.Fprintln(s.out)
	}
}
