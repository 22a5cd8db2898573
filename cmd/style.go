package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// sty prints the plain CLI output. Styling is dropped unless w is a
// terminal and NO_COLOR is unset.
type sty struct {
	w     io.Writer
	color bool

	boldStyle    lipgloss.Style
	dimStyle     lipgloss.Style
	accentStyle  lipgloss.Style
	errStyle     lipgloss.Style
	okStyle      lipgloss.Style
	headerStyle  lipgloss.Style
	spinnerStyle lipgloss.Style
}

func newSty(w io.Writer) *sty {
	s := &sty{w: w, color: isColorTerminal(w)}
	r := lipgloss.NewRenderer(w)
	s.boldStyle = r.NewStyle().Bold(true)
	s.dimStyle = r.NewStyle().Faint(true)
	s.accentStyle = r.NewStyle().Foreground(lipgloss.Color("173"))
	s.errStyle = r.NewStyle().Foreground(lipgloss.Color("1"))
	s.okStyle = r.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	s.headerStyle = r.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("173")).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 2).
		MarginLeft(2)
	s.spinnerStyle = s.accentStyle
	return s
}

func isColorTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (s *sty) render(st lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return st.Render(text)
}

func (s *sty) bold(t string) string { return s.render(s.boldStyle, t) }
func (s *sty) dim(t string) string  { return s.render(s.dimStyle, t) }

func (s *sty) header(title string) {
	fmt.Fprintln(s.w)
	if s.color {
		fmt.Fprintln(s.w, s.headerStyle.Render(title))
	} else {
		fmt.Fprintf(s.w, "  %s\n", title)
	}
	fmt.Fprintln(s.w)
}

func (s *sty) section(title string) {
	after := 40 - lipgloss.Width(title)
	if after < 3 {
		after = 3
	}
	fmt.Fprintln(s.w)
	fmt.Fprintf(s.w, "  %s %s %s\n", s.dim("───"), s.bold(title), s.dim(strings.Repeat("─", after)))
	fmt.Fprintln(s.w)
}

func (s *sty) success(text string) {
	fmt.Fprintf(s.w, "  %s %s\n", s.render(s.okStyle, "✓"), text)
}

func (s *sty) info(text string) {
	fmt.Fprintf(s.w, "    %s\n", text)
}

func (s *sty) errMsg(text string) {
	fmt.Fprintf(s.w, "  %s %s\n", s.render(s.errStyle, "✗"), text)
}

// choice prints a numbered menu item with an optional dim note.
func (s *sty) choice(n int, label string, note string) {
	suffix := ""
	if note != "" {
		suffix = " " + s.dim(note)
	}
	fmt.Fprintf(s.w, "    %s %s%s\n", s.render(s.accentStyle, fmt.Sprintf("%d)", n)), label, suffix)
}

func (s *sty) promptLabel(label string) string {
	return fmt.Sprintf("  %s %s", s.render(s.okStyle, "?"), s.bold(label))
}

// spinner animates a waiting line on a terminal and prints the message once
// otherwise.
type spinner struct {
	s    *sty
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

func (s *sty) startSpinner(msg string) *spinner {
	sp := &spinner{s: s, done: make(chan struct{})}
	if !s.color {
		fmt.Fprintf(s.w, "  %s\n", msg)
		return sp
	}
	sp.wg.Add(1)
	go func() {
		defer sp.wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(s.w, "\r  %s %s", s.render(s.spinnerStyle, spinnerFrames[i%len(spinnerFrames)]), msg)
			select {
			case <-sp.done:
				fmt.Fprint(s.w, "\r\033[2K")
				return
			case <-ticker.C:
			}
		}
	}()
	return sp
}

func (sp *spinner) stop() {
	sp.once.Do(func() { close(sp.done) })
	sp.wg.Wait()
}
