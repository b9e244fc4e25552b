// Package dialog shows blocking messages to the user.
package dialog

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Dialog shows a message and returns once the user has been shown it.
type Dialog interface {
	ShowError(title, message string)
}

var (
	errorColor = lipgloss.Color("#FF5F87")
	mutedColor = lipgloss.Color("#767676")
)

// Terminal renders dialogs as a bordered box on a writer, usually stderr.
type Terminal struct {
	out io.Writer
	mu  sync.Mutex

	box   lipgloss.Style
	title lipgloss.Style
	body  lipgloss.Style
}

// NewTerminal creates a Terminal dialog writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{
		out: out,
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorColor).
			Padding(0, 2),
		title: lipgloss.NewStyle().Bold(true).Foreground(errorColor),
		body:  lipgloss.NewStyle().Foreground(mutedColor),
	}
}

func (t *Terminal) ShowError(title, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	content := lipgloss.JoinVertical(lipgloss.Left,
		t.title.Render("✖ "+title),
		"",
		t.body.Render(message),
	)
	fmt.Fprintln(t.out, t.box.Render(content))
}

// Message is a dialog captured by a Recorder.
type Message struct {
	Title string
	Text  string
}

// Recorder keeps dialogs in memory instead of showing them.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) ShowError(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Title: title, Text: message})
}

// Messages returns the dialogs shown so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Take returns the dialogs shown so far and forgets them.
func (r *Recorder) Take() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages
	r.messages = nil
	return msgs
}
