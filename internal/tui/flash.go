package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeError
)

// Notifier shows short user-visible feedback (action results, fetch failures).
type Notifier interface {
	Notify(kind noticeKind, text string) tea.Cmd
}

const flashDuration = 4 * time.Second

type flashExpiredMsg struct{ seq int }

// flash is the one-line notice above the help bar. A newer notice replaces the current one and
// outlives the older notice's expiry.
type flash struct {
	kind noticeKind
	text string
	seq  int
}

func (f *flash) Notify(kind noticeKind, text string) tea.Cmd {
	f.seq++
	f.kind, f.text = kind, text
	seq := f.seq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashExpiredMsg{seq: seq} })
}

func (f *flash) expire(msg flashExpiredMsg) {
	if msg.seq == f.seq {
		f.text = ""
	}
}

func (f *flash) view(width int) string {
	if f.text == "" || width <= 0 {
		return ""
	}
	bg := colorFlashInfoBg
	if f.kind == noticeError {
		bg = colorFlashErrorBg
	}
	return lipgloss.NewStyle().Foreground(colorAccentFg).Background(bg).Render(fitWidth(" "+f.text, width))
}
