package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// helpBinding is one key/description pair in the help overlay.
type helpBinding struct {
	key  string
	desc string
}

var helpBindings = []helpBinding{
	{"tab", "cycle focus between tree, search and results"},
	{"enter", "download the selected query / expand a folder"},
	{"space", "expand or collapse a folder"},
	{"/", "focus the search input"},
	{"f", "filter the query tree (fuzzy, esc clears)"},
	{"r", "reload the query tree from the server"},
	{"h", "toggle history download for the next query"},
	{"o", "open the selected work item in the browser"},
	{"y", "copy the selected work item URL"},
	{"?", "toggle this help"},
	{"q / ctrl+c", "quit"},
}

// HelpOverlay renders the keyboard reference centered on screen.
type HelpOverlay struct {
	visible bool
	width   int
	height  int
}

// NewHelpOverlay creates a hidden help overlay.
func NewHelpOverlay() *HelpOverlay {
	return &HelpOverlay{}
}

// Toggle flips visibility.
func (h *HelpOverlay) Toggle() {
	h.visible = !h.visible
}

// Hide hides the overlay.
func (h *HelpOverlay) Hide() {
	h.visible = false
}

// IsVisible reports whether the overlay is showing.
func (h *HelpOverlay) IsVisible() bool {
	return h.visible
}

// SetSize sets the screen dimensions used for centering.
func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// View renders the overlay, or "" when hidden.
func (h *HelpOverlay) View() string {
	if !h.visible {
		return ""
	}

	keyWidth := 0
	for _, b := range helpBindings {
		if len(b.key) > keyWidth {
			keyWidth = len(b.key)
		}
	}

	var b strings.Builder
	b.WriteString(OverlayTitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, binding := range helpBindings {
		b.WriteString(MenuKeyStyle.Render(padRight(binding.key, keyWidth)))
		b.WriteString("  ")
		b.WriteString(MenuDescStyle.Render(binding.desc))
		b.WriteString("\n")
	}

	box := OverlayStyle.Render(b.String())
	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, box)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
