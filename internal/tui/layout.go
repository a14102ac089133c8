package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to be exactly width columns wide (ANSI-aware) and height lines tall.
// This keeps split-pane rendering stable when using lipgloss.JoinHorizontal.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	lines := strings.Split(s, "\n")

	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}

	for i := range lines {
		lines[i] = fitWidth(lines[i], width)
	}

	return strings.Join(lines, "\n")
}

// fitWidth truncates (with an ellipsis) or pads ln to exactly width cells.
func fitWidth(ln string, width int) string {
	// Bound the StringWidth cost of pathological lines.
	if width > 0 && len(ln) > 8192 {
		ln = xansi.Truncate(ln, width, "…")
	}
	w := xansi.StringWidth(ln)
	if w > width {
		if width <= 0 {
			return ""
		}
		ln = xansi.Truncate(ln, width, "…")
		w = xansi.StringWidth(ln)
	}
	if w < width {
		ln += strings.Repeat(" ", width-w)
	}
	return ln
}

// paneLayout splits the terminal width between up to three navigator columns and the preview.
type paneLayout struct {
	colX     []int // left edge of each column
	colW     int
	gap      int
	previewX int
	previewW int
	bodyTop  int
	bodyH    int
}

const (
	minColumnWidth  = 16
	maxColumnWidth  = 36
	minPreviewWidth = 24
	columnGap       = 1
)

// computeLayout places n columns (always sized for three so widths don't jump when drilling down)
// and gives the remainder to the preview pane. bodyTop is the first row below the header.
func computeLayout(width, height, n, headerH, footerH int) paneLayout {
	if n < 1 {
		n = 1
	}
	l := paneLayout{gap: columnGap, bodyTop: headerH}
	l.bodyH = height - headerH - footerH
	if l.bodyH < 0 {
		l.bodyH = 0
	}

	avail := width - minPreviewWidth - 3*columnGap
	colW := avail / 3
	if colW > maxColumnWidth {
		colW = maxColumnWidth
	}
	if colW < minColumnWidth {
		colW = minColumnWidth
	}
	l.colW = colW

	x := 0
	for i := 0; i < n; i++ {
		l.colX = append(l.colX, x)
		x += colW + columnGap
	}
	l.previewX = x
	l.previewW = width - x
	if l.previewW < 0 {
		l.previewW = 0
	}
	return l
}

// columnAt maps a screen x to a column index.
func (l paneLayout) columnAt(x int) (int, bool) {
	for i, cx := range l.colX {
		if x >= cx && x < cx+l.colW {
			return i, true
		}
	}
	return 0, false
}
