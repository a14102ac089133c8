package tui

import (
	"os"
	"strings"
	"sync"

	"boardnav/internal/nav"
)

// Terminals can't change the user's font, so the navigator picks between Unicode and ASCII
// glyph sets for its affordances (icons, check marks, action badges).

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

// applyGlyphPreference picks the glyph set from config, then BOARDNAV_TUI_GLYPHS. Unknown values
// keep the current set.
func applyGlyphPreference(pref string) {
	for _, v := range []string{pref, os.Getenv("BOARDNAV_TUI_GLYPHS")} {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "unicode", "utf8":
			setGlyphs(glyphSetUnicode)
			return
		case "ascii":
			setGlyphs(glyphSetASCII)
			return
		}
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

func glyphIcon(icon nav.Icon) string {
	ascii := glyphs() == glyphSetASCII
	switch icon {
	case nav.IconCollection:
		if ascii {
			return "#"
		}
		return "▤"
	case nav.IconItem:
		if ascii {
			return "-"
		}
		return "•"
	default:
		if ascii {
			return "."
		}
		return "◦"
	}
}

func glyphCheck() string {
	if glyphs() == glyphSetASCII {
		return "x"
	}
	return "✓"
}

func glyphTwisty(open bool) string {
	switch {
	case glyphs() == glyphSetASCII && open:
		return ">"
	case glyphs() == glyphSetASCII:
		return " "
	case open:
		return "▸"
	}
	return " "
}

func glyphLabelDot() string {
	if glyphs() == glyphSetASCII {
		return "o"
	}
	return "●"
}

// glyphAction is the clickable badge for a per-item action.
func glyphAction(a nav.Action) string {
	ascii := glyphs() == glyphSetASCII
	switch a {
	case nav.ActionToggleComplete:
		if ascii {
			return "[x]"
		}
		return "✓"
	case nav.ActionEdit:
		if ascii {
			return "[e]"
		}
		return "✎"
	case nav.ActionDelete:
		if ascii {
			return "[d]"
		}
		return "✗"
	}
	return "?"
}

func glyphHRule() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "─"
}
