package tui

import (
	"strings"

	"boardnav/internal/model"
	"boardnav/internal/preview"

	"github.com/charmbracelet/lipgloss"
)

// renderPreview draws the composed preview. loading marks the item's children as being fetched.
func renderPreview(p preview.Preview, loading bool, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	pad := lipgloss.NewStyle().PaddingLeft(1)
	inner := width - 2
	if inner < 1 {
		inner = 1
	}

	if p.Empty() {
		return normalizePane(pad.Render(styleMuted().Render("Hover or select something to preview it.")), width, height)
	}

	var lines []string
	title := p.Title()
	if done(p) {
		title = glyphCheck() + " " + title
	}
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Render(title))

	ctx := p.Kind.String()
	switch p.Kind {
	case preview.KindItem:
		if p.Collection != nil {
			ctx += " in " + p.Collection.Name
		}
	case preview.KindSubItem:
		if p.Item != nil {
			ctx += " of " + p.Item.Name
		}
	}
	if p.Source == preview.SourceHover {
		ctx += " · hover"
	}
	lines = append(lines, styleMuted().Render(ctx))

	if meta := previewMeta(p); meta != "" {
		lines = append(lines, meta)
	}
	lines = append(lines, "")

	switch p.Kind {
	case preview.KindCollection:
		lines = append(lines, sectionTitle("Items"))
		if len(p.Items) == 0 {
			lines = append(lines, styleMuted().Render("(none)"))
		}
		for _, it := range p.Items {
			lines = append(lines, childLine(it.Name, it.Completed))
		}
	case preview.KindItem:
		if desc := renderMarkdown(p.Item.Description, inner); desc != "" {
			lines = append(lines, desc, "")
		}
		if link := strings.TrimSpace(p.Item.Link); link != "" {
			lines = append(lines, lipgloss.NewStyle().Foreground(colorAccent).Underline(true).Render(link), "")
		}
		lines = append(lines, sectionTitle("Sub-items"))
		switch {
		case !p.ChildrenKnown && loading:
			lines = append(lines, styleMuted().Render("Loading…"))
		case !p.ChildrenKnown:
			lines = append(lines, styleMuted().Render("Not loaded yet."))
		case len(p.SubItems) == 0:
			lines = append(lines, styleMuted().Render("(none)"))
		}
		for _, s := range p.SubItems {
			lines = append(lines, childLine(s.Name, s.Completed))
		}
	}

	return normalizePane(pad.Render(strings.Join(lines, "\n")), width, height)
}

func done(p preview.Preview) bool {
	switch p.Kind {
	case preview.KindCollection:
		return p.Collection.Completed
	case preview.KindItem:
		return p.Item.Completed
	case preview.KindSubItem:
		return p.SubItem.Completed
	}
	return false
}

func sectionTitle(s string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(colorChromeMutedFg).Render(s)
}

func childLine(name string, completed bool) string {
	if completed {
		return lipgloss.NewStyle().Foreground(colorDoneFg).Render(glyphCheck() + " " + name)
	}
	return glyphIcon("") + " " + name
}

func previewMeta(p preview.Preview) string {
	var (
		prio   model.Priority
		due    *model.DateTime
		labels []model.Label
	)
	switch p.Kind {
	case preview.KindCollection:
		prio, due, labels = p.Collection.Priority, p.Collection.Due, p.Collection.Labels
	case preview.KindItem:
		prio, due, labels = p.Item.Priority, p.Item.Due, p.Item.Labels
	case preview.KindSubItem:
		prio, due, labels = p.SubItem.Priority, p.SubItem.Due, p.SubItem.Labels
		if len(labels) == 0 && p.Item != nil {
			labels = p.Item.Labels
		}
	}

	var parts []string
	if prio != model.PriorityNone {
		parts = append(parts, lipgloss.NewStyle().Foreground(priorityColor(prio.Rank())).Render(string(prio)))
	}
	if due != nil && strings.TrimSpace(due.Date) != "" {
		d := "due " + due.Date
		if due.Time != nil {
			d += " " + *due.Time
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(colorCardMetaFg).Render(d))
	}
	for _, l := range labels {
		st := lipgloss.NewStyle().Foreground(colorCardMetaFg)
		if c := strings.TrimSpace(l.Color); c != "" {
			st = st.Foreground(lipgloss.Color(c))
		}
		parts = append(parts, st.Render(glyphLabelDot()+" "+l.Name))
	}
	return strings.Join(parts, "  ")
}
