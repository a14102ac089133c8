// Package publish renders a board as a set of markdown pages: one index per board and one page
// per item with its sub-items as a checklist.
package publish

import (
	"bytes"
	"fmt"
	"strings"

	"boardnav/internal/model"
)

type RenderOptions struct {
	// IncludeCompleted keeps completed collections, items and sub-items in the output.
	IncludeCompleted bool
}

// RenderItemMarkdown renders one item page. The item's SubItems must be embedded; a nil list is
// rendered as "not loaded".
func RenderItemMarkdown(col model.Collection, item model.Item, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + checkbox(item.Completed) + strings.TrimSpace(item.Name))
	writeLn("")

	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + item.ID)
	writeLn("- Collection: " + strings.TrimSpace(col.Name) + " (" + col.ID + ")")
	if item.Priority != model.PriorityNone {
		writeLn("- Priority: " + string(item.Priority))
	}
	if due := formatDateTime(item.Due); due != "" {
		writeLn("- Due: " + due)
	}
	if labels := labelNames(item.Labels); labels != "" {
		writeLn("- Labels: " + labels)
	}
	if link := strings.TrimSpace(item.Link); link != "" {
		writeLn("- Link: <" + link + ">")
	}

	if desc := strings.TrimSpace(item.Description); desc != "" {
		writeLn("")
		writeLn("## Description")
		writeLn("")
		writeLn(desc)
	}

	writeLn("")
	writeLn("## Sub-items")
	writeLn("")
	switch {
	case item.SubItems == nil:
		writeLn("_Not loaded._")
	case len(visibleSubItems(item.SubItems, opt)) == 0:
		writeLn("_None._")
	default:
		for _, s := range visibleSubItems(item.SubItems, opt) {
			line := "- [" + mark(s.Completed) + "] " + strings.TrimSpace(s.Name)
			if due := formatDateTime(s.Due); due != "" {
				line += " (due " + due + ")"
			}
			writeLn(line)
		}
	}

	return buf.String()
}

// RenderBoardIndexMarkdown renders the board overview with links to the item pages.
func RenderBoardIndexMarkdown(b *model.Board, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(b.Name) + " (" + b.ID + ")")

	for _, col := range b.Collections {
		if col.Completed && !opt.IncludeCompleted {
			continue
		}
		writeLn("")
		writeLn("## " + checkbox(col.Completed) + strings.TrimSpace(col.Name))
		writeLn("")
		n := 0
		for _, it := range col.Items {
			if it.Completed && !opt.IncludeCompleted {
				continue
			}
			n++
			fmt.Fprintf(&buf, "- [%s] [%s](items/%s.md)%s\n", mark(it.Completed), strings.TrimSpace(it.Name), it.ID, progress(it))
		}
		if n == 0 {
			writeLn("_No items._")
		}
	}

	return buf.String()
}

func visibleSubItems(list []model.SubItem, opt RenderOptions) []model.SubItem {
	if opt.IncludeCompleted {
		return list
	}
	out := make([]model.SubItem, 0, len(list))
	for _, s := range list {
		if !s.Completed {
			out = append(out, s)
		}
	}
	return out
}

// progress is " (done/total)" for items with embedded sub-items.
func progress(it model.Item) string {
	if len(it.SubItems) == 0 {
		return ""
	}
	done := 0
	for _, s := range it.SubItems {
		if s.Completed {
			done++
		}
	}
	return fmt.Sprintf(" (%d/%d)", done, len(it.SubItems))
}

func mark(done bool) string {
	if done {
		return "x"
	}
	return " "
}

func checkbox(done bool) string {
	if done {
		return "✓ "
	}
	return ""
}

func labelNames(labels []model.Label) string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		if n := strings.TrimSpace(l.Name); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

func formatDateTime(dt *model.DateTime) string {
	if dt == nil {
		return ""
	}
	date := strings.TrimSpace(dt.Date)
	if date == "" {
		return ""
	}
	if dt.Time == nil || strings.TrimSpace(*dt.Time) == "" {
		return date
	}
	return date + " " + strings.TrimSpace(*dt.Time)
}
