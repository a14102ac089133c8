package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"boardnav/internal/model"
)

type WriteOptions struct {
	IncludeCompleted bool
	Overwrite        bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteBoard writes <toDir>/boards/<id>/index.md and one page per item under items/. b should be
// loaded with embedded sub-items.
func WriteBoard(b *model.Board, toDir string, opt WriteOptions) (WriteResult, error) {
	if b == nil {
		return WriteResult{}, errors.New("missing board")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	boardDir := filepath.Join(toDir, "boards", b.ID)
	itemsDir := filepath.Join(boardDir, "items")
	if err := os.MkdirAll(itemsDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	render := RenderOptions{IncludeCompleted: opt.IncludeCompleted}
	indexPath := filepath.Join(boardDir, "index.md")
	if err := writeFile(indexPath, []byte(RenderBoardIndexMarkdown(b, render)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}

	// Item pages (stop on first error).
	written := []string{indexPath}
	for _, col := range b.Collections {
		if col.Completed && !opt.IncludeCompleted {
			continue
		}
		for _, it := range col.Items {
			if it.Completed && !opt.IncludeCompleted {
				continue
			}
			p := filepath.Join(itemsDir, it.ID+".md")
			if err := writeFile(p, []byte(RenderItemMarkdown(col, it, render)), opt.Overwrite); err != nil {
				return WriteResult{}, err
			}
			written = append(written, p)
		}
	}

	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
