package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const navStateFileName = "nav_state.json"

// NavState remembers the last board and the last location per board so the navigator can reopen
// where the user left off.
//
// It is best effort: callers should tolerate missing/invalid data.
type NavState struct {
	Version int `json:"version"`

	LastBoardID string `json:"lastBoardId,omitempty"`

	// Locations maps board id -> encoded location ("list=..&task=..").
	Locations map[string]string `json:"locations,omitempty"`
}

func (st *NavState) Location(boardID string) string {
	if st == nil {
		return ""
	}
	return st.Locations[boardID]
}

func (st *NavState) Remember(boardID, location string) {
	if st.Locations == nil {
		st.Locations = map[string]string{}
	}
	st.LastBoardID = boardID
	if location == "" {
		delete(st.Locations, boardID)
		return
	}
	st.Locations[boardID] = location
}

// LoadNavState reads the nav state file from dir. It does not need an open Store, so remote
// sessions keep their own state too.
func LoadNavState(dir string) (*NavState, error) {
	if strings.TrimSpace(dir) == "" {
		return &NavState{Version: 1}, nil
	}
	b, err := os.ReadFile(filepath.Join(dir, navStateFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &NavState{Version: 1}, nil
		}
		return nil, err
	}
	var st NavState
	if err := json.Unmarshal(b, &st); err != nil {
		// Best-effort; if corrupted, treat as missing.
		return &NavState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func SaveNavState(dir string, st *NavState) error {
	if st == nil || strings.TrimSpace(dir) == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, navStateFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
