package cli

import (
	"errors"
	"fmt"

	"boardnav/internal/store"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func (e notFoundError) Unwrap() error { return store.ErrNotFound }

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// notFoundAs rewrites a store or API not-found error into the CLI's wording. Other errors pass
// through unchanged.
func notFoundAs(err error, kind, id string) error {
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if id == "" {
		return err
	}
	return errNotFound(kind, id)
}

type unsupportedSourceError struct {
	command string
	source  string
}

func (e unsupportedSourceError) Error() string {
	return fmt.Sprintf("%s: not available with --source %s (needs the local store)", e.command, e.source)
}
