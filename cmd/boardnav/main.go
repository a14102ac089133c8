package main

import (
	"os"
	"strings"

	"boardnav/internal/cli"
)

// isLocation reports whether s looks like an encoded navigator location: a bare query
// ("list=..."), a query with a leading "?", or a pasted URL carrying one.
func isLocation(s string) bool {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.TrimPrefix(s, "?"), "list=") {
		return true
	}
	return strings.Contains(s, "://") && (strings.Contains(s, "?list=") || strings.Contains(s, "&list="))
}

func rewriteLocationArgs(argv []string) []string {
	// Convenience: `boardnav 'list=..&task=..'` works like `boardnav --at 'list=..&task=..'`.
	//
	// Cobra treats the first non-flag token as a subcommand, so we rewrite argv before parsing.
	// Persistent flags may come first (e.g. `boardnav --data-dir ... <location>`), so we look for
	// the first positional token, not just argv[1].
	if len(argv) < 2 {
		return argv
	}

	// Minimal flag awareness. Unknown flags are skipped without consuming a value so the
	// location is never swallowed.
	valueFlags := map[string]bool{
		"--config":    true,
		"--data-dir":  true,
		"--log-level": true,
		"--log-file":  true,
		"--source":    true,
		"--remote":    true,
		"--format":    true,
		"--board":     true,
		"--at":        true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	rewrite := func(at, skip int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:at]...)
		out = append(out, "--at")
		out = append(out, argv[skip:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			// Stop flag parsing; the next token (if any) is the first positional.
			if i+1 < len(argv) && isLocation(argv[i+1]) {
				return rewrite(i, i+1)
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++ // skip value if present
			}
			continue
		}

		// First positional token.
		if isLocation(a) {
			return rewrite(i, i)
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteLocationArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
