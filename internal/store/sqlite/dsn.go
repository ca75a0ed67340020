package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const Scheme = "sqlite://"

// IsDSN reports whether dsn selects this backend.
func IsDSN(dsn string) bool {
	return strings.HasPrefix(dsn, Scheme)
}

// parseDSN turns sqlite://path[?query] into the path the driver opens.
// Relative paths are taken from the working directory.
func parseDSN(dsn string) (string, error) {
	rest, ok := strings.CutPrefix(dsn, Scheme)
	if !ok {
		return "", fmt.Errorf("invalid sqlite DSN scheme, expected %s", Scheme)
	}
	if rest == "" {
		return "", fmt.Errorf("sqlite DSN has no database path")
	}
	if rest == ":memory:" {
		return rest, nil
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	path, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") && !strings.HasPrefix(path, "../") {
		path = "./" + path
	}
	if hasQuery {
		return path + "?" + query, nil
	}
	return path, nil
}
