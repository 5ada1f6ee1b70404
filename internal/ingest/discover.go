// Package ingest loads observation tables from CSV files: it owns file
// discovery, parsing, per-cell validation, and the batch loading policy.
// Malformed input is this package's concern; the engine only ever sees
// already-validated tables.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoFiles is returned when discovery matches no input files.
var ErrNoFiles = errors.New("no input files matched")

// globMetaChars are the characters that make a pattern a glob rather than a
// literal path.
const globMetaChars = "*?["

// Discover expands patterns into a sorted, deduplicated list of file paths.
// Each pattern may be a glob or a literal path. A literal path is kept even
// when the file does not exist, so that loading reports the precise open
// error instead of a generic no-match failure. Sorting keeps batch order
// deterministic across shells and platforms.
func Discover(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		if len(matches) == 0 && !strings.ContainsAny(pattern, globMetaChars) {
			matches = []string{pattern}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, strings.Join(patterns, ", "))
	}
	sort.Strings(paths)
	return paths, nil
}
