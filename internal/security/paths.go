// Package security guards the paths that commands and the viewer write
// artifacts to.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscapes is returned when a path resolves outside every allowed root.
var ErrPathEscapes = errors.New("path escapes allowed directories")

// canonical resolves symlinks in the longest existing prefix of p so that a
// not-yet-created output file is judged by where it would really land.
func canonical(p string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}
	existing, rest := abs, ""
	for {
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
}

// WithinDirectory reports an error unless path resolves inside dir.
func WithinDirectory(path, dir string) error {
	p, err := canonical(path)
	if err != nil {
		return err
	}
	d, err := canonical(dir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(d, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is outside %s", ErrPathEscapes, path, dir)
	}
	return nil
}

// ValidateOutputPath accepts path when it resolves inside one of roots.
// With no roots the temp directory and the working directory are allowed.
func ValidateOutputPath(path string, roots ...string) error {
	if len(roots) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("working directory: %w", err)
		}
		roots = []string{os.TempDir(), cwd}
	}
	for _, root := range roots {
		if WithinDirectory(path, root) == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s not within %v", ErrPathEscapes, path, roots)
}

// SanitizeFilename maps s onto [A-Za-z0-9._-], collapsing runs of other
// characters into one underscore and trimming to 128 bytes.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	pendingUnderscore := false
	for _, r := range s {
		ok := r == '.' || r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			pendingUnderscore = true
			continue
		}
		if pendingUnderscore && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingUnderscore = false
		if b.Len() >= maxLen {
			break
		}
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
