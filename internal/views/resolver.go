package views

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindFile resolves a logical view path to a file under dir.
//
// A trailing ".html" is stripped. An empty target, or one ending in "/",
// looks for index.* in that directory; anything else tries target.* and then
// target/index.*. The first regular file found wins. A miss, including a
// target that escapes dir, returns "" and no error.
func FindFile(dir, target string) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("views dir %s: %w", dir, err)
	}

	wantIndex := target == "" || strings.HasSuffix(target, "/")
	base := filepath.Join(root, filepath.FromSlash(target))
	base = strings.TrimSuffix(base, ".html")

	if !within(root, base) {
		return "", nil
	}

	var patterns []string
	if wantIndex {
		patterns = []string{filepath.Join(escapeGlob(base), "index.*")}
	} else {
		patterns = []string{
			escapeGlob(base) + ".*",
			filepath.Join(escapeGlob(base), "index.*"),
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", target, err)
		}
		for _, match := range matches {
			if !within(root, match) {
				continue
			}
			info, err := os.Stat(match)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			return match, nil
		}
	}
	return "", nil
}

// within reports whether path is root or below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}

// IsMarkdown reports whether file is a markdown view.
func IsMarkdown(file string) bool {
	return strings.HasSuffix(file, ".md.tmpl")
}
