package commands

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Each directory under templates/ is a project scaffold selectable by init.
//
//go:embed all:templates
var scaffolds embed.FS

// dotfiles maps embedded names to the dotfile they are written as.
var dotfiles = map[string]string{
	"gitignore": ".gitignore",
}

// scaffoldFile is one file of a scaffold as written into a project.
type scaffoldFile struct {
	Name    string // slash-separated, relative to the project root
	Section string // config, views or helpers
	Kept    bool   // already present and left untouched
}

// writeScaffold writes the named scaffold into dir and reports every file in
// walk order. Existing files are kept unless force is set.
func writeScaffold(scaffold, dir string, force bool) ([]scaffoldFile, error) {
	root := path.Join("templates", scaffold)
	if _, err := fs.Stat(scaffolds, root); err != nil {
		return nil, fmt.Errorf("unknown scaffold %q", scaffold)
	}
	sub, err := fs.Sub(scaffolds, root)
	if err != nil {
		return nil, err
	}

	var files []scaffoldFile
	err = fs.WalkDir(sub, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		rel := projectName(name)
		f := scaffoldFile{Name: rel, Section: sectionOf(rel)}
		target := filepath.Join(dir, filepath.FromSlash(rel))

		if _, err := os.Stat(target); err == nil && !force {
			f.Kept = true
			files = append(files, f)
			return nil
		}

		content, err := fs.ReadFile(sub, name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
			return err
		}
		if err := os.WriteFile(target, content, 0600); err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func projectName(name string) string {
	dir, base := path.Split(name)
	if dot, ok := dotfiles[base]; ok {
		return dir + dot
	}
	return name
}

func sectionOf(name string) string {
	top, _, nested := strings.Cut(name, "/")
	if nested && (top == "views" || top == "helpers") {
		return top
	}
	return "config"
}
