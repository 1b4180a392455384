package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindProjects returns the files under root whose extension matches one of
// extensions, case-insensitively, sorted by path. Extensions may be given
// with or without the leading dot.
func FindProjects(root string, extensions []string, opts WalkOptions) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanning %s: not a directory", root)
	}

	wanted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		wanted[ext] = true
	}

	var projects []string
	err = Walk(root, opts, func(path string, info os.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		if wanted[strings.ToLower(filepath.Ext(path))] {
			projects = append(projects, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Strings(projects)
	return projects, nil
}
