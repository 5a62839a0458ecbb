// fs.go holds the filesystem walk used for theme overrides.  The key export
// is CollectHTML, which returns every .html file under a directory.
package theme

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// CollectHTML walks rootDir recursively and returns the *.html paths in
// lexical order, so parse order (and override precedence) is stable.
func CollectHTML(rootDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
