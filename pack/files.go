package pack

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/wippyai/wasm-pack/webc"
)

// Files maps relative paths to content. Directory markers have empty content.
type Files map[webc.DirOrFile][]byte

// AddFile stores a file and a directory marker for each of its parents.
func (f Files) AddFile(p string, content []byte) error {
	clean, err := relPath(p)
	if err != nil {
		return err
	}
	if clean == "" {
		return fmt.Errorf("empty file path %q", p)
	}
	f.addParents(clean)
	f[webc.File(clean)] = content
	return nil
}

// AddDir stores a directory marker and markers for its parents.
func (f Files) AddDir(p string) error {
	clean, err := relPath(p)
	if err != nil {
		return err
	}
	if clean == "" {
		return nil
	}
	f.addParents(clean)
	f[webc.Dir(clean)] = nil
	return nil
}

func (f Files) addParents(clean string) {
	for dir := path.Dir(clean); dir != "."; dir = path.Dir(dir) {
		f[webc.Dir(dir)] = nil
	}
}

// Get returns a file's content.
func (f Files) Get(p string) ([]byte, bool) {
	content, ok := f[webc.File(cleanRel(p))]
	return content, ok
}

// Paths returns all file paths, sorted.
func (f Files) Paths() []string {
	var out []string
	for k := range f {
		if !k.Dir {
			out = append(out, k.Path)
		}
	}
	sort.Strings(out)
	return out
}

// Dirs returns all directory marker paths, sorted.
func (f Files) Dirs() []string {
	var out []string
	for k := range f {
		if k.Dir {
			out = append(out, k.Path)
		}
	}
	sort.Strings(out)
	return out
}

// relPath cleans a path and rejects anything escaping the root.
func relPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if path.IsAbs(p) {
		return "", fmt.Errorf("absolute path %q", p)
	}
	clean := cleanRel(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path %q escapes the package root", p)
	}
	return clean, nil
}
