package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-pack/errors"
	"github.com/wippyai/wasm-pack/pack"
	"github.com/wippyai/wasm-pack/webc"
)

// readInput turns a directory, container file or archive into container bytes.
func (l *Loader) readInput(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}

	switch {
	case info.IsDir():
		return l.packDir(path)

	case filepath.Ext(path) == webc.Extension:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.IO(path, err)
		}
		return data, nil

	default:
		return l.packArchive(path)
	}
}

func (l *Loader) packDir(dir string) ([]byte, error) {
	descriptor := filepath.Join(dir, pack.DescriptorFile)
	if info, err := os.Stat(descriptor); err != nil || info.IsDir() {
		return nil, errors.MissingDescriptor(dir, pack.DescriptorFile)
	}

	files, err := readTree(dir)
	if err != nil {
		return nil, err
	}
	l.log.Debug("packing directory",
		zap.String("dir", dir),
		zap.Int("entries", len(files)))

	data, err := l.opts.packer.Pack(files, dir)
	if err != nil {
		return nil, errors.Pack(dir, err)
	}
	return data, nil
}

func (l *Loader) packArchive(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(path, err)
	}
	files, err := l.opts.packer.UnpackArchive(raw)
	if err != nil {
		return nil, errors.Pack(path, err)
	}
	l.log.Debug("packing archive",
		zap.String("path", path),
		zap.Int("entries", len(files)))

	// Archive contents are self-contained, so nothing is read from disk.
	data, err := l.opts.packer.Pack(files, "")
	if err != nil {
		return nil, errors.Pack(path, err)
	}
	return data, nil
}

type pendingDir struct {
	rel string
	// ancestors holds the resolved paths of rel and every directory above it.
	ancestors []string
}

// readTree collects every descendant of root using an explicit worklist.
// Each directory, empty or not, gets a marker. Symlinked directories are
// followed; a link back to one of its own ancestors is an error.
func readTree(root string) (pack.Files, error) {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, errors.IO(root, err)
	}

	files := pack.Files{}
	pending := []pendingDir{{ancestors: []string{realRoot}}}

	for len(pending) > 0 {
		cur := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		full := filepath.Join(root, filepath.FromSlash(cur.rel))
		entries, err := os.ReadDir(full)
		if err != nil {
			return nil, errors.IO(full, err)
		}

		for _, e := range entries {
			child := e.Name()
			if cur.rel != "" {
				child = cur.rel + "/" + child
			}
			childPath := filepath.Join(full, e.Name())

			info, err := os.Stat(childPath)
			if err != nil {
				return nil, errors.IO(childPath, err)
			}
			if info.IsDir() {
				resolved, err := filepath.EvalSymlinks(childPath)
				if err != nil {
					return nil, errors.IO(childPath, err)
				}
				if slices.Contains(cur.ancestors, resolved) {
					return nil, errors.IO(childPath, fmt.Errorf("symlink cycle back to %s", resolved))
				}
				if err := files.AddDir(child); err != nil {
					return nil, errors.IO(childPath, err)
				}
				pending = append(pending, pendingDir{
					rel:       child,
					ancestors: append(slices.Clone(cur.ancestors), resolved),
				})
				continue
			}

			content, err := os.ReadFile(childPath)
			if err != nil {
				return nil, errors.IO(childPath, err)
			}
			if err := files.AddFile(child, content); err != nil {
				return nil, errors.IO(childPath, err)
			}
		}
	}

	return files, nil
}
