package pack

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// MaxArchiveFileSize bounds a single file extracted from an archive.
const MaxArchiveFileSize = 1 << 30

// UnpackArchive reads a tar.gz archive into a Files map. Directory markers
// are added for every directory, explicit or implied. Absolute paths and
// paths escaping the root are rejected.
func UnpackArchive(data []byte) (Files, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	files := Files{}
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar header: %w", err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := files.AddDir(hdr.Name); err != nil {
				return nil, err
			}

		case tar.TypeReg:
			if hdr.Size > MaxArchiveFileSize {
				return nil, fmt.Errorf("%s: %d bytes exceeds the %d byte limit", hdr.Name, hdr.Size, MaxArchiveFileSize)
			}
			content, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", hdr.Name, err)
			}
			if err := files.AddFile(hdr.Name, content); err != nil {
				return nil, err
			}

		default:
			Logger().Debug("skipping archive entry",
				zap.String("name", hdr.Name),
				zap.Uint8("type", hdr.Typeflag))
		}
	}

	return files, nil
}
