package loader

import (
	"bytes"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-pack/errors"
	"github.com/wippyai/wasm-pack/webc"
)

// resolveVolumeFile reads "volume://relative/path" from the package's volumes.
func (l *Loader) resolveVolumeFile(c *webc.Container, pkgName, ref string) ([]byte, error) {
	volumeName, rel, ok := strings.Cut(ref, "://")
	if !ok {
		return nil, errors.New(errors.PhaseResolve, errors.KindMalformedReference).
			Subject(ref).
			Detail("expected a \"volume://path\" reference").
			Build()
	}

	v, err := c.Volume(pkgName, volumeName)
	if err != nil {
		return nil, errors.New(errors.PhaseResolve, errors.KindMissingVolume).
			Subject(ref).
			Detail("the container has no %q volume", volumeName).
			Cause(err).
			Build()
	}

	data, err := v.GetFile(rel)
	if err == nil {
		return bytes.Clone(data), nil
	}

	if l.opts.legacyFallback {
		if entry, ok := v.Entry(webc.File(rel)); ok {
			l.log.Warn("resolved volume file through a legacy flat entry",
				zap.String("volume", volumeName),
				zap.String("path", rel))
			return bytes.Clone(v.Data[entry.OffsetStart:entry.OffsetEnd]), nil
		}
	}

	return nil, errors.New(errors.PhaseResolve, errors.KindMissingFileInVolume).
		Subject(ref).
		Detail("the %q volume has no %q file", volumeName, rel).
		Cause(err).
		Build()
}

// fileStem returns the base name of p without its extension.
func fileStem(p string) string {
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}
