package loader

import (
	"strings"

	wasmpack "github.com/wippyai/wasm-pack"
	"github.com/wippyai/wasm-pack/errors"
)

// extractMetadata splits a fully-qualified "name@version" identifier.
func extractMetadata(fqName string) (wasmpack.Metadata, error) {
	name, version, ok := strings.Cut(fqName, "@")
	if !ok {
		return wasmpack.Metadata{}, errors.Internal(errors.PhaseMetadata, fqName,
			"fully-qualified package name has no '@'")
	}
	if version == "" {
		return wasmpack.Metadata{}, errors.Internal(errors.PhaseMetadata, fqName,
			"fully-qualified package name has an empty version")
	}

	pkgName, err := wasmpack.ParsePackageName(name)
	if err != nil {
		return wasmpack.Metadata{}, errors.Wrap(errors.PhaseMetadata, errors.KindInvalidPackageName,
			name, err, "unable to parse the package name")
	}

	return wasmpack.Metadata{Name: pkgName, Version: version}, nil
}
