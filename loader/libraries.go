package loader

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	wasmpack "github.com/wippyai/wasm-pack"
	"github.com/wippyai/wasm-pack/errors"
	"github.com/wippyai/wasm-pack/wai"
	"github.com/wippyai/wasm-pack/webc"
)

// extractLibraries returns one library per manifest binding, in manifest order.
func (l *Loader) extractLibraries(c *webc.Container, pkgName string) ([]wasmpack.Library, error) {
	bindings := c.Manifest().Bindings
	libraries := make([]wasmpack.Library, 0, len(bindings))
	seen := make(map[string]bool, len(bindings))

	for i := range bindings {
		b := &bindings[i]

		decoded, err := b.Bindings()
		if err != nil {
			return nil, errors.New(errors.PhaseExtract, errors.KindInvalidBindingMetadata).
				Subject(b.Name).
				Detail("unable to read the %q binding metadata", b.Kind).
				Cause(err).
				Build()
		}

		exportsRef, ok := decoded.Exports()
		if !ok {
			return nil, errors.New(errors.PhaseExtract, errors.KindMissingExports).
				Subject(b.Name).
				Detail("the %q binding doesn't declare an exports interface", b.Kind).
				Build()
		}
		exports, err := l.loadInterface(c, pkgName, exportsRef)
		if err != nil {
			return nil, err
		}

		var importRefs []string
		if w, ok := decoded.(*webc.WaiBindings); ok {
			importRefs = w.Imports
		}
		imports := make([]*wai.Interface, 0, len(importRefs))
		for _, ref := range importRefs {
			iface, err := l.loadInterface(c, pkgName, ref)
			if err != nil {
				return nil, err
			}
			imports = append(imports, iface)
		}

		moduleRef := decoded.Module()
		if seen[moduleRef] {
			return nil, errors.Duplicate(errors.PhaseExtract, "module", moduleRef)
		}
		seen[moduleRef] = true

		module, err := l.loadModule(c, pkgName, moduleRef)
		if err != nil {
			return nil, err
		}

		libraries = append(libraries, wasmpack.Library{
			Module:  module,
			Exports: exports,
			Imports: imports,
		})
	}

	return libraries, nil
}

func (l *Loader) loadInterface(c *webc.Container, pkgName, ref string) (*wai.Interface, error) {
	data, err := l.resolveVolumeFile(c, pkgName, ref)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, errors.New(errors.PhaseParse, errors.KindNonUTF8Interface).
			Subject(ref).
			Detail("interface file is not valid UTF-8").
			Build()
	}

	_, rel, _ := strings.Cut(ref, "://")
	iface, err := l.opts.parseInterface(fileStem(rel), string(data))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInterfaceParse,
			ref, err, "unable to parse the interface")
	}
	return iface, nil
}

func (l *Loader) loadModule(c *webc.Container, pkgName, moduleRef string) (wasmpack.Module, error) {
	atomPath := strings.TrimPrefix(moduleRef, webc.AtomsScheme)

	name := fileStem(atomPath)
	if name == "" {
		return wasmpack.Module{}, errors.New(errors.PhaseExtract, errors.KindUndeterminableModuleName).
			Subject(moduleRef).
			Detail("unable to derive a module name from %q", atomPath).
			Build()
	}

	wasm, err := c.Atom(pkgName, atomPath)
	if err != nil {
		return wasmpack.Module{}, errors.NotFound(errors.PhaseExtract, errors.KindMissingModuleAtom, "atom", atomPath, err)
	}

	kind := l.opts.classifier.Classify(wasm)
	l.log.Debug("module classified",
		zap.String("module", name),
		zap.Stringer("abi", kind))

	return wasmpack.Module{
		Name: name,
		Abi:  kind,
		Wasm: bytes.Clone(wasm),
	}, nil
}
