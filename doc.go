// Package wasmpack describes WebAssembly packages loaded from WEBC containers.
//
// A package bundles executable WebAssembly modules, human-readable interface
// definitions and a manifest. This module reads such packages from a packed
// container, a tar.gz archive or a source directory and produces a
// normalized Package value for downstream tooling such as code generators.
//
// # Architecture Overview
//
//	wasmpack/            Root package with the Package data model
//	├── loader/          Load pipeline: input normalization, extraction, resolution
//	├── webc/            WEBC container reader and writer
//	├── pack/            wapm.toml descriptor, directory and archive packing
//	├── wai/             WAI/WIT interface definition parser
//	├── abi/             Runtime ABI classification of modules
//	├── runner/          WASI command execution with wazero
//	├── errors/          Structured error types
//	└── cmd/webc/        Command line tool
//
// # Quick Start
//
//	pkg, err := loader.Load(ctx, "./python-3.12.0.webc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(pkg.Metadata.Name, pkg.Metadata.Version)
//	for _, cmd := range pkg.Commands {
//	    fmt.Println(cmd.Name, len(cmd.Wasm))
//	}
//	for _, lib := range pkg.Libraries {
//	    fmt.Println(lib.Module.Name, lib.Module.Abi, lib.Exports.Name)
//	}
//
// # Inputs
//
// The loader accepts three kinds of path:
//
//   - a directory containing wapm.toml, packed in memory first
//   - a file ending in .webc, read verbatim
//   - anything else, treated as a tar.gz archive and packed
//
// # Errors
//
// Every failure is an *errors.Error carrying a phase, a kind and the
// offending subject:
//
//	if errors.Is(err, errors.KindMissingVolume) {
//	    // the binding points at a volume the container doesn't have
//	}
//
// # Ownership
//
// A Package owns all of its byte slices. It stays valid after the
// container it was loaded from is discarded.
package wasmpack
