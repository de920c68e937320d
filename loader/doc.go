// Package loader turns a package path into a wasmpack.Package.
//
// Loading runs a single linear pipeline:
//
//	path ──▶ input normalization ──▶ container bytes ──▶ webc.Parse
//	                                                       │
//	         ┌─────────────────────┬───────────────────────┤
//	         ▼                     ▼                       ▼
//	     metadata              commands               libraries
//	                                                       │
//	                                      volume references, ABI detection
//
// Directories must contain wapm.toml and are packed in memory. Files with
// the .webc extension are read as is. Anything else is unpacked as a
// tar.gz archive and packed.
//
// Library bindings reference interface files as "volume://path". Older
// packers wrote nested paths as a single flat volume entry, so when the
// regular lookup fails the loader retries with the whole path as one
// entry name and logs a warning. WithLegacyPathFallback(false) disables
// the retry.
//
// Every error is an *errors.Error from github.com/wippyai/wasm-pack/errors.
// There is no partial result: Load returns a complete Package or fails on
// the first problem.
package loader
