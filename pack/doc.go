// Package pack turns a package source tree into WEBC container bytes.
//
// The source tree is described by a wapm.toml descriptor:
//
//	[package]
//	name = "wasmer/calculator"
//	version = "0.1.0"
//
//	[[module]]
//	name = "calculator"
//	source = "calculator.wasm"
//	abi = "none"
//	bindings = { wai-version = "0.2.0", exports = "calculator.wai" }
//
//	[[command]]
//	name = "calc"
//	module = "calculator"
//
// Pack works on an in-memory Files map, so the same code serves source
// directories and unpacked tar.gz archives:
//
//	files, err := pack.UnpackArchive(tarball)
//	if err != nil {
//	    return err
//	}
//	data, err := pack.Pack(files, "", nil)
//
// TransformHooks adjust the output. FlatVolumePaths reproduces the volume
// layout of older packers, which stored nested files as single root-level
// entries with separators in their names.
package pack
