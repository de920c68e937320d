// Package abi classifies the runtime ABI a WebAssembly module expects.
//
// MarkerClassifier is the default. It looks for the WASI startup marker
// anywhere in the module bytes, which is cheap but can report false
// positives when the marker appears inside a data or custom section.
// ImportClassifier compiles the module with wazero and inspects its
// imported functions instead.
package abi
