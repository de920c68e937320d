// Package wai parses WAI interface definitions.
//
// WAI is the interface language used by library bindings in WEBC
// packages. It predates the component model's WIT packages and describes
// a single interface per file:
//
//	iface, err := wai.Parse("calculator", `
//		/// A point on a plane.
//		record point { x: float32, y: float32 }
//
//		distance: func(a: point, b: point) -> float32
//	`)
//
// Supported syntax:
//   - Types: record, variant, enum, flags, union, type aliases
//   - Resources with methods and static functions
//   - Functions with named params and single or named results
//   - Generic types: list, option, expected/result, tuple, handle/own/borrow
//   - use { a, b } from other and use * from other
//   - Comments: line (//), block (/* */, nested) and doc (///, //!)
//   - %-escaped identifiers for names that collide with keywords
//
// Types are represented with the go.bytecodealliance.org/wit type model.
// Named references may appear before their definition; a reference that
// is never defined is an error. Errors carry the source line.
package wai
