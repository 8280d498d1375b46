// Package abi provides low-level utilities for the foreign record ABI.
//
// This package contains the C string convention (NUL-terminated, owned,
// sized strlen+1), alignment and overflow-safe arithmetic shared by the
// transcoder and ontology packages.
//
// # Contents
//
//   - cstring.go: writing, measuring, reading and freeing C strings
//   - helpers.go: alignment, checked arithmetic and size limits
//   - alloc.go: staged allocations with rollback
//
// This package is internal to the module.
package abi
