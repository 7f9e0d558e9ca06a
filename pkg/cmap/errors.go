package cmap

import "errors"

var (
	// ErrParse marks a malformed token stream that cannot be recovered
	// from locally (spec.md §4.14 asks for leniency on unknown
	// operators, but not on corrupt hex digits).
	ErrParse = errors.New("cmap: parse error")
	// ErrDepth is returned by Parse when usecmap chaining reaches the
	// bounded nesting depth of spec.md §3.4.
	ErrDepth = errors.New("cmap: usecmap nesting too deep")
)
