package codestream

import "errors"

var (
	// ErrInvalid marks a structurally malformed codestream (bad marker
	// order, out-of-range field, failed Header.Validate).
	ErrInvalid = errors.New("codestream: invalid data")
	// ErrUnsupported marks a well-formed but unimplemented feature,
	// matching spec.md §9's Non-goals (POC and other unhandled markers,
	// code-block style bits beyond the default). RGN (ROI) segments are
	// skipped rather than rejected.
	ErrUnsupported = errors.New("codestream: unsupported feature")
)
