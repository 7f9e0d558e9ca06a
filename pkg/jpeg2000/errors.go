package jpeg2000

import "errors"

var (
	// ErrInvalid marks a structurally malformed codestream or a decoded
	// result that violates a dimension/precision bound.
	ErrInvalid = errors.New("jpeg2000: invalid data")
	// ErrUnsupported marks a well-formed but unimplemented feature.
	ErrUnsupported = errors.New("jpeg2000: unsupported feature")
)
