package entropy

import "errors"

// ErrInvalid marks a code-block whose declared geometry is degenerate
// (zero width/height). Running out of coded bytes is not an error: the
// arithmetic decoder pads past the end.
var ErrInvalid = errors.New("entropy: invalid code-block data")
