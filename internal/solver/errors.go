package solver

import "errors"

// ErrParameterBounds indicates a configuration value outside its valid range.
var ErrParameterBounds = errors.New("solver: parameter out of valid bounds")
