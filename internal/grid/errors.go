package grid

import "errors"

var ErrInvalidGrid = errors.New("invalid grid")
