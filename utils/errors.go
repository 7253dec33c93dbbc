package utils

import "errors"

// ErrValidation marks a request rejected by the shape validators; the
// accompanying field errors carry the details.
var ErrValidation = errors.New("validation failed")
