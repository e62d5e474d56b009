package domain

import "errors"

// ErrInvalidResponse marks a remote listing whose body is not a sequence of item objects.
var ErrInvalidResponse = errors.New("invalid response from api")
