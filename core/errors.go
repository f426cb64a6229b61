package core

import "github.com/pkg/errors"

// ErrNotFound is returned when a requested upload does not exist under the upload root.
var ErrNotFound = errors.New("not found")
