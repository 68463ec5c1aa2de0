package repository

import "ride-engine/internal/apperr"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = apperr.New(apperr.NotFound, "entity not found")
