package repository

import "errors"

// ErrNotFound is returned when a lookup finds no matching row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint would be violated,
// e.g. a duplicate (developerId, externalId) agent or a repeated vouch edge.
var ErrConflict = errors.New("conflict")
