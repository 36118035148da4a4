package repository

import "errors"

// ErrDriverTaken is returned by Commit when another user already holds
// the requested driver. It is the only non-fatal commit outcome; every
// other error is a storage failure.
var ErrDriverTaken = errors.New("driver already taken by another user")
