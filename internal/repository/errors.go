// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without parsing driver
// error strings. Repositories return sql.ErrNoRows for missing targets; a
// tenant-scoped query that filters out a row yields the same error, so a
// cross-tenant probe is indistinguishable from "not found".
package repository

import "errors"

// ErrEmailExists is returned when a user insert collides with the unique
// email index. Handlers translate this into an HTTP 400 with an explicit
// duplicate message.
var ErrEmailExists = errors.New("email already exists")

// ErrUnsupportedInterval is returned when a renewal is requested for a plan
// whose interval cannot be extended (anything but month or year). Handlers
// translate this into an HTTP 400.
var ErrUnsupportedInterval = errors.New("unsupported subscription interval")
