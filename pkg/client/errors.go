package client

import "errors"

var (
	// ErrDaemonNotRunning is returned when no battind is serving on the socket
	ErrDaemonNotRunning = errors.New("battind not running")

	// ErrPermissionDenied is returned when the socket cannot be opened by the current user
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when 404 is returned from the status API
	ErrNotFound = errors.New("404 not found")

	// ErrNoStatusYet is returned before the first poll has completed
	ErrNoStatusYet = errors.New("no battery status yet")
)
