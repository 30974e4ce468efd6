package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrListenerFailed       = errors.New("failed to create listener")
)
