package core

import (
	"errors"
	"time"
)

// HTTP methods accepted by the registration helpers
const (
	MethodGet     = "GET"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodDelete  = "DELETE"
	MethodPatch   = "PATCH"
	MethodOptions = "OPTIONS"
	MethodHead    = "HEAD"
)

// Defaults
const (
	DefaultHost           = "127.0.0.1"
	DefaultReadBufferSize = 1024
	DefaultWorkerQueue    = 256

	MinAcceptBackoff = 5 * time.Millisecond
	MaxAcceptBackoff = time.Second
)

// Fixed bodies for responses the engine synthesizes itself
const (
	BadRequestBody    = "Bad Request"
	InternalErrorBody = "Internal Server Error"
)

// Error definitions
var (
	ErrServerClosed = errors.New("server closed")
)
