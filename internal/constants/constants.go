// Package constants provides shared constants used across the codebase.
package constants

import "time"

// Main loop constants
const (
	// LoopQueueSize is the number of tasks that can wait for the main loop
	LoopQueueSize = 64
)

// HTTP host constants
const (
	// MaxUploadSize is the largest accepted capture upload (32 MB)
	MaxUploadSize = 32 << 20

	// ForegroundTimeout bounds how long a foreground request waits for the gate
	ForegroundTimeout = 2 * time.Minute

	// RequestTimeout bounds every other request
	RequestTimeout = 30 * time.Second

	// ShutdownTimeout is the grace period for in-flight requests on shutdown
	ShutdownTimeout = 10 * time.Second
)
