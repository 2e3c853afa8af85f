// Package lifecycle holds process-wide timing constants.
package lifecycle

import "time"

// DefaultTimeout bounds graceful shutdown and startup checks.
const DefaultTimeout = 10 * time.Second
