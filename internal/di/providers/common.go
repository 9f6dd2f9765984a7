package providers

import "time"

// shutdownTimeout bounds how long the HTTP server and SSE manager get to drain
// when the container shuts down.
const shutdownTimeout = 30 * time.Second
