package executor

import (
	"io"
	"sync"
)

// copyBufSize matches the original implementation's fixed transfer
// buffer: large enough to amortize syscalls on a pipe or socket without
// growing unbounded on a slow consumer.
const copyBufSize = 32 * 1024

// writeErrorCapture wraps a Writer so a copy loop's write failure can be
// reported with context after the fact, the same pattern the teacher's
// redirect_runner.go uses for sink writes.
type writeErrorCapture struct {
	w   io.Writer
	mu  sync.Mutex
	err error
}

func (c *writeErrorCapture) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if err != nil {
		c.mu.Lock()
		if c.err == nil {
			c.err = err
		}
		c.mu.Unlock()
	}
	return n, err
}

func (c *writeErrorCapture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// copyStream drains src into dst using a fixed-size buffer, the way
// every redirect copy loop in this package moves bytes between a file,
// pipe end, or socket.
func copyStream(dst io.Writer, src io.Reader) error {
	buf := make([]byte, copyBufSize)
	_, err := io.CopyBuffer(dst, src, buf)
	return err
}
