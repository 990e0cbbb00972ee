package gateway

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

var errWriteTimeout = errors.New("write timed out")

// timeoutWriter fails a Write that does not complete within timeout. SSH
// channels have no write deadline, so the write runs in its own goroutine;
// that goroutine ends when the session closes the channel. After the first
// failure every Write fails, so frames never interleave with a stuck one.
type timeoutWriter struct {
	err     error
	mu      sync.Mutex
	timeout time.Duration
	w       io.Writer
}

func newTimeoutWriter(w io.Writer, timeout time.Duration) *timeoutWriter {
	return &timeoutWriter{timeout: timeout, w: w}
}

func (t *timeoutWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return 0, t.err
	}

	type result struct {
		err error
		n   int
	}
	done := make(chan result, 1)
	frame := bytes.Clone(p)
	go func() {
		n, err := t.w.Write(frame)
		done <- result{err: err, n: n}
	}()

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()
	select {
	case r := <-done:
		if r.err != nil {
			t.err = r.err
		}
		return r.n, r.err
	case <-timer.C:
		t.err = errWriteTimeout
		return 0, t.err
	}
}
