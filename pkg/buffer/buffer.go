// Package buffer provides the growable accumulator that collects raw responses.
package buffer

import (
	"bytes"
	"io"
	"sync"

	"github.com/WhileEndless/go-rawfetch/pkg/constants"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
)

// Buffer appends bytes with amortized doubling growth up to a hard limit.
type Buffer struct {
	buf    bytes.Buffer
	limit  int64
	mu     sync.Mutex // Protects Close() and other operations
	closed bool
}

// New creates a new Buffer that refuses to grow past limit bytes.
func New(limit int64) *Buffer {
	if limit <= 0 {
		limit = constants.MaxResponseSize
	}
	return &Buffer{limit: limit}
}

// Write appends p. It fails with an overflow error once the limit would be
// exceeded and with an out-of-memory error if growing the storage panics.
func (b *Buffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, errors.NewBufferError("write", io.ErrClosedPipe)
	}

	if int64(b.buf.Len())+int64(len(p)) > b.limit {
		return 0, errors.NewOverflowError(b.limit)
	}

	defer func() {
		if r := recover(); r != nil {
			if r != bytes.ErrTooLarge {
				panic(r)
			}
			n, err = 0, errors.NewOutOfMemoryError("buffer growth", bytes.ErrTooLarge)
		}
	}()

	return b.buf.Write(p)
}

// Bytes returns the accumulated data. The slice aliases the buffer until the
// next Write.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}

// Size returns the total number of bytes written.
func (b *Buffer) Size() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(b.buf.Len())
}

// Close releases the storage. Safe for concurrent calls and idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.buf = bytes.Buffer{}
	return nil
}

