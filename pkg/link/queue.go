package link

import (
	"io"
	"sync"
)

// byteQueue is an unbounded thread-safe byte FIFO. It backs both directions
// of the mock's in-memory link.
type byteQueue struct {
	mu  sync.Mutex
	buf []byte
}

func (q *byteQueue) Write(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = append(q.buf, p...)
	return len(p), nil
}

func (q *byteQueue) Buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

func (q *byteQueue) ReadByte() (byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return 0, io.EOF
	}
	b := q.buf[0]
	q.buf = q.buf[1:]
	return b, nil
}

// Drain removes and returns everything queued.
func (q *byteQueue) Drain() []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.buf
	q.buf = nil
	return out
}

// deviceLink is the controller-facing end of the pipe: it reads host
// commands and writes outbound frames.
type deviceLink struct {
	in  *byteQueue // host to device
	out *byteQueue // device to host
}

func (l *deviceLink) Buffered() int              { return l.in.Buffered() }
func (l *deviceLink) ReadByte() (byte, error)    { return l.in.ReadByte() }
func (l *deviceLink) Write(p []byte) (int, error) { return l.out.Write(p) }
