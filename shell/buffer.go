package shell

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// maxStreamBytes bounds a single stream's retained output; oldest chunks
// are evicted once the total exceeds this.
const maxStreamBytes = 10 * 1024 * 1024

// outputBuffer is an append-only deque of decoded output chunks with O(1)
// append and bounded total size, mirroring the source's chunk-deque
// buffering (join-on-read rather than repeated string concatenation).
type outputBuffer struct {
	mu         sync.Mutex
	chunks     []string
	size       int
	readOffset int // bytes already delivered via readNew
	isTrunc    bool
}

func newOutputBuffer() *outputBuffer {
	return &outputBuffer{}
}

// drain reads r line-by-line until EOF, appending each line (with its
// trailing newline) to the buffer. Runs on its own goroutine for the
// shell's lifetime.
func (b *outputBuffer) drain(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		b.append(scanner.Text() + "\n")
	}
}

func (b *outputBuffer) append(data string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chunks = append(b.chunks, data)
	b.size += len(data)

	for b.size > maxStreamBytes && len(b.chunks) > 0 {
		removed := b.chunks[0]
		b.chunks = b.chunks[1:]
		b.size -= len(removed)
		b.isTrunc = true
		// The read offset tracked against the evicted prefix must shrink
		// by the same amount, or it would point past the retained suffix.
		if b.readOffset >= len(removed) {
			b.readOffset -= len(removed)
		} else {
			b.readOffset = 0
		}
	}
}

func (b *outputBuffer) joinedLocked() string {
	return strings.Join(b.chunks, "")
}

// readNew returns the suffix produced since the last readNew call and
// advances the read offset.
func (b *outputBuffer) readNew() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	full := b.joinedLocked()
	if b.readOffset >= len(full) {
		return ""
	}
	out := full[b.readOffset:]
	b.readOffset = len(full)
	return out
}

// readAll returns everything currently retained, without advancing the
// read offset.
func (b *outputBuffer) readAll() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.joinedLocked()
}

func (b *outputBuffer) truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isTrunc
}
