package infrastructure

import (
	"bytes"
	"sync"
)

// fmtBuffer is a bytes.Buffer safe for concurrent writers
type fmtBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *fmtBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *fmtBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
