// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import (
	"fmt"
	"io"
	"slices"
)

// Buffer is an append-only byte sequence filled in two phases: Prepare
// reserves writable room after the committed bytes and hands it to a
// native call; Commit marks the bytes the call actually wrote.
//
// Prepare may reallocate and invalidates earlier prepared views.
// Committed content is preserved. The zero value is ready to use.
type Buffer struct {
	buf      []byte
	prepared int
}

// Prepare returns a writable view of exactly n bytes following the
// committed bytes. Backing storage grows geometrically, so chunked
// receives copy committed bytes a logarithmic number of times.
func (b *Buffer) Prepare(n int) []byte {
	if n < 0 {
		panic("compio: negative prepare")
	}
	committed := len(b.buf)
	b.buf = slices.Grow(b.buf, n)
	b.prepared = n
	return b.buf[committed : committed+n : committed+n]
}

// Commit appends the first n prepared bytes to the committed sequence.
func (b *Buffer) Commit(n int) {
	if n < 0 || n > b.prepared {
		panic(fmt.Sprintf("compio: commit %d exceeds prepared %d", n, b.prepared))
	}
	b.buf = b.buf[:len(b.buf)+n]
	b.prepared = 0
}

// Bytes returns the committed bytes. The slice is valid until the next
// Prepare.
func (b *Buffer) Bytes() []byte { return b.buf }

// Len returns the number of committed bytes.
func (b *Buffer) Len() int { return len(b.buf) }

// Prepared returns the size of the outstanding prepared region.
func (b *Buffer) Prepared() int { return b.prepared }

// Reset drops the committed bytes, keeping the storage.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.prepared = 0
}

// WriteTo writes the committed bytes to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.buf)
	return int64(n), err
}
