// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nativetest

import (
	"io"
	"os"
	"sync"

	"code.hybscloud.com/compio"
)

// Unit is one scripted protocol unit of a Queue.
type Unit struct {
	// Tag is the native identity reported with every MoreData.
	Tag uint64
	// Requirements are the sizes reported by successive attempts, one per
	// call, before the unit is delivered.
	Requirements []int
	// Len is the length delivered once the requirements are exhausted.
	Len int
	// Fill is the byte the delivered unit is filled with.
	Fill byte
	// EOF delivers the unit with end of stream instead of plain success.
	EOF bool
}

// Queue is a fake HTTP request queue implementing compio.UnitReceiver
// and compio.BodyReceiver.
type Queue struct {
	native *Native
	Mode   Mode

	mu     sync.Mutex
	unit   Unit
	calls  int
	sizes  []int
	tags   []uint64
	body   [][]byte
	closed bool
}

// NewQueue creates a queue fake completing through n in mode.
func NewQueue(n *Native, mode Mode) *Queue {
	return &Queue{native: n, Mode: mode}
}

// Push scripts the next unit and resets the attempt count.
func (q *Queue) Push(u Unit) {
	q.mu.Lock()
	q.unit = u
	q.calls = 0
	q.mu.Unlock()
}

// PushBody scripts body chunks delivered one per ReceiveBody, followed by
// end of stream.
func (q *Queue) PushBody(chunks ...[]byte) {
	q.mu.Lock()
	q.body = append(q.body, chunks...)
	q.mu.Unlock()
}

// ReceiveUnit implements compio.UnitReceiver.
func (q *Queue) ReceiveUnit(op *compio.Op, tag uint64, p []byte) (int, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0, os.ErrClosed
	}
	q.sizes = append(q.sizes, len(p))
	q.tags = append(q.tags, tag)
	u := q.unit
	i := q.calls
	q.calls++
	mode := q.Mode
	q.mu.Unlock()

	if i < len(u.Requirements) {
		return q.native.Do(op, Outcome{Mode: mode, Err: &compio.MoreDataError{Required: u.Requirements[i], Tag: u.Tag}})
	}
	n := u.Len
	if n > len(p) {
		n = len(p)
	}
	for j := range p[:n] {
		p[j] = u.Fill
	}
	var err error
	if u.EOF {
		err = io.EOF
	}
	return q.native.Do(op, Outcome{Mode: mode, N: n, Err: err})
}

// ReceiveBody implements compio.BodyReceiver.
func (q *Queue) ReceiveBody(op *compio.Op, tag uint64, p []byte) (int, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0, os.ErrClosed
	}
	q.tags = append(q.tags, tag)
	var chunk []byte
	eof := len(q.body) == 0
	if !eof {
		chunk = q.body[0]
		n := copy(p, chunk)
		if n < len(chunk) {
			q.body[0] = chunk[n:]
		} else {
			q.body = q.body[1:]
		}
		chunk = chunk[:n]
	}
	mode := q.Mode
	q.mu.Unlock()

	if eof {
		return q.native.Do(op, Outcome{Mode: mode, Err: io.EOF})
	}
	return q.native.Do(op, Outcome{Mode: mode, N: len(chunk)})
}

// Sizes returns the buffer size passed to every ReceiveUnit.
func (q *Queue) Sizes() []int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]int(nil), q.sizes...)
}

// Tags returns the tag passed to every call.
func (q *Queue) Tags() []uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]uint64(nil), q.tags...)
}

// Close shuts the queue down, cancelling held receives.
func (q *Queue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.native.CancelAll()
	return nil
}
