// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nativetest

import (
	"sync"

	"code.hybscloud.com/compio"
	"code.hybscloud.com/iox"
)

// Request is a fake vendor HTTP request implementing compio.Request.
// Every call goes pending and is completed by Bridge.Notify from one
// vendor goroutine, the way a single process-wide status callback does.
type Request struct {
	b *compio.Bridge

	// Available is returned by successive availability queries; queries
	// past the end report zero.
	Available []int
	// Reads overrides the length reported by successive reads. By default
	// a read fills the whole prepared region.
	Reads []int
	// FailStep, when not Idle, makes the call issued in that step end
	// with a request error carrying FailErr.
	FailStep compio.Step
	FailErr  error

	events chan func()
	stop   chan struct{}
	wg     sync.WaitGroup

	mu        sync.Mutex
	sends     int
	responses int
	queries   int
	reads     int
}

// NewRequest creates a request whose availability queries report
// available, and starts its vendor goroutine.
func NewRequest(b *compio.Bridge, available ...int) *Request {
	r := &Request{
		b:         b,
		Available: available,
		events:    make(chan func(), 16),
		stop:      make(chan struct{}),
	}
	r.wg.Add(1)
	go r.vendor()
	return r
}

func (r *Request) vendor() {
	defer r.wg.Done()
	for {
		select {
		case fn := <-r.events:
			fn()
		case <-r.stop:
			return
		}
	}
}

// Close stops the vendor goroutine.
func (r *Request) Close() {
	close(r.stop)
	r.wg.Wait()
}

func (r *Request) notify(op *compio.Op, st compio.Status, n int) (int, error) {
	id, step := op.ID(), op.Step()
	if r.FailStep != compio.Idle && r.FailStep == step {
		st, n = compio.StatusRequestError, 0
	}
	var err error
	if st == compio.StatusRequestError {
		err = r.FailErr
	}
	r.events <- func() { r.b.Notify(id, st, n, err) }
	return 0, iox.ErrWouldBlock
}

// Send implements compio.Request.
func (r *Request) Send(op *compio.Op) (int, error) {
	r.mu.Lock()
	r.sends++
	r.mu.Unlock()
	return r.notify(op, compio.StatusSendComplete, 0)
}

// ReceiveResponse implements compio.Request.
func (r *Request) ReceiveResponse(op *compio.Op) (int, error) {
	r.mu.Lock()
	r.responses++
	r.mu.Unlock()
	return r.notify(op, compio.StatusHeadersAvailable, 0)
}

// QueryDataAvailable implements compio.Request.
func (r *Request) QueryDataAvailable(op *compio.Op) (int, error) {
	r.mu.Lock()
	n := 0
	if r.queries < len(r.Available) {
		n = r.Available[r.queries]
	}
	r.queries++
	r.mu.Unlock()
	return r.notify(op, compio.StatusDataAvailable, n)
}

// ReadData implements compio.Request.
func (r *Request) ReadData(op *compio.Op, p []byte) (int, error) {
	r.mu.Lock()
	n := len(p)
	if r.reads < len(r.Reads) {
		n = r.Reads[r.reads]
	}
	r.reads++
	r.mu.Unlock()
	for i := range p[:min(n, len(p))] {
		p[i] = 'b'
	}
	return r.notify(op, compio.StatusReadComplete, n)
}

// Counts returns the number of send, receive-response, query and read
// calls made.
func (r *Request) Counts() (sends, responses, queries, reads int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sends, r.responses, r.queries, r.reads
}
