// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
	"github.com/eapache/queue"
)

// Executor is the owning execution context of an operation chain.
// Post schedules fn to run on that context; it may be called from any
// goroutine, including native completion threads. Posted functions run
// one at a time, in order.
type Executor interface {
	Post(fn func()) error
}

// ExecutorFunc adapts a function-based scheduler to Executor.
type ExecutorFunc func(fn func()) error

// Post calls f(fn).
func (f ExecutorFunc) Post(fn func()) error { return f(fn) }

// defaultLoopCapacity is the ring size used when NewLoop is given a
// non-positive capacity.
const defaultLoopCapacity = 256

// Loop is a single-goroutine Executor.
//
// Producers are serialized onto a bounded lock-free SPSC ring. When the
// ring is full, work spills into an unbounded FIFO and the ring is
// refilled by the consumer, so Post never blocks and never reorders.
type Loop struct {
	mu       sync.Mutex
	ring     lfq.SPSC[func()]
	overflow *queue.Queue

	wake    chan struct{}
	done    chan struct{}
	closed  atomix.Uint32
	running atomix.Uint32
}

// NewLoop creates a Loop whose ring holds capacity entries, rounded up
// to a power of two.
func NewLoop(capacity int) *Loop {
	if capacity <= 0 {
		capacity = defaultLoopCapacity
	}
	l := &Loop{
		overflow: queue.New(),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	l.ring.Init(roundPow2(capacity))
	return l
}

func roundPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Post enqueues fn. It returns ErrLoopClosed after Close.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		panic("compio: nil function posted to loop")
	}
	l.mu.Lock()
	if l.closed.Load() != 0 {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	if l.overflow.Length() > 0 || l.ring.Enqueue(&fn) != nil {
		l.overflow.Add(fn)
	}
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Drain runs every function currently queued, including functions posted
// by the functions it runs, and returns how many ran. Drain is the
// consumer side of the loop: it must not be called concurrently with
// itself or with Run.
func (l *Loop) Drain() int {
	n := 0
	for {
		fn, err := l.ring.Dequeue()
		if err != nil {
			if !l.refill() {
				return n
			}
			continue
		}
		fn()
		n++
	}
}

// refill moves spilled work back into the ring. Producers only use the
// ring again once the overflow is empty, which keeps FIFO order.
func (l *Loop) refill() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	moved := false
	for l.overflow.Length() > 0 {
		fn := l.overflow.Peek().(func())
		if l.ring.Enqueue(&fn) != nil {
			break
		}
		l.overflow.Remove()
		moved = true
	}
	return moved
}

// Run drains the loop on the calling goroutine until ctx is done or the
// loop is closed. Work queued before Close still runs. Run returns nil
// after Close and ctx.Err() on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(0, 1) {
		return ErrLoopRunning
	}
	defer l.running.Store(0)

	for {
		l.Drain()
		select {
		case <-l.wake:
		case <-l.done:
			l.Drain()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting work. Closing twice is a no-op.
func (l *Loop) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed.CompareAndSwap(0, 1) {
		close(l.done)
	}
	return nil
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	return l.closed.Load() != 0
}
