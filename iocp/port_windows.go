// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package iocp

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/compio"
	"code.hybscloud.com/iox"
	"golang.org/x/sys/windows"
)

const shutdownKey = ^uintptr(0)

// decodeFunc turns the raw packet of one overlapped call into the
// (n, err) pair handed to the bridge.
type decodeFunc func(qty uint32, err error) (int, error)

func decodeRaw(qty uint32, err error) (int, error) { return int(qty), err }

// overlapped is the per-call record. The kernel structure must stay the
// first field: workers recover the record from the *windows.Overlapped
// the port hands back.
type overlapped struct {
	ov     windows.Overlapped
	done   uint32
	id     compio.ID
	buf    []byte
	decode decodeFunc
}

// Port is an I/O completion port with a fixed pool of worker goroutines.
// Workers deliver every dequeued packet to the bridge.
//
// Handles associated with a port must be closed before the port.
type Port struct {
	b       *compio.Bridge
	h       windows.Handle
	workers int

	mu      sync.Mutex
	pending map[*overlapped]struct{}

	wg     sync.WaitGroup
	closed atomix.Uint32
}

// NewPort creates a completion port served by workers goroutines.
func NewPort(b *compio.Bridge, workers int) (*Port, error) {
	if workers <= 0 {
		workers = 1
	}
	h, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, uint32(workers))
	if err != nil {
		return nil, fmt.Errorf("iocp: create port: %w", err)
	}
	p := &Port{
		b:       b,
		h:       h,
		workers: workers,
		pending: make(map[*overlapped]struct{}),
	}
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p, nil
}

// Bridge returns the bridge the port completes into.
func (p *Port) Bridge() *compio.Bridge { return p.b }

// Associate binds h to the port. Every overlapped call on h then
// completes through a packet on this port.
func (p *Port) Associate(h windows.Handle) error {
	if _, err := windows.CreateIoCompletionPort(h, p.h, 0, 0); err != nil {
		return fmt.Errorf("iocp: associate: %w", err)
	}
	return nil
}

// Pending returns the number of overlapped calls whose packet has not
// been dequeued yet.
func (p *Port) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// submit issues one overlapped call for op.
//
// A call that returns success or ERROR_IO_PENDING has queued a packet and
// reports iox.ErrWouldBlock. With more set, ERROR_MORE_DATA also queues
// a packet, as it does for message-mode reads. Any other immediate
// failure is decoded and returned inline.
func (p *Port) submit(op *compio.Op, buf []byte, more bool, decode decodeFunc, start func(o *overlapped) error) (int, error) {
	if p.closed.Load() != 0 {
		return 0, compio.ErrCancelled
	}
	o := &overlapped{id: op.ID(), buf: buf, decode: decode}
	p.pin(o)
	err := start(o)
	if err == nil || errors.Is(err, errIOPending) || (more && errors.Is(err, errMoreData)) {
		return 0, iox.ErrWouldBlock
	}
	p.unpin(o)
	return decode(uint32(o.ov.InternalHigh), err)
}

func (p *Port) pin(o *overlapped) {
	p.mu.Lock()
	p.pending[o] = struct{}{}
	p.mu.Unlock()
}

func (p *Port) unpin(o *overlapped) {
	p.mu.Lock()
	delete(p.pending, o)
	p.mu.Unlock()
}

func (p *Port) worker() {
	defer p.wg.Done()
	for {
		var (
			qty uint32
			key uintptr
			ov  *windows.Overlapped
		)
		err := windows.GetQueuedCompletionStatus(p.h, &qty, &key, &ov, windows.INFINITE)
		if ov == nil {
			if key == shutdownKey {
				return
			}
			if err != nil {
				p.b.Logger().Error("iocp: dequeue failed", compio.LabelError.L(err))
				return
			}
			continue
		}
		o := (*overlapped)(unsafe.Pointer(ov))
		p.unpin(o)
		n, derr := o.decode(qty, err)
		p.b.Complete(o.id, n, derr)
	}
}

// Close stops the workers and closes the port. Packets still queued are
// discarded.
func (p *Port) Close() error {
	if !p.closed.CompareAndSwap(0, 1) {
		return nil
	}
	for range p.workers {
		if err := windows.PostQueuedCompletionStatus(p.h, 0, shutdownKey, nil); err != nil {
			return fmt.Errorf("iocp: post shutdown: %w", err)
		}
	}
	p.wg.Wait()
	return windows.CloseHandle(p.h)
}
