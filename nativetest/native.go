// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nativetest

import (
	"errors"
	"os"
	"sort"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/compio"
	"code.hybscloud.com/iox"
)

// Mode is how a fake native call reports its result.
type Mode uint8

const (
	// Now completes inline.
	Now Mode = iota
	// Pending returns iox.ErrWouldBlock and completes from another goroutine.
	Pending
	// Race completes before returning iox.ErrWouldBlock, ahead of arming.
	Race
	// Hold returns iox.ErrWouldBlock and completes on Release or Cancel.
	Hold
)

func (m Mode) String() string {
	switch m {
	case Now:
		return "now"
	case Pending:
		return "pending"
	case Race:
		return "race"
	case Hold:
		return "hold"
	default:
		return "mode(?)"
	}
}

// ErrNotHeld is returned by Release and Cancel for an ID with no held call.
var ErrNotHeld = errors.New("nativetest: no held call")

// Outcome scripts one native call.
type Outcome struct {
	Mode Mode
	N    int
	Err  error
}

type result struct {
	n   int
	err error
}

// Native is the completion side shared by every fake. It reports results
// to a bridge the way a completion port or vendor thread would.
type Native struct {
	b     *compio.Bridge
	calls atomix.Uint32

	mu   sync.Mutex
	held map[compio.ID]result
}

// New creates a Native completing into b.
func New(b *compio.Bridge) *Native {
	return &Native{b: b, held: make(map[compio.ID]result)}
}

// Bridge returns the bridge completions are reported to.
func (f *Native) Bridge() *compio.Bridge { return f.b }

// Do performs one scripted call for op.
func (f *Native) Do(op *compio.Op, o Outcome) (int, error) {
	f.calls.Add(1)
	id := op.ID()
	switch o.Mode {
	case Now:
		return o.N, o.Err
	case Pending:
		go f.b.Complete(id, o.N, o.Err)
	case Race:
		f.b.Complete(id, o.N, o.Err)
	case Hold:
		f.mu.Lock()
		f.held[id] = result{o.N, o.Err}
		f.mu.Unlock()
	}
	return 0, iox.ErrWouldBlock
}

// Call returns a NativeCall performing o.
func (f *Native) Call(o Outcome) compio.NativeCall {
	return func(op *compio.Op) (int, error) {
		return f.Do(op, o)
	}
}

// Calls returns the number of calls performed.
func (f *Native) Calls() int { return int(f.calls.Load()) }

// Held returns the IDs of held calls in ascending order.
func (f *Native) Held() []compio.ID {
	f.mu.Lock()
	ids := make([]compio.ID, 0, len(f.held))
	for id := range f.held {
		ids = append(ids, id)
	}
	f.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Release completes the held call of id with its scripted result.
func (f *Native) Release(id compio.ID) error {
	r, ok := f.take(id)
	if !ok {
		return ErrNotHeld
	}
	return f.b.Complete(id, r.n, r.err)
}

// ReleaseWith completes the held call of id with n and err.
func (f *Native) ReleaseWith(id compio.ID, n int, err error) error {
	if _, ok := f.take(id); !ok {
		return ErrNotHeld
	}
	return f.b.Complete(id, n, err)
}

// Cancel completes the held call of id the way a closed handle does.
func (f *Native) Cancel(id compio.ID) error {
	return f.ReleaseWith(id, 0, os.ErrClosed)
}

// CancelAll cancels every held call.
func (f *Native) CancelAll() {
	for _, id := range f.Held() {
		f.Cancel(id)
	}
}

func (f *Native) take(id compio.ID) (result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.held[id]
	if ok {
		delete(f.held, id)
	}
	return r, ok
}
