// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import "code.hybscloud.com/atomix"

// Signal state bits.
const (
	sigArmed   uint32 = 1 << iota // continuation stored
	sigFired                      // result stored
	sigClaimed                    // a Fire is in progress or done
)

// Signal is a one-shot rendezvous between a native completion, which may
// arrive on any goroutine, and the continuation waiting for it.
//
// Arm and Fire may run in either order. Whichever comes second dispatches
// the continuation, exactly once, by posting it to the owning executor.
// Reset clears the signal before the next native call.
type Signal struct {
	state atomix.Uint32
	res   Completion
	cont  func(Completion)
	exec  Executor
}

// NewSignal returns a Signal that dispatches on exec.
func NewSignal(exec Executor) *Signal {
	return &Signal{exec: exec}
}

// Reset clears the signal. It must not be called while a continuation
// is armed and the result has not yet been dispatched.
func (s *Signal) Reset() {
	s.res = Completion{}
	s.cont = nil
	s.state.Store(0)
}

// Armed reports whether a continuation has been armed since the last Reset.
func (s *Signal) Armed() bool {
	return s.state.Load()&sigArmed != 0
}

// Fired reports whether a result has been stored since the last Reset.
func (s *Signal) Fired() bool {
	return s.state.Load()&sigFired != 0
}

// Fire stores c and dispatches the armed continuation, if any.
// A second Fire without Reset returns ErrSignalFired.
func (s *Signal) Fire(c Completion) error {
	for {
		old := s.state.Load()
		if old&sigClaimed != 0 {
			return ErrSignalFired
		}
		if s.state.CompareAndSwap(old, old|sigClaimed) {
			break
		}
	}
	s.res = c
	if s.set(sigFired)&sigArmed != 0 {
		s.dispatch()
	}
	return nil
}

// Arm stores cont. If the signal already fired, cont is dispatched now.
// A second Arm without Reset returns ErrAlreadyArmed.
func (s *Signal) Arm(cont func(Completion)) error {
	if cont == nil {
		panic("compio: nil continuation armed")
	}
	if s.state.Load()&sigArmed != 0 {
		return ErrAlreadyArmed
	}
	s.cont = cont
	if s.set(sigArmed)&sigFired != 0 {
		s.dispatch()
	}
	return nil
}

// settle marks the signal claimed and fired without storing a result, so
// that a stray notification for a call that completed inline is refused.
func (s *Signal) settle() {
	s.set(sigClaimed | sigFired)
}

// set ors bits into the state word and returns the previous state.
func (s *Signal) set(bits uint32) uint32 {
	for {
		old := s.state.Load()
		if s.state.CompareAndSwap(old, old|bits) {
			return old
		}
	}
}

// dispatch hands the stored result to the continuation on the owning
// executor. When the executor refuses work, the continuation runs inline
// with a Cancelled completion so it still runs exactly once.
func (s *Signal) dispatch() {
	cont, res := s.cont, s.res
	if err := s.exec.Post(func() { cont(res) }); err != nil {
		cont(Completion{Class: Cancelled, Err: cancelled(err)})
	}
}
