// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrPeerConnected is returned by a native connect call when the peer
	// attached before the wait was issued. Classification turns it into
	// success; it never reaches a continuation as an error.
	ErrPeerConnected = errors.New("compio: peer already connected")

	// ErrCancelled is wrapped by every Cancelled completion error.
	ErrCancelled = errors.New("compio: operation cancelled")

	ErrSignalFired  = errors.New("compio: completion signal fired twice")
	ErrAlreadyArmed = errors.New("compio: completion signal already armed")

	ErrUnknownOp        = errors.New("compio: no pending operation for id")
	ErrUnexpectedStatus = errors.New("compio: status does not match operation step")

	ErrLoopClosed  = errors.New("loop: closed")
	ErrLoopRunning = errors.New("loop: already running")

	ErrRequirementNotGrowing = errors.New("receive: required size does not exceed current buffer")
	ErrUnitTooLarge          = errors.New("receive: required size exceeds configured maximum")
	ErrOverrun               = errors.New("compio: native transfer exceeds prepared buffer")

	ErrInvalidCfg   = errors.New("compio: invalid options")
	ErrNotSupported = errors.New("compio: not supported on this platform")
)

// MoreDataError is reported by a native receive when the supplied buffer
// cannot hold the protocol unit. Required is the total size the native
// layer needs; Tag carries the native identity of the unit so the retry
// addresses the same unit (for http.sys, the request id).
type MoreDataError struct {
	Required int
	Tag      uint64
}

func (e *MoreDataError) Error() string {
	return fmt.Sprintf("receive: more data, %d bytes required", e.Required)
}

// FatalError is a native failure surfaced verbatim. Code preserves the
// native status code when the underlying error is a syscall.Errno.
type FatalError struct {
	Op   string
	Code uint32
	Err  error
}

func (e *FatalError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: native code %d: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsCancelled reports whether err is a Cancelled completion error.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsFatal reports whether err is a Fatal completion error.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

func newFatal(op string, err error) *FatalError {
	fe := &FatalError{Op: op, Err: err}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		fe.Code = uint32(errno)
	}
	return fe
}

func cancelled(err error) error {
	switch {
	case err == nil:
		return ErrCancelled
	case errors.Is(err, ErrCancelled):
		return err
	}
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
