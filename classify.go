// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"code.hybscloud.com/iox"
)

// Class is the four-way error taxonomy seen above the bridge, plus the
// transient MoreData class consumed by the growable receive.
type Class uint8

const (
	// Success: the call finished; N bytes were transferred.
	Success Class = iota
	// MoreData: the buffer was too small; N is the required total size.
	MoreData
	// EOF: end of stream, a logical success carrying the final length.
	EOF
	// Cancelled: the handle was closed while the call was pending.
	Cancelled
	// Fatal: any other native failure.
	Fatal
)

func (c Class) String() string {
	switch c {
	case Success:
		return "success"
	case MoreData:
		return "more-data"
	case EOF:
		return "eof"
	case Cancelled:
		return "cancelled"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Completion is the classified result handed to a continuation.
type Completion struct {
	Class Class
	// N is the byte count for Success and EOF, the required size for MoreData.
	N int
	// Tag is the native identity reported with MoreData.
	Tag uint64
	// More is set on a Success that delivered part of a larger unit.
	More bool
	// Err is nil for Success and EOF and never nil otherwise. A MoreData
	// completion carries the *MoreDataError.
	Err error
}

// OK reports whether the completion is a success, including a reclassified
// end of stream.
func (c Completion) OK() bool {
	return c.Class == Success || c.Class == EOF
}

// Classify maps a raw native result to a Completion. It runs exactly once
// per native call, at the bridge boundary.
type Classify func(n int, err error) Completion

// DefaultClassify classifies portable error values. Platform backends
// recognise their own codes first and fall back to it.
func DefaultClassify(n int, err error) Completion {
	if err == nil {
		return Completion{Class: Success, N: n}
	}
	if errors.Is(err, iox.ErrMore) {
		return Completion{Class: Success, N: n, More: true}
	}
	if errors.Is(err, ErrPeerConnected) {
		return Completion{Class: Success}
	}
	if errors.Is(err, io.EOF) {
		return Completion{Class: EOF, N: n}
	}
	var md *MoreDataError
	if errors.As(err, &md) {
		return Completion{Class: MoreData, N: md.Required, Tag: md.Tag, Err: err}
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, os.ErrClosed) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return Completion{Class: Cancelled, Err: cancelled(err)}
	}
	return Completion{Class: Fatal, N: n, Err: newFatal("native", err)}
}

// settled fills in the error of a failed completion produced by a
// classifier that left it nil.
func (c Completion) settled() Completion {
	if c.OK() || c.Err != nil {
		return c
	}
	switch c.Class {
	case MoreData:
		c.Err = &MoreDataError{Required: c.N, Tag: c.Tag}
	case Cancelled:
		c.Err = ErrCancelled
	default:
		c.Err = newFatal("native", fmt.Errorf("%s completion without error", c.Class))
	}
	return c
}

// failure is the error a state machine that cannot regrow reports for a
// failed completion. MoreData outside a growable receive is fatal.
func (c Completion) failure() error {
	c = c.settled()
	if c.Class == MoreData {
		return newFatal("native", c.Err)
	}
	return c.Err
}
