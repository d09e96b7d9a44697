// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import (
	"errors"
	"fmt"
)

// Status is a notification kind of a single-callback vendor API, where
// one process-wide function receives every event of every request.
type Status uint8

const (
	StatusSendComplete Status = iota + 1
	StatusHeadersAvailable
	StatusDataAvailable
	StatusReadComplete
	StatusWriteComplete
	StatusRequestError
)

func (s Status) String() string {
	switch s {
	case StatusSendComplete:
		return "send-complete"
	case StatusHeadersAvailable:
		return "headers-available"
	case StatusDataAvailable:
		return "data-available"
	case StatusReadComplete:
		return "read-complete"
	case StatusWriteComplete:
		return "write-complete"
	case StatusRequestError:
		return "request-error"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// ErrRequestFailed is reported for a request-error notification that
// carries no native error of its own.
var ErrRequestFailed = errors.New("compio: vendor request error")

// expects reports whether the status completes a call issued in step.
func (s Status) expects(step Step) bool {
	switch s {
	case StatusSendComplete, StatusWriteComplete:
		return step == Sending
	case StatusHeadersAvailable:
		return step == Headers
	case StatusDataAvailable:
		return step == DataAvailable
	case StatusReadComplete:
		return step == Reading
	case StatusRequestError:
		return true
	}
	return false
}

// Notify delivers a vendor notification for the operation identified by
// id, the context word the vendor hands back with every callback.
//
// A request error completes whatever call is pending. Any other status
// must match the operation's current step; a mismatch is dropped and
// returns ErrUnexpectedStatus.
func (b *Bridge) Notify(id ID, st Status, n int, err error) error {
	op, ok := b.reg.lookup(id)
	if !ok {
		b.drop(id, "unknown")
		return ErrUnknownOp
	}
	if !st.expects(op.Step()) {
		b.msink.IncrCounterWithLabels(MetricNotifyDropped, 1,
			b.labels(LabelReason.M("status"), LabelStatus.M(st.String())))
		b.logger.Warn("unexpected vendor status",
			LabelOpID.L(id), LabelStatus.L(st.String()), LabelStep.L(op.Step()))
		return ErrUnexpectedStatus
	}
	if st == StatusRequestError && err == nil {
		err = ErrRequestFailed
	}
	return b.fire(op, n, err)
}
