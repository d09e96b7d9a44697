// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import (
	"fmt"

	"code.hybscloud.com/kont"
)

// Request is an outbound request whose calls complete through
// Bridge.Notify. Each method follows the NativeCall contract;
// QueryDataAvailable reports the number of body bytes ready to read.
type Request interface {
	Send(op *Op) (int, error)
	ReceiveResponse(op *Op) (int, error)
	QueryDataAvailable(op *Op) (int, error)
	ReadData(op *Op, p []byte) (int, error)
}

type (
	drainResult = kont.Either[error, int]
	drainLoop   = kont.Either[int, drainResult]
)

// DrainBody sends req, waits for the response headers and reads the
// whole body into buf, calling done with the body length.
//
// The drain loop ends only when QueryDataAvailable reports zero bytes;
// a short read is not the end of the body.
func DrainBody(op *Op, req Request, buf *Buffer, done func(int, error)) {
	op.Reset()
	Go(op, drainProtocol(req, buf), func(e drainResult) {
		if err, ok := e.GetLeft(); ok {
			op.SetStep(Error)
			done(0, err)
			return
		}
		n, _ := e.GetRight()
		op.SetStep(Done)
		b := op.bridge
		b.msink.IncrCounterWithLabels(MetricDrainBytes, float32(n), b.labels())
		done(n, nil)
	})
}

func drainProtocol(req Request, buf *Buffer) kont.Eff[drainResult] {
	return AwaitBind(Sending, req.Send, func(c Completion) kont.Eff[drainResult] {
		if !c.OK() {
			return kont.Pure(kont.Left[error, int](c.failure()))
		}
		return AwaitBind(Headers, req.ReceiveResponse, func(c Completion) kont.Eff[drainResult] {
			if !c.OK() {
				return kont.Pure(kont.Left[error, int](c.failure()))
			}
			return Repeat(0, func(total int) kont.Eff[drainLoop] {
				return drainChunk(req, buf, total)
			})
		})
	})
}

// drainChunk queries availability and reads what is available.
// Left(total) continues the loop; Right ends it.
func drainChunk(req Request, buf *Buffer, total int) kont.Eff[drainLoop] {
	stop := func(r drainResult) kont.Eff[drainLoop] {
		return kont.Pure(kont.Right[int, drainResult](r))
	}
	return AwaitBind(DataAvailable, req.QueryDataAvailable, func(c Completion) kont.Eff[drainLoop] {
		if !c.OK() {
			return stop(kont.Left[error, int](c.failure()))
		}
		if c.N == 0 {
			return stop(kont.Right[error, int](total))
		}
		p := buf.Prepare(c.N)
		read := func(op *Op) (int, error) { return req.ReadData(op, p) }
		return AwaitBind(Reading, read, func(c Completion) kont.Eff[drainLoop] {
			if !c.OK() {
				return stop(kont.Left[error, int](c.failure()))
			}
			if c.N > len(p) {
				return stop(kont.Left[error, int](fmt.Errorf("%w: %d > %d", ErrOverrun, c.N, len(p))))
			}
			buf.Commit(c.N)
			return kont.Pure(kont.Left[int, drainResult](total + c.N))
		})
	})
}
