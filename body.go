// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import "fmt"

// BodyReceiver receives the next chunk of an entity body addressed by
// tag. End of the body is reported as io.EOF, possibly with a final
// length. The call follows the NativeCall contract.
type BodyReceiver interface {
	ReceiveBody(op *Op, tag uint64, p []byte) (int, error)
}

// ReceiveBody receives a body of unknown length into buf in chunks of
// the configured chunk size, committing every chunk, and calls done
// with the total once the native layer reports end of stream.
func ReceiveBody(op *Op, rx BodyReceiver, tag uint64, buf *Buffer, done func(int, error)) {
	op.Reset()
	op.SetStep(Receiving)
	chunk := op.bridge.cfg.chunkSize
	total := 0

	var next func()
	next = func() {
		p := buf.Prepare(chunk)
		op.Start(func(op *Op) (int, error) {
			return rx.ReceiveBody(op, tag, p)
		}, func(c Completion) {
			if !c.OK() {
				op.SetStep(Error)
				done(total, c.failure())
				return
			}
			if c.N > len(p) {
				op.SetStep(Error)
				done(total, fmt.Errorf("%w: %d > %d", ErrOverrun, c.N, len(p)))
				return
			}
			buf.Commit(c.N)
			total += c.N
			if c.Class == EOF {
				op.SetStep(Done)
				done(total, nil)
				return
			}
			op.SetStep(Receiving)
			next()
		})
	}
	next()
}

// ReceiveMessage reads one message of a message-mode stream into buf.
// call binds a native read to the prepared region. Reads continue while
// the native layer reports that the message has more data (iox.ErrMore);
// a plain success or end of stream ends the message.
func ReceiveMessage(op *Op, call func(p []byte) NativeCall, buf *Buffer, done func(Range, error)) {
	op.Reset()
	op.SetStep(Receiving)
	chunk := op.bridge.cfg.chunkSize
	off := buf.Len()

	var next func()
	next = func() {
		p := buf.Prepare(chunk)
		op.Start(call(p), func(c Completion) {
			if !c.OK() {
				op.SetStep(Error)
				done(Range{}, c.failure())
				return
			}
			if c.N > len(p) {
				op.SetStep(Error)
				done(Range{}, fmt.Errorf("%w: %d > %d", ErrOverrun, c.N, len(p)))
				return
			}
			buf.Commit(c.N)
			if c.More {
				op.SetStep(Receiving)
				next()
				return
			}
			op.SetStep(Done)
			done(Range{Off: off, Len: buf.Len() - off}, nil)
		})
	}
	next()
}
