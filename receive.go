// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import "fmt"

// Range locates a received unit inside a Buffer's committed bytes.
type Range struct {
	Off int
	Len int
}

// UnitReceiver receives one a-priori-unsized protocol unit, such as an
// HTTP request header block, into p.
//
// When p is too small the call reports a *MoreDataError carrying the
// required total size and the native tag of the unit; the retry passes
// that tag back so it addresses the same unit. The first call uses tag 0.
// The call follows the NativeCall contract.
type UnitReceiver interface {
	ReceiveUnit(op *Op, tag uint64, p []byte) (int, error)
}

type unitReceive struct {
	op   *Op
	rx   UnitReceiver
	buf  *Buffer
	off  int
	size int
	done func(Range, error)
}

// ReceiveUnit receives one protocol unit into buf and calls done on op's
// executor with its location.
//
// The first attempt prepares the configured initial size. Each MoreData
// result re-prepares exactly the size the native layer requires and
// reissues with the reported tag. A requirement that does not grow fails
// with ErrRequirementNotGrowing; one above the configured maximum fails
// with ErrUnitTooLarge. End of stream is success with the reported length.
func ReceiveUnit(op *Op, rx UnitReceiver, buf *Buffer, done func(Range, error)) {
	op.Reset()
	r := &unitReceive{
		op:   op,
		rx:   rx,
		buf:  buf,
		off:  buf.Len(),
		size: op.bridge.cfg.unitSize,
		done: done,
	}
	op.SetStep(Receiving)
	r.issue(0)
}

func (r *unitReceive) issue(tag uint64) {
	p := r.buf.Prepare(r.size)
	r.op.Start(func(op *Op) (int, error) {
		return r.rx.ReceiveUnit(op, tag, p)
	}, r.complete)
}

func (r *unitReceive) complete(c Completion) {
	switch c.Class {
	case Success, EOF:
		if c.N > r.size {
			r.fail(fmt.Errorf("%w: %d > %d", ErrOverrun, c.N, r.size))
			return
		}
		r.buf.Commit(c.N)
		r.op.SetStep(Done)
		r.done(Range{Off: r.off, Len: c.N}, nil)
	case MoreData:
		b := r.op.bridge
		if c.N <= r.size {
			r.fail(fmt.Errorf("%w: required %d, have %d", ErrRequirementNotGrowing, c.N, r.size))
			return
		}
		if c.N > b.cfg.unitMax {
			r.fail(fmt.Errorf("%w: required %d, max %d", ErrUnitTooLarge, c.N, b.cfg.unitMax))
			return
		}
		b.msink.IncrCounterWithLabels(MetricUnitRegrow, 1, b.labels(LabelMachine.M(r.op.machine.name)))
		b.logger.Debug("regrowing receive buffer",
			LabelOpID.L(r.op.id), LabelLength.L(r.size), LabelRequired.L(c.N))
		r.size = c.N
		r.op.SetStep(Receiving)
		r.issue(c.Tag)
	default:
		r.fail(c.failure())
	}
}

func (r *unitReceive) fail(err error) {
	r.op.SetStep(Error)
	r.done(Range{}, err)
}
