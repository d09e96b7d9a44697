// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import (
	"errors"
	"fmt"
	"log/slog"

	"code.hybscloud.com/iox"
	"github.com/hashicorp/go-metrics"
)

// NativeCall starts one native operation for op. It returns:
//   - a nil error when the operation completed inline; no notification
//     will follow;
//   - iox.ErrWouldBlock when the operation is pending; exactly one
//     Bridge.Complete or Bridge.Notify for op.ID() will follow, possibly
//     before NativeCall returns;
//   - any other error when the operation failed to start.
type NativeCall func(op *Op) (n int, err error)

// Bridge turns native pending/inline/error calls into exactly one
// continuation per call, run on the operation's owning executor.
//
// A Bridge is safe for concurrent use. Complete and Notify are the
// entry points for native completion threads.
type Bridge struct {
	cfg      config
	logger   *slog.Logger
	msink    metrics.MetricSink
	classify Classify
	reg      registry
}

// NewBridge creates a bridge configured by opts.
func NewBridge(opts ...Option) (*Bridge, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCfg, err)
		}
	}

	b := &Bridge{cfg: cfg, classify: cfg.classify}
	if cfg.logHandler != nil {
		b.logger = slog.New(cfg.logHandler)
	} else {
		b.logger = slog.Default()
	}
	if cfg.metricSink != nil {
		b.msink = cfg.metricSink
	} else {
		b.msink = metrics.Default()
	}
	return b, nil
}

// NewOp allocates an operation context owned by exec and validated by m.
func (b *Bridge) NewOp(exec Executor, m Machine) *Op {
	if exec == nil {
		panic("compio: nil executor")
	}
	op := &Op{
		id:      nextID(),
		bridge:  b,
		exec:    exec,
		machine: m,
	}
	op.sig.exec = exec
	return op
}

// Logger returns the bridge logger.
func (b *Bridge) Logger() *slog.Logger { return b.logger }

// Pending returns the number of operations with an outstanding native call.
func (b *Bridge) Pending() int { return b.reg.len() }

// Start issues call for op and arranges for cont to run exactly once on
// op's executor with the classified result.
//
// Start never runs cont inline. It panics if op already has a call
// outstanding.
func (b *Bridge) Start(op *Op, call NativeCall, cont func(Completion)) {
	if !op.inflight.CompareAndSwap(0, 1) {
		panic("compio: native call issued while another is outstanding")
	}
	op.sig.Reset()
	b.reg.pin(op)
	b.msink.IncrCounterWithLabels(MetricCallStart, 1, b.labels(LabelMachine.M(op.machine.name)))

	n, err := call(op)
	if errors.Is(err, iox.ErrWouldBlock) {
		op.waits.Add(1)
		b.msink.IncrCounterWithLabels(MetricCallPending, 1, b.labels(LabelMachine.M(op.machine.name)))
		b.logger.Debug("native call pending",
			LabelOpID.L(op.id), LabelStep.L(op.Step()))
		if err := op.sig.Arm(func(c Completion) { b.finish(op, c, cont) }); err != nil {
			panic("compio: " + err.Error())
		}
		return
	}

	op.sig.settle()
	c := b.classify(n, err)
	b.logger.Debug("native call completed inline",
		LabelOpID.L(op.id), LabelStep.L(op.Step()), LabelClass.L(c.Class))
	if perr := op.exec.Post(func() { b.finish(op, c, cont) }); perr != nil {
		b.finish(op, Completion{Class: Cancelled, Err: cancelled(perr)}, cont)
	}
}

// finish runs on the owning executor. It releases the pin, records the
// result on op and calls cont.
func (b *Bridge) finish(op *Op, c Completion, cont func(Completion)) {
	c = c.settled()
	b.reg.unpin(op.id)
	op.lastErr = c.Err
	op.lastLen = c.N
	op.inflight.Store(0)

	b.msink.IncrCounterWithLabels(MetricCallComplete, 1,
		b.labels(LabelMachine.M(op.machine.name), LabelClass.M(c.Class.String())))
	if c.Class == Fatal {
		b.logger.Debug("native call failed",
			LabelOpID.L(op.id), LabelStep.L(op.Step()), LabelError.L(c.Err))
	}
	cont(c)
}

// Complete delivers the out-of-band result of a pending native call.
// It is safe to call from any goroutine.
//
// Results are addressed by operation, not by call. Between calls the id
// is unpinned and a stray result is dropped with ErrUnknownOp, but one
// that arrives after the same Op has started its next call completes
// that call. Native layers must report each call exactly once.
func (b *Bridge) Complete(id ID, n int, err error) error {
	op, ok := b.reg.lookup(id)
	if !ok {
		b.drop(id, "unknown")
		return ErrUnknownOp
	}
	return b.fire(op, n, err)
}

func (b *Bridge) fire(op *Op, n int, err error) error {
	if ferr := op.sig.Fire(b.classify(n, err)); ferr != nil {
		b.drop(op.id, "duplicate")
		return ferr
	}
	return nil
}

func (b *Bridge) drop(id ID, reason string) {
	b.msink.IncrCounterWithLabels(MetricNotifyDropped, 1, b.labels(LabelReason.M(reason)))
	b.logger.Warn("dropped native notification", LabelOpID.L(id), LabelReason.L(reason))
}

// labels prepends the static metric labels.
func (b *Bridge) labels(extra ...metrics.Label) []metrics.Label {
	if len(b.cfg.metricLabels) == 0 {
		return extra
	}
	out := make([]metrics.Label, 0, len(b.cfg.metricLabels)+len(extra))
	out = append(out, b.cfg.metricLabels...)
	return append(out, extra...)
}
