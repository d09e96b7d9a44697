// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import (
	"errors"
	"io"
)

// Endpoint is a native connection endpoint such as a named pipe
// instance. Closing an endpoint with a connect pending makes the native
// layer deliver a cancellation for that connect.
type Endpoint interface {
	io.Closer
}

// PipeNative is the native side of the connect/accept handshake.
//
// Create makes a new server endpoint and never blocks. Connect waits for
// a peer on ep and follows the NativeCall contract; a peer that attached
// before the wait reports ErrPeerConnected.
type PipeNative interface {
	Create(name string) (Endpoint, error)
	Connect(op *Op, ep Endpoint) (int, error)
}

// Acceptor serializes connections on one named endpoint.
//
// The endpoint slot is only touched on the owning executor. A connected
// endpoint is moved out of the slot to the caller, leaving the slot free
// to wait for the next peer.
type Acceptor struct {
	op     *Op
	native PipeNative
	name   string
	slot   Endpoint
	closed bool
}

// NewAcceptor creates an acceptor for name whose continuations run on exec.
func NewAcceptor(b *Bridge, exec Executor, native PipeNative, name string) *Acceptor {
	return &Acceptor{
		op:     b.NewOp(exec, MachineAccept),
		native: native,
		name:   name,
	}
}

// Op returns the acceptor's operation context.
func (a *Acceptor) Op() *Op { return a.op }

// Accept creates an endpoint, waits for a peer and hands the connected
// endpoint to done. Accept must be called on the owning executor.
func (a *Acceptor) Accept(done func(Endpoint, error)) {
	op := a.op
	op.Reset()
	if a.closed {
		op.SetStep(Error)
		done(nil, ErrCancelled)
		return
	}

	op.SetStep(Creating)
	ep, err := a.native.Create(a.name)
	if err != nil {
		op.SetStep(Error)
		c := op.bridge.classify(0, err)
		if c.OK() || c.Class == MoreData {
			c = Completion{Class: Fatal, Err: newFatal("create", err)}
		}
		done(nil, c.failure())
		return
	}
	a.slot = ep

	op.SetStep(Connecting)
	op.Start(func(op *Op) (int, error) {
		return a.native.Connect(op, ep)
	}, func(c Completion) {
		ep := a.slot
		a.slot = nil
		if !c.OK() {
			op.SetStep(Error)
			if ep != nil {
				ep.Close()
			}
			done(nil, c.failure())
			return
		}
		if ep == nil {
			// Closed while the connect completed.
			op.SetStep(Error)
			done(nil, ErrCancelled)
			return
		}
		op.SetStep(Done)
		b := op.bridge
		b.msink.IncrCounterWithLabels(MetricAcceptCount, 1, b.labels())
		done(ep, nil)
	})
}

// Serve accepts until the first error. Each connected endpoint is handed
// to handler after the next accept has been issued. done receives the
// terminating error; a cancelled acceptor ends with a Cancelled error and
// is not restarted.
func (a *Acceptor) Serve(handler func(Endpoint), done func(error)) {
	a.Accept(func(ep Endpoint, err error) {
		if err != nil {
			done(err)
			return
		}
		a.Serve(handler, done)
		handler(ep)
	})
}

// Close stops the acceptor. The slot is closed on the owning executor,
// which cancels a pending connect. If that executor has already been
// closed, nothing else touches the slot and it is closed directly.
func (a *Acceptor) Close() error {
	err := a.op.exec.Post(a.shut)
	if errors.Is(err, ErrLoopClosed) {
		a.shut()
		return nil
	}
	return err
}

func (a *Acceptor) shut() {
	a.closed = true
	if ep := a.slot; ep != nil {
		a.slot = nil
		ep.Close()
	}
}
