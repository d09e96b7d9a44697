// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import (
	"fmt"

	"code.hybscloud.com/atomix"
)

// Step is the protocol state of an operation chain.
type Step uint32

const (
	Idle Step = iota
	Creating
	Connecting
	Receiving
	Sending
	Headers
	DataAvailable
	Reading
	Done
	Error

	stepCount
)

var stepNames = [stepCount]string{
	Idle:          "idle",
	Creating:      "creating",
	Connecting:    "connecting",
	Receiving:     "receiving",
	Sending:       "sending",
	Headers:       "headers",
	DataAvailable: "data-available",
	Reading:       "reading",
	Done:          "done",
	Error:         "error",
}

func (s Step) String() string {
	if s < stepCount {
		return stepNames[s]
	}
	return fmt.Sprintf("step(%d)", uint32(s))
}

// Machine is the transition table of one protocol state machine.
// Any step may move to Error; Op.Reset returns to Idle.
type Machine struct {
	name  string
	edges [stepCount]uint32
}

func newMachine(name string, edges ...[2]Step) Machine {
	m := Machine{name: name}
	for _, e := range edges {
		m.edges[e[0]] |= 1 << e[1]
	}
	return m
}

// Name returns the machine name used in logs and metric labels.
func (m Machine) Name() string { return m.name }

// Allows reports whether from → to is a legal transition.
func (m Machine) Allows(from, to Step) bool {
	if to == Error {
		return true
	}
	if from >= stepCount || to >= stepCount {
		return false
	}
	return m.edges[from]&(1<<to) != 0
}

var (
	// MachineUnit drives one growable receive.
	MachineUnit = newMachine("unit",
		[2]Step{Idle, Receiving},
		[2]Step{Receiving, Receiving},
		[2]Step{Receiving, Done},
	)
	// MachineBody drives a chunked receive until end of stream.
	MachineBody = newMachine("body",
		[2]Step{Idle, Receiving},
		[2]Step{Receiving, Receiving},
		[2]Step{Receiving, Done},
	)
	// MachineMessage drives a message-mode read.
	MachineMessage = newMachine("message",
		[2]Step{Idle, Receiving},
		[2]Step{Receiving, Receiving},
		[2]Step{Receiving, Done},
	)
	// MachineAccept drives the create/connect handshake.
	MachineAccept = newMachine("accept",
		[2]Step{Idle, Creating},
		[2]Step{Creating, Connecting},
		[2]Step{Connecting, Done},
	)
	// MachineDrain drives send, headers and the body drain loop.
	MachineDrain = newMachine("drain",
		[2]Step{Idle, Sending},
		[2]Step{Sending, Headers},
		[2]Step{Headers, DataAvailable},
		[2]Step{DataAvailable, Reading},
		[2]Step{Reading, DataAvailable},
		[2]Step{DataAvailable, Done},
	)
	// MachineGeneric allows every transition.
	MachineGeneric = func() Machine {
		m := Machine{name: "generic"}
		for i := range m.edges {
			m.edges[i] = 1<<stepCount - 1
		}
		return m
	}()
)

// Op is the operation context of one asynchronous call chain.
//
// An Op is heap allocated by Bridge.NewOp and carries everything that must
// survive between a native call and its completion. While a call is
// outstanding the Op is pinned in the bridge registry under its ID; native
// layers carry the ID, never the pointer. At most one call may be
// outstanding at a time.
type Op struct {
	id       ID
	bridge   *Bridge
	exec     Executor
	machine  Machine
	step     atomix.Uint32
	inflight atomix.Uint32
	waits    atomix.Uint32
	sig      Signal

	// Written by the bridge on the owning context before the
	// continuation runs.
	lastErr error
	lastLen int
}

// ID returns the operation identity carried across the native boundary.
// It is stable for the life of the Op, across calls.
func (op *Op) ID() ID { return op.id }

// Bridge returns the bridge the operation was created on.
func (op *Op) Bridge() *Bridge { return op.bridge }

// Executor returns the owning execution context.
func (op *Op) Executor() Executor { return op.exec }

// Machine returns the operation's transition table.
func (op *Op) Machine() Machine { return op.machine }

// Step returns the current step. Safe from any goroutine.
func (op *Op) Step() Step { return Step(op.step.Load()) }

// SetStep moves the operation to s. It panics on a transition the
// machine does not allow.
func (op *Op) SetStep(s Step) {
	cur := op.Step()
	if !op.machine.Allows(cur, s) {
		panic(fmt.Sprintf("compio: illegal %s transition %s -> %s", op.machine.name, cur, s))
	}
	op.step.Store(uint32(s))
}

// Reset returns the operation to Idle for reuse.
func (op *Op) Reset() {
	if op.inflight.Load() != 0 {
		panic("compio: reset with a native call outstanding")
	}
	op.step.Store(uint32(Idle))
	op.lastErr = nil
	op.lastLen = 0
}

// LastErr returns the error of the last completion.
func (op *Op) LastErr() error { return op.lastErr }

// LastLen returns the byte count of the last completion.
func (op *Op) LastLen() int { return op.lastLen }

// Waits returns how many native calls on this operation went pending.
func (op *Op) Waits() uint32 { return op.waits.Load() }

// Pending reports whether a native call is outstanding.
func (op *Op) Pending() bool { return op.inflight.Load() != 0 }

// Signal returns the embedded completion signal.
func (op *Op) Signal() *Signal { return &op.sig }

// Start issues call through the operation's bridge.
func (op *Op) Start(call NativeCall, cont func(Completion)) {
	op.bridge.Start(op, call, cont)
}
