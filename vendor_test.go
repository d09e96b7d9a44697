// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio_test

import (
	"errors"
	"syscall"
	"testing"

	"code.hybscloud.com/compio"
	"code.hybscloud.com/iox"
)

func pendingCall(*compio.Op) (int, error) { return 0, iox.ErrWouldBlock }

func TestNotifyMatchesStep(t *testing.T) {
	f := newFixture(t)
	op := f.b.NewOp(f.loop, compio.MachineDrain)
	op.SetStep(compio.Sending)

	var got []compio.Completion
	op.Start(pendingCall, func(c compio.Completion) { got = append(got, c) })

	if err := f.b.Notify(op.ID(), compio.StatusReadComplete, 10, nil); !errors.Is(err, compio.ErrUnexpectedStatus) {
		t.Fatalf("mismatched Notify = %v, want ErrUnexpectedStatus", err)
	}
	if err := f.b.Notify(op.ID(), compio.StatusSendComplete, 0, nil); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	f.loop.Drain()
	if len(got) != 1 || got[0].Class != compio.Success {
		t.Fatalf("got %+v, want one success", got)
	}
	if f.sink.get(compio.MetricNotifyDropped) != 1 {
		t.Fatalf("dropped = %v, want 1", f.sink.get(compio.MetricNotifyDropped))
	}
}

func TestNotifyRequestError(t *testing.T) {
	f := newFixture(t)
	op := f.b.NewOp(f.loop, compio.MachineDrain)
	op.SetStep(compio.Sending)
	op.SetStep(compio.Headers)

	var got compio.Completion
	op.Start(pendingCall, func(c compio.Completion) { got = c })
	if err := f.b.Notify(op.ID(), compio.StatusRequestError, 0, syscall.Errno(12002)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	f.loop.Drain()
	if got.Class != compio.Fatal || !errors.Is(got.Err, syscall.Errno(12002)) {
		t.Fatalf("got %+v, want fatal carrying the native code", got)
	}
}

func TestNotifyRequestErrorWithoutCause(t *testing.T) {
	f := newFixture(t)
	op := f.b.NewOp(f.loop, compio.MachineGeneric)
	op.SetStep(compio.Reading)

	var got compio.Completion
	op.Start(pendingCall, func(c compio.Completion) { got = c })
	f.b.Notify(op.ID(), compio.StatusRequestError, 0, nil)
	f.loop.Drain()
	if !errors.Is(got.Err, compio.ErrRequestFailed) {
		t.Fatalf("err = %v, want ErrRequestFailed", got.Err)
	}
}

func TestStatusString(t *testing.T) {
	if s := compio.StatusHeadersAvailable.String(); s != "headers-available" {
		t.Fatalf("String = %q", s)
	}
	if s := compio.Status(42).String(); s != "status(42)" {
		t.Fatalf("String = %q", s)
	}
}
