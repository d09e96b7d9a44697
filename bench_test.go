// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio_test

import (
	"testing"

	"code.hybscloud.com/compio"
	"code.hybscloud.com/compio/nativetest"
	"code.hybscloud.com/kont"
)

// BenchmarkStartInline measures an inline completion posted to the loop.
func BenchmarkStartInline(b *testing.B) {
	f := newFixture(b)
	op := f.b.NewOp(f.loop, compio.MachineGeneric)
	call := f.native.Call(nativetest.Outcome{Mode: nativetest.Now, N: 1})
	cont := func(compio.Completion) {}
	b.ReportAllocs()
	for b.Loop() {
		op.Start(call, cont)
		f.loop.Drain()
	}
}

// BenchmarkStartRace measures a completion that overtakes arming.
func BenchmarkStartRace(b *testing.B) {
	f := newFixture(b)
	op := f.b.NewOp(f.loop, compio.MachineGeneric)
	call := f.native.Call(nativetest.Outcome{Mode: nativetest.Race, N: 1})
	cont := func(compio.Completion) {}
	b.ReportAllocs()
	for b.Loop() {
		op.Start(call, cont)
		f.loop.Drain()
	}
}

// BenchmarkLoopPost measures post and drain through the ring.
func BenchmarkLoopPost(b *testing.B) {
	loop := compio.NewLoop(64)
	fn := func() {}
	b.ReportAllocs()
	for b.Loop() {
		loop.Post(fn)
		loop.Drain()
	}
}

// BenchmarkGoTwoStep measures a two-call kont protocol.
func BenchmarkGoTwoStep(b *testing.B) {
	f := newFixture(b)
	op := f.b.NewOp(f.loop, compio.MachineGeneric)
	call := f.native.Call(nativetest.Outcome{Mode: nativetest.Now, N: 1})
	done := func(int) {}
	b.ReportAllocs()
	for b.Loop() {
		protocol := compio.AwaitBind(compio.Sending, call, func(compio.Completion) kont.Eff[int] {
			return compio.AwaitBind(compio.Reading, call, func(c compio.Completion) kont.Eff[int] {
				return kont.Pure(c.N)
			})
		})
		compio.Go(op, protocol, done)
		f.loop.Drain()
	}
}
