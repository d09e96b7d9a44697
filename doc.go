// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package compio bridges callback-driven native I/O into continuations
// that run exactly once on an owning execution context.
//
// Native layers start an operation and report completion later on a
// thread the caller does not control: an I/O completion port worker, or a
// single process-wide vendor callback. compio pins the operation context
// across that boundary, classifies the native result once and hands the
// continuation back to the owner.
//
// # Architecture
//
//   - Bridge: [Bridge.Start] issues a [NativeCall]. A nil error completes inline; [code.hybscloud.com/iox.ErrWouldBlock] means pending, to be finished by [Bridge.Complete] or [Bridge.Notify].
//   - Signal: [Signal] is the lock-free Arm/Fire rendezvous that makes a completion racing ahead of arming still run once.
//   - Operation context: [Op] carries the [Step], the last result and the signal, validated by a [Machine] transition table.
//   - Executor: [Loop] is a single-goroutine executor fed from any goroutine through a bounded lock-free ring via [code.hybscloud.com/lfq].
//   - Classification: [Classify] maps native results onto [Success], [MoreData], [EOF], [Cancelled] and [Fatal].
//
// # State Machines
//
//   - [ReceiveUnit]: growable receive that regrows to the exact size the native layer requires.
//   - [ReceiveBody], [ReceiveMessage]: chunked receive until end of stream or end of message.
//   - [Acceptor]: create/connect handshake that moves each connected [Endpoint] to the caller.
//   - [DrainBody]: send, headers and body drain, written as a [code.hybscloud.com/kont] protocol of [Await] effects run by [Go].
//
// Windows backends live in package iocp; package nativetest provides
// scriptable fakes of every native contract.
//
// # Example
//
//	b, _ := compio.NewBridge()
//	loop := compio.NewLoop(0)
//	go loop.Run(ctx)
//
//	op := b.NewOp(loop, compio.MachineUnit)
//	var buf compio.Buffer
//	loop.Post(func() {
//		compio.ReceiveUnit(op, queue, &buf, func(r compio.Range, err error) {
//			// runs on loop
//		})
//	})
package compio
