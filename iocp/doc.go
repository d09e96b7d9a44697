// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package iocp binds the compio bridge to Windows completion ports and
// the single-callback WinHTTP API.
//
// A Port owns one I/O completion port and a small pool of worker
// goroutines. Every overlapped call issued through the port is pinned
// until its completion packet is dequeued; the worker then hands the
// raw result to compio.Bridge.Complete, which classifies it and posts
// the continuation to the operation's executor.
//
// Three native surfaces are provided on top of a Port:
//
//   - PipeServer and Pipe: message-mode named pipes, implementing
//     compio.PipeNative for the accept loop;
//   - Queue: an http.sys request queue, implementing
//     compio.UnitReceiver and compio.BodyReceiver;
//   - Session, Connection and Request: WinHTTP client handles whose
//     status callbacks are routed to compio.Bridge.Notify by operation id.
//
// Classify is portable so the error mapping can be tested anywhere. On
// other platforms the constructors return compio.ErrNotSupported.
package iocp
