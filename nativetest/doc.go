// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package nativetest provides scriptable fakes of the native contracts
// consumed by package compio: inline, pending, racing and held calls,
// a named pipe, an HTTP request queue, a vendor-callback HTTP request and
// a message-mode reader.
package nativetest
