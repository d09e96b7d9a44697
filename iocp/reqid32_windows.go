// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows && (386 || arm)

package iocp

// requestIDArgs spreads a by-value HTTP_REQUEST_ID over call arguments,
// low word first.
func requestIDArgs(id uint64) []uintptr {
	return []uintptr{uintptr(uint32(id)), uintptr(uint32(id >> 32))}
}
