// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package iocp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/compio"
	"golang.org/x/sys/windows"
)

const (
	httpInitializeServer = 1
	httpAPIVersion1      = 1 // HTTPAPI_VERSION{1, 0} passed by value

	// requestIDOffset is the offset of RequestId in HTTP_REQUEST.
	requestIDOffset = 16
)

var (
	modhttpapi                       = windows.NewLazySystemDLL("httpapi.dll")
	procHttpInitialize               = modhttpapi.NewProc("HttpInitialize")
	procHttpTerminate                = modhttpapi.NewProc("HttpTerminate")
	procHttpCreateHttpHandle         = modhttpapi.NewProc("HttpCreateHttpHandle")
	procHttpAddUrl                   = modhttpapi.NewProc("HttpAddUrl")
	procHttpRemoveUrl                = modhttpapi.NewProc("HttpRemoveUrl")
	procHttpReceiveHttpRequest       = modhttpapi.NewProc("HttpReceiveHttpRequest")
	procHttpReceiveRequestEntityBody = modhttpapi.NewProc("HttpReceiveRequestEntityBody")
)

// httpErr converts an http.sys return code.
func httpErr(r uintptr) error {
	if r == 0 {
		return nil
	}
	return syscall.Errno(r)
}

// Queue is an http.sys request queue bound to a port. It implements
// compio.UnitReceiver for request headers and compio.BodyReceiver for
// entity bodies.
//
// A request header block larger than the buffer completes with
// ERROR_MORE_DATA; the queue reports it as *compio.MoreDataError carrying
// the required size and the request id, so the retry receives the same
// request.
type Queue struct {
	port   *Port
	h      windows.Handle
	closed atomix.Uint32
}

// NewQueue initializes the server API and creates a request queue.
func NewQueue(port *Port) (*Queue, error) {
	r, _, _ := procHttpInitialize.Call(httpAPIVersion1, httpInitializeServer, 0)
	if err := httpErr(r); err != nil {
		return nil, fmt.Errorf("iocp: http initialize: %w", err)
	}
	var h windows.Handle
	r, _, _ = procHttpCreateHttpHandle.Call(uintptr(unsafe.Pointer(&h)), 0)
	if err := httpErr(r); err != nil {
		procHttpTerminate.Call(httpInitializeServer, 0)
		return nil, fmt.Errorf("iocp: create request queue: %w", err)
	}
	if err := port.Associate(h); err != nil {
		windows.CloseHandle(h)
		procHttpTerminate.Call(httpInitializeServer, 0)
		return nil, err
	}
	return &Queue{port: port, h: h}, nil
}

// AddURL registers a URL prefix such as "http://localhost:8080/".
func (q *Queue) AddURL(url string) error {
	u, err := windows.UTF16PtrFromString(url)
	if err != nil {
		return err
	}
	r, _, _ := procHttpAddUrl.Call(uintptr(q.h), uintptr(unsafe.Pointer(u)), 0)
	if err := httpErr(r); err != nil {
		return fmt.Errorf("iocp: add url %s: %w", url, err)
	}
	return nil
}

// RemoveURL unregisters a URL prefix.
func (q *Queue) RemoveURL(url string) error {
	u, err := windows.UTF16PtrFromString(url)
	if err != nil {
		return err
	}
	r, _, _ := procHttpRemoveUrl.Call(uintptr(q.h), uintptr(unsafe.Pointer(u)))
	if err := httpErr(r); err != nil {
		return fmt.Errorf("iocp: remove url %s: %w", url, err)
	}
	return nil
}

// ReceiveUnit receives one request header block into p. A zero tag
// takes the next request; a non-zero tag re-receives that request.
func (q *Queue) ReceiveUnit(op *compio.Op, tag uint64, p []byte) (int, error) {
	decode := func(qty uint32, err error) (int, error) {
		if errors.Is(err, errMoreData) {
			return 0, &compio.MoreDataError{Required: int(qty), Tag: requestID(p)}
		}
		return int(qty), err
	}
	return q.port.submit(op, p, false, decode, func(o *overlapped) error {
		r, _, _ := procHttpReceiveHttpRequest.Call(q.receiveArgs(tag, p, o)...)
		return httpErr(r)
	})
}

// ReceiveBody receives the next chunk of the entity body of request tag.
// The end of the body completes with ERROR_HANDLE_EOF.
func (q *Queue) ReceiveBody(op *compio.Op, tag uint64, p []byte) (int, error) {
	return q.port.submit(op, p, false, decodeRaw, func(o *overlapped) error {
		r, _, _ := procHttpReceiveRequestEntityBody.Call(q.receiveArgs(tag, p, o)...)
		return httpErr(r)
	})
}

// receiveArgs lays out (queue, id, flags, buffer, length, returned,
// overlapped). p stays reachable through o while the call is pending.
func (q *Queue) receiveArgs(tag uint64, p []byte, o *overlapped) []uintptr {
	args := append([]uintptr{uintptr(q.h)}, requestIDArgs(tag)...)
	return append(args,
		0,
		bufPtr(p), uintptr(len(p)),
		uintptr(unsafe.Pointer(&o.done)),
		uintptr(unsafe.Pointer(&o.ov)))
}

// Close cancels pending receives, closes the queue and releases the
// server API.
func (q *Queue) Close() error {
	if !q.closed.CompareAndSwap(0, 1) {
		return nil
	}
	_ = windows.CancelIoEx(q.h, nil)
	err := windows.CloseHandle(q.h)
	procHttpTerminate.Call(httpInitializeServer, 0)
	return err
}

// requestID reads HTTP_REQUEST.RequestId from a partially filled buffer.
func requestID(p []byte) uint64 {
	if len(p) < requestIDOffset+8 {
		return 0
	}
	return binary.LittleEndian.Uint64(p[requestIDOffset:])
}

func bufPtr(p []byte) uintptr {
	if len(p) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&p[0]))
}
