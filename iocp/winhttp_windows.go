// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package iocp

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/compio"
	"code.hybscloud.com/iox"
	"golang.org/x/sys/windows"
)

const (
	winhttpFlagAsync          = 0x10000000
	winhttpAccessDefault      = 0
	winhttpInvalidCallback    = ^uintptr(0)
	winhttpCallbackFlags      = 0x007E0000 | 0x00000C00 // all completions and handles
	statusHandleClosing       = 0x00000800
	statusHeadersAvailable    = 0x00020000
	statusDataAvailable       = 0x00040000
	statusReadComplete        = 0x00080000
	statusWriteComplete       = 0x00100000
	statusRequestError        = 0x00200000
	statusSendRequestComplete = 0x00400000
)

var (
	modwinhttp                    = windows.NewLazySystemDLL("winhttp.dll")
	procWinHttpOpen               = modwinhttp.NewProc("WinHttpOpen")
	procWinHttpConnect            = modwinhttp.NewProc("WinHttpConnect")
	procWinHttpOpenRequest        = modwinhttp.NewProc("WinHttpOpenRequest")
	procWinHttpSetStatusCallback  = modwinhttp.NewProc("WinHttpSetStatusCallback")
	procWinHttpSendRequest        = modwinhttp.NewProc("WinHttpSendRequest")
	procWinHttpReceiveResponse    = modwinhttp.NewProc("WinHttpReceiveResponse")
	procWinHttpQueryDataAvailable = modwinhttp.NewProc("WinHttpQueryDataAvailable")
	procWinHttpReadData           = modwinhttp.NewProc("WinHttpReadData")
	procWinHttpCloseHandle        = modwinhttp.NewProc("WinHttpCloseHandle")
)

// asyncResult mirrors WINHTTP_ASYNC_RESULT.
type asyncResult struct {
	api   uintptr
	errno uint32
}

// The process-wide status callback. Every request handle is routed to
// its Request; the context word of each callback is the operation id.
var (
	callbackOnce sync.Once
	callbackPtr  uintptr
	routes       sync.Map // request handle -> *Request
)

func statusCallbackPtr() uintptr {
	callbackOnce.Do(func() {
		callbackPtr = windows.NewCallback(onStatus)
	})
	return callbackPtr
}

func onStatus(h, ctx uintptr, status uint32, info uintptr, infoLen uint32) uintptr {
	v, ok := routes.Load(h)
	if !ok {
		return 0
	}
	r := v.(*Request)
	id := compio.ID(ctx)

	var (
		st  compio.Status
		n   int
		err error
	)
	switch status {
	case statusHandleClosing:
		routes.Delete(h)
		return 0
	case statusSendRequestComplete:
		st = compio.StatusSendComplete
	case statusHeadersAvailable:
		st = compio.StatusHeadersAvailable
	case statusDataAvailable:
		st, n = compio.StatusDataAvailable, int(*(*uint32)(unsafe.Pointer(info)))
	case statusReadComplete:
		st, n = compio.StatusReadComplete, int(infoLen)
	case statusWriteComplete:
		st, n = compio.StatusWriteComplete, int(*(*uint32)(unsafe.Pointer(info)))
	case statusRequestError:
		res := (*asyncResult)(unsafe.Pointer(info))
		st, err = compio.StatusRequestError, syscall.Errno(res.errno)
	default:
		return 0
	}
	r.b.Notify(id, st, n, err)
	return 0
}

func winhttpCall(p *windows.LazyProc, args ...uintptr) (uintptr, error) {
	r, _, err := p.Call(args...)
	if r == 0 {
		if errors.Is(err, syscall.Errno(0)) {
			err = syscall.EINVAL
		}
		return 0, err
	}
	return r, nil
}

// Session is an asynchronous WinHTTP session. All requests opened from
// it notify through the bridge.
type Session struct {
	b      *compio.Bridge
	h      uintptr
	closed atomix.Uint32
}

// NewSession opens an asynchronous session identified by agent.
func NewSession(b *compio.Bridge, agent string) (*Session, error) {
	a, err := windows.UTF16PtrFromString(agent)
	if err != nil {
		return nil, err
	}
	h, err := winhttpCall(procWinHttpOpen,
		uintptr(unsafe.Pointer(a)), winhttpAccessDefault, 0, 0, winhttpFlagAsync)
	if err != nil {
		return nil, fmt.Errorf("iocp: winhttp open: %w", err)
	}
	prev, _, err := procWinHttpSetStatusCallback.Call(h, statusCallbackPtr(), winhttpCallbackFlags, 0)
	if prev == winhttpInvalidCallback {
		procWinHttpCloseHandle.Call(h)
		return nil, fmt.Errorf("iocp: winhttp status callback: %w", err)
	}
	return &Session{b: b, h: h}, nil
}

// Connect opens a connection handle to host:port.
func (s *Session) Connect(host string, port uint16) (*Connection, error) {
	hp, err := windows.UTF16PtrFromString(host)
	if err != nil {
		return nil, err
	}
	h, err := winhttpCall(procWinHttpConnect, s.h, uintptr(unsafe.Pointer(hp)), uintptr(port), 0)
	if err != nil {
		return nil, fmt.Errorf("iocp: winhttp connect %s: %w", host, err)
	}
	return &Connection{s: s, h: h}, nil
}

// Close closes the session handle.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(0, 1) {
		return nil
	}
	_, err := winhttpCall(procWinHttpCloseHandle, s.h)
	return err
}

// Connection is a WinHTTP connection handle.
type Connection struct {
	s      *Session
	h      uintptr
	closed atomix.Uint32
}

// OpenRequest opens a plain request for method and path.
func (c *Connection) OpenRequest(method, path string) (*Request, error) {
	m, err := windows.UTF16PtrFromString(method)
	if err != nil {
		return nil, err
	}
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	h, err := winhttpCall(procWinHttpOpenRequest, c.h,
		uintptr(unsafe.Pointer(m)), uintptr(unsafe.Pointer(p)), 0, 0, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("iocp: winhttp open request %s %s: %w", method, path, err)
	}
	r := &Request{b: c.s.b, h: h}
	routes.Store(h, r)
	return r, nil
}

// Close closes the connection handle.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(0, 1) {
		return nil
	}
	_, err := winhttpCall(procWinHttpCloseHandle, c.h)
	return err
}

// Request is a WinHTTP request handle. It implements compio.Request:
// every call returns iox.ErrWouldBlock once accepted and completes
// through the status callback.
type Request struct {
	b      *compio.Bridge
	h      uintptr
	buf    []byte
	closed atomix.Uint32
}

// Send sends the request without a body. The operation id becomes the
// context word of every later callback on this handle.
func (r *Request) Send(op *compio.Op) (int, error) {
	if _, err := winhttpCall(procWinHttpSendRequest, r.h, 0, 0, 0, 0, 0, uintptr(op.ID())); err != nil {
		return 0, err
	}
	return 0, iox.ErrWouldBlock
}

// ReceiveResponse waits for the response headers.
func (r *Request) ReceiveResponse(*compio.Op) (int, error) {
	if _, err := winhttpCall(procWinHttpReceiveResponse, r.h, 0); err != nil {
		return 0, err
	}
	return 0, iox.ErrWouldBlock
}

// QueryDataAvailable asks how many body bytes can be read now.
func (r *Request) QueryDataAvailable(*compio.Op) (int, error) {
	if _, err := winhttpCall(procWinHttpQueryDataAvailable, r.h, 0); err != nil {
		return 0, err
	}
	return 0, iox.ErrWouldBlock
}

// ReadData reads up to len(p) body bytes into p. p must stay untouched
// until the read completes.
func (r *Request) ReadData(_ *compio.Op, p []byte) (int, error) {
	r.buf = p
	if _, err := winhttpCall(procWinHttpReadData, r.h, bufPtr(p), uintptr(len(p)), 0); err != nil {
		r.buf = nil
		return 0, err
	}
	return 0, iox.ErrWouldBlock
}

// Close closes the request handle. A pending call completes as
// cancelled.
func (r *Request) Close() error {
	if !r.closed.CompareAndSwap(0, 1) {
		return nil
	}
	_, err := winhttpCall(procWinHttpCloseHandle, r.h)
	return err
}
