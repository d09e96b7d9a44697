// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package iocp

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/compio"
	"code.hybscloud.com/iox"
	"golang.org/x/sys/windows"
)

const (
	// DefaultPipeBuffer is the in and out buffer size of a new pipe instance.
	DefaultPipeBuffer = 512
	// DefaultDialTimeout bounds DialPipe while every instance is busy.
	DefaultDialTimeout = 5 * time.Second
)

var (
	modkernel32        = windows.NewLazySystemDLL("kernel32.dll")
	procWaitNamedPipeW = modkernel32.NewProc("WaitNamedPipeW")
)

// PipeServer creates message-mode named pipe instances on a port. It
// implements compio.PipeNative.
type PipeServer struct {
	port    *Port
	bufSize uint32
}

// NewPipeServer returns a pipe server whose instances complete on port.
func NewPipeServer(port *Port) *PipeServer {
	return &PipeServer{port: port, bufSize: DefaultPipeBuffer}
}

// Create makes a new server instance of the pipe called name, for
// example `\\.\pipe\compio`.
func (s *PipeServer) Create(name string) (compio.Endpoint, error) {
	path, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateNamedPipe(path,
		windows.PIPE_ACCESS_DUPLEX|windows.FILE_FLAG_OVERLAPPED,
		windows.PIPE_TYPE_MESSAGE|windows.PIPE_READMODE_MESSAGE,
		windows.PIPE_UNLIMITED_INSTANCES,
		s.bufSize, s.bufSize, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("iocp: create pipe %s: %w", name, err)
	}
	if err := s.port.Associate(h); err != nil {
		windows.CloseHandle(h)
		return nil, err
	}
	return &Pipe{port: s.port, h: h, name: name}, nil
}

// Connect waits for a client on ep. A client that opened the instance
// before the wait reports compio.ErrPeerConnected and queues no packet.
func (s *PipeServer) Connect(op *compio.Op, ep compio.Endpoint) (int, error) {
	pp, ok := ep.(*Pipe)
	if !ok {
		return 0, fmt.Errorf("iocp: foreign endpoint %T", ep)
	}
	return s.port.submit(op, nil, false, decodeConnect, func(o *overlapped) error {
		return windows.ConnectNamedPipe(pp.h, &o.ov)
	})
}

func decodeConnect(_ uint32, err error) (int, error) {
	if errors.Is(err, errPipeConnected) {
		return 0, compio.ErrPeerConnected
	}
	return 0, err
}

// decodeRead reports a partial message as iox.ErrMore.
func decodeRead(qty uint32, err error) (int, error) {
	if errors.Is(err, errMoreData) {
		return int(qty), iox.ErrMore
	}
	return int(qty), err
}

// Pipe is one end of a named pipe, either a server instance or a dialed
// client.
type Pipe struct {
	port   *Port
	h      windows.Handle
	name   string
	closed atomix.Uint32
}

// Name returns the pipe name.
func (p *Pipe) Name() string { return p.name }

// Handle returns the native handle.
func (p *Pipe) Handle() windows.Handle { return p.h }

// ReadCall returns a native call reading into buf. A message larger than
// buf is delivered in parts, each but the last reported with iox.ErrMore,
// so it can drive compio.ReceiveMessage directly.
func (p *Pipe) ReadCall(buf []byte) compio.NativeCall {
	return func(op *compio.Op) (int, error) {
		return p.port.submit(op, buf, true, decodeRead, func(o *overlapped) error {
			return windows.ReadFile(p.h, buf, &o.done, &o.ov)
		})
	}
}

// WriteCall returns a native call writing buf as one message.
func (p *Pipe) WriteCall(buf []byte) compio.NativeCall {
	return func(op *compio.Op) (int, error) {
		return p.port.submit(op, buf, false, decodeRaw, func(o *overlapped) error {
			return windows.WriteFile(p.h, buf, &o.done, &o.ov)
		})
	}
}

// Disconnect flushes and disconnects a server instance so it can be
// reused by another client.
func (p *Pipe) Disconnect() error {
	if err := windows.FlushFileBuffers(p.h); err != nil {
		return fmt.Errorf("iocp: flush %s: %w", p.name, err)
	}
	return windows.DisconnectNamedPipe(p.h)
}

// Close cancels any pending call, which then completes as cancelled,
// and closes the handle. Close is idempotent.
func (p *Pipe) Close() error {
	if !p.closed.CompareAndSwap(0, 1) {
		return nil
	}
	_ = windows.CancelIoEx(p.h, nil)
	return windows.CloseHandle(p.h)
}

// DialPipe opens the client end of name, waiting up to timeout while
// every server instance is busy. The returned pipe reads in message mode.
func DialPipe(port *Port, name string, timeout time.Duration) (*Pipe, error) {
	path, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	deadline := time.Now().Add(timeout)

	var h windows.Handle
	for {
		h, err = windows.CreateFile(path,
			windows.GENERIC_READ|windows.GENERIC_WRITE, 0, nil,
			windows.OPEN_EXISTING, windows.FILE_FLAG_OVERLAPPED, 0)
		if err == nil {
			break
		}
		if !errors.Is(err, errPipeBusy) {
			return nil, fmt.Errorf("iocp: dial %s: %w", name, err)
		}
		left := time.Until(deadline)
		if left <= 0 {
			return nil, fmt.Errorf("iocp: dial %s: %w", name, errSemTimeout)
		}
		if err := waitNamedPipe(path, uint32(left.Milliseconds())); err != nil && !errors.Is(err, errSemTimeout) {
			return nil, fmt.Errorf("iocp: wait %s: %w", name, err)
		}
	}

	mode := uint32(windows.PIPE_READMODE_MESSAGE)
	if err := windows.SetNamedPipeHandleState(h, &mode, nil, nil); err != nil {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("iocp: message mode %s: %w", name, err)
	}
	if err := port.Associate(h); err != nil {
		windows.CloseHandle(h)
		return nil, err
	}
	return &Pipe{port: port, h: h, name: name}, nil
}

func waitNamedPipe(name *uint16, ms uint32) error {
	r, _, err := procWaitNamedPipeW.Call(uintptr(unsafe.Pointer(name)), uintptr(ms))
	if r == 0 {
		return err
	}
	return nil
}
