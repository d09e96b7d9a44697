// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !windows

package iocp

import (
	"time"

	"code.hybscloud.com/compio"
)

const (
	DefaultPipeBuffer  = 512
	DefaultDialTimeout = 5 * time.Second
)

// Port is unavailable on this platform.
type Port struct{ b *compio.Bridge }

func NewPort(*compio.Bridge, int) (*Port, error) { return nil, compio.ErrNotSupported }

func (p *Port) Bridge() *compio.Bridge { return p.b }
func (p *Port) Pending() int           { return 0 }
func (p *Port) Close() error           { return nil }

type PipeServer struct{}

func NewPipeServer(*Port) *PipeServer { return &PipeServer{} }

func (s *PipeServer) Create(string) (compio.Endpoint, error) { return nil, compio.ErrNotSupported }
func (s *PipeServer) Connect(*compio.Op, compio.Endpoint) (int, error) {
	return 0, compio.ErrNotSupported
}

type Pipe struct{ name string }

func DialPipe(*Port, string, time.Duration) (*Pipe, error) { return nil, compio.ErrNotSupported }

func (p *Pipe) Name() string                       { return p.name }
func (p *Pipe) ReadCall([]byte) compio.NativeCall  { return unsupported }
func (p *Pipe) WriteCall([]byte) compio.NativeCall { return unsupported }
func (p *Pipe) Disconnect() error                  { return compio.ErrNotSupported }
func (p *Pipe) Close() error                       { return nil }

type Queue struct{}

func NewQueue(*Port) (*Queue, error) { return nil, compio.ErrNotSupported }

func (q *Queue) AddURL(string) error    { return compio.ErrNotSupported }
func (q *Queue) RemoveURL(string) error { return compio.ErrNotSupported }
func (q *Queue) ReceiveUnit(*compio.Op, uint64, []byte) (int, error) {
	return 0, compio.ErrNotSupported
}
func (q *Queue) ReceiveBody(*compio.Op, uint64, []byte) (int, error) {
	return 0, compio.ErrNotSupported
}
func (q *Queue) Close() error { return nil }

type Session struct{}

func NewSession(*compio.Bridge, string) (*Session, error) { return nil, compio.ErrNotSupported }

func (s *Session) Connect(string, uint16) (*Connection, error) { return nil, compio.ErrNotSupported }
func (s *Session) Close() error                                { return nil }

type Connection struct{}

func (c *Connection) OpenRequest(string, string) (*Request, error) {
	return nil, compio.ErrNotSupported
}
func (c *Connection) Close() error { return nil }

type Request struct{}

func (r *Request) Send(*compio.Op) (int, error)               { return unsupported(nil) }
func (r *Request) ReceiveResponse(*compio.Op) (int, error)    { return unsupported(nil) }
func (r *Request) QueryDataAvailable(*compio.Op) (int, error) { return unsupported(nil) }
func (r *Request) ReadData(*compio.Op, []byte) (int, error)   { return unsupported(nil) }
func (r *Request) Close() error                               { return nil }

func unsupported(*compio.Op) (int, error) { return 0, compio.ErrNotSupported }
