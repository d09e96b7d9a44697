// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nativetest

import (
	"errors"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/compio"
)

// ErrNoListener is returned by Dial when no connect is waiting.
var ErrNoListener = errors.New("nativetest: no pending connect")

// Pipe is a fake named-pipe server implementing compio.PipeNative.
// Connects are scripted in order; once the script is exhausted every
// connect is held until Dial.
type Pipe struct {
	native *Native

	mu        sync.Mutex
	script    []Outcome
	created   []*Endpoint
	createErr error
	waiting   []*Endpoint
}

// NewPipe creates a pipe fake completing through n.
func NewPipe(n *Native) *Pipe {
	return &Pipe{native: n}
}

// Script appends connect outcomes.
func (p *Pipe) Script(o ...Outcome) {
	p.mu.Lock()
	p.script = append(p.script, o...)
	p.mu.Unlock()
}

// FailCreate makes the next Create fail with err.
func (p *Pipe) FailCreate(err error) {
	p.mu.Lock()
	p.createErr = err
	p.mu.Unlock()
}

// Create implements compio.PipeNative.
func (p *Pipe) Create(name string) (compio.Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.createErr; err != nil {
		p.createErr = nil
		return nil, err
	}
	ep := &Endpoint{Name: name, Index: len(p.created), pipe: p}
	p.created = append(p.created, ep)
	return ep, nil
}

// Connect implements compio.PipeNative.
func (p *Pipe) Connect(op *compio.Op, ep compio.Endpoint) (int, error) {
	e := ep.(*Endpoint)
	p.mu.Lock()
	o := Outcome{Mode: Hold}
	if len(p.script) > 0 {
		o = p.script[0]
		p.script = p.script[1:]
	}
	if o.Mode == Hold {
		e.pending = op.ID()
		p.waiting = append(p.waiting, e)
	}
	p.mu.Unlock()
	return p.native.Do(op, o)
}

// Dial attaches a client to the oldest waiting endpoint.
func (p *Pipe) Dial() error {
	p.mu.Lock()
	var e *Endpoint
	for len(p.waiting) > 0 && e == nil {
		if w := p.waiting[0]; !w.Closed() {
			e = w
		}
		p.waiting = p.waiting[1:]
	}
	p.mu.Unlock()
	if e == nil {
		return ErrNoListener
	}
	return p.native.ReleaseWith(e.pending, 0, nil)
}

// Created returns every endpoint created so far.
func (p *Pipe) Created() []*Endpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Endpoint(nil), p.created...)
}

// Endpoint is a fake pipe instance.
type Endpoint struct {
	Name  string
	Index int

	pipe    *Pipe
	pending compio.ID
	closes  atomix.Uint32
}

// Close cancels a held connect on the endpoint.
func (e *Endpoint) Close() error {
	if e.closes.Add(1) == 1 && e.pending != 0 {
		e.pipe.native.Cancel(e.pending)
	}
	return nil
}

// Closed reports whether Close was called.
func (e *Endpoint) Closed() bool { return e.closes.Load() != 0 }

// Closes returns how many times Close was called.
func (e *Endpoint) Closes() int { return int(e.closes.Load()) }
