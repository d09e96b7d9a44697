// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio_test

import (
	"errors"
	"sync"
	"testing"

	"code.hybscloud.com/compio"
)

func TestSignalArmThenFire(t *testing.T) {
	loop := compio.NewLoop(4)
	s := compio.NewSignal(loop)

	var got []compio.Completion
	if err := s.Arm(func(c compio.Completion) { got = append(got, c) }); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if err := s.Fire(compio.Completion{Class: compio.Success, N: 7}); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if len(got) != 0 {
		t.Fatal("continuation ran inline, want posted")
	}
	loop.Drain()
	if len(got) != 1 || got[0].N != 7 {
		t.Fatalf("got %+v, want one completion with N=7", got)
	}
}

func TestSignalFireThenArm(t *testing.T) {
	loop := compio.NewLoop(4)
	s := compio.NewSignal(loop)

	if err := s.Fire(compio.Completion{Class: compio.EOF, N: 3}); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if !s.Fired() || s.Armed() {
		t.Fatalf("fired=%v armed=%v, want fired and not armed", s.Fired(), s.Armed())
	}
	calls := 0
	if err := s.Arm(func(c compio.Completion) {
		calls++
		if c.Class != compio.EOF || c.N != 3 {
			t.Errorf("got %+v", c)
		}
	}); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	loop.Drain()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestSignalFireTwice(t *testing.T) {
	s := compio.NewSignal(compio.NewLoop(4))
	if err := s.Fire(compio.Completion{}); err != nil {
		t.Fatalf("first Fire: %v", err)
	}
	if err := s.Fire(compio.Completion{}); !errors.Is(err, compio.ErrSignalFired) {
		t.Fatalf("second Fire = %v, want ErrSignalFired", err)
	}
	s.Reset()
	if err := s.Fire(compio.Completion{}); err != nil {
		t.Fatalf("Fire after Reset: %v", err)
	}
}

func TestSignalArmTwice(t *testing.T) {
	s := compio.NewSignal(compio.NewLoop(4))
	nop := func(compio.Completion) {}
	if err := s.Arm(nop); err != nil {
		t.Fatalf("first Arm: %v", err)
	}
	if err := s.Arm(nop); !errors.Is(err, compio.ErrAlreadyArmed) {
		t.Fatalf("second Arm = %v, want ErrAlreadyArmed", err)
	}
}

func TestSignalClosedExecutor(t *testing.T) {
	loop := compio.NewLoop(4)
	loop.Close()
	s := compio.NewSignal(loop)

	var got []compio.Completion
	s.Arm(func(c compio.Completion) { got = append(got, c) })
	s.Fire(compio.Completion{Class: compio.Success})
	if len(got) != 1 {
		t.Fatalf("calls = %d, want 1 inline call", len(got))
	}
	if got[0].Class != compio.Cancelled {
		t.Fatalf("class = %v, want cancelled", got[0].Class)
	}
	if !errors.Is(got[0].Err, compio.ErrLoopClosed) || !compio.IsCancelled(got[0].Err) {
		t.Fatalf("err = %v, want cancelled wrapping ErrLoopClosed", got[0].Err)
	}
}

// TestSignalRace arms and fires from two goroutines; the continuation
// must run exactly once whichever side wins.
func TestSignalRace(t *testing.T) {
	skipRace(t)
	const rounds = 2000
	var mu sync.Mutex
	fired := 0
	exec := compio.ExecutorFunc(func(fn func()) error {
		fn()
		return nil
	})
	for range rounds {
		s := compio.NewSignal(exec)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Arm(func(compio.Completion) {
				mu.Lock()
				fired++
				mu.Unlock()
			})
		}()
		go func() {
			defer wg.Done()
			s.Fire(compio.Completion{Class: compio.Success})
		}()
		wg.Wait()
	}
	if fired != rounds {
		t.Fatalf("fired = %d, want %d", fired, rounds)
	}
}
