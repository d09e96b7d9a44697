// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio_test

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/compio"
	"code.hybscloud.com/compio/nativetest"
	"code.hybscloud.com/iox"
	"github.com/hashicorp/go-metrics"
)

// countingSink records counters by dotted key.
type countingSink struct {
	*metrics.BlackholeSink

	mu       sync.Mutex
	counters map[string]float32
}

func newCountingSink() *countingSink {
	return &countingSink{
		BlackholeSink: &metrics.BlackholeSink{},
		counters:      make(map[string]float32),
	}
}

func (s *countingSink) IncrCounterWithLabels(key []string, val float32, _ []metrics.Label) {
	s.mu.Lock()
	s.counters[strings.Join(key, ".")] += val
	s.mu.Unlock()
}

func (s *countingSink) get(key []string) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[strings.Join(key, ".")]
}

// fixture is a bridge, a loop owned by the test goroutine and a native
// fake completing into the bridge.
type fixture struct {
	b      *compio.Bridge
	loop   *compio.Loop
	native *nativetest.Native
	sink   *countingSink
}

func newFixture(tb testing.TB, opts ...compio.Option) *fixture {
	tb.Helper()
	sink := newCountingSink()
	opts = append([]compio.Option{
		compio.WithLog(slog.NewTextHandler(io.Discard, nil)),
		compio.WithMetricSink(sink),
	}, opts...)
	b, err := compio.NewBridge(opts...)
	if err != nil {
		tb.Fatalf("NewBridge: %v", err)
	}
	return &fixture{
		b:      b,
		loop:   compio.NewLoop(16),
		native: nativetest.New(b),
		sink:   sink,
	}
}

// drive drains the loop on the calling goroutine until done reports true.
// Backs off with iox.Backoff while native completions are in flight.
func drive(tb testing.TB, loop *compio.Loop, done func() bool) {
	tb.Helper()
	var bo iox.Backoff
	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		if loop.Drain() > 0 {
			bo.Reset()
			continue
		}
		if time.Now().After(deadline) {
			tb.Fatal("timed out waiting for completion")
		}
		bo.Wait()
	}
}
