// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/compio"
	"github.com/hashicorp/go-metrics"
)

func TestNewBridgeInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  compio.Option
	}{
		{"nil classifier", compio.WithClassifier(nil)},
		{"max below initial", compio.WithUnitSize(4096, 1024)},
		{"negative unit", compio.WithUnitSize(-1, 1024)},
		{"negative chunk", compio.WithChunkSize(-8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := compio.NewBridge(tt.opt); !errors.Is(err, compio.ErrInvalidCfg) {
				t.Fatalf("err = %v, want ErrInvalidCfg", err)
			}
		})
	}
}

func TestNewBridgeDefaults(t *testing.T) {
	b, err := compio.NewBridge(
		compio.WithMetricSink(nil),
		compio.WithMetricLabels([]metrics.Label{{Name: "node", Value: "a"}}),
		compio.WithUnitSize(0, 0),
		compio.WithChunkSize(0),
	)
	if err != nil {
		t.Fatalf("NewBridge: %v", err)
	}
	if b.Logger() == nil {
		t.Fatal("nil logger")
	}
}

func TestWithClassifier(t *testing.T) {
	f := newFixture(t, compio.WithClassifier(func(n int, err error) compio.Completion {
		if err != nil {
			return compio.Completion{Class: compio.EOF, N: n}
		}
		return compio.DefaultClassify(n, err)
	}))
	op := f.b.NewOp(f.loop, compio.MachineGeneric)
	var got compio.Completion
	op.Start(func(*compio.Op) (int, error) { return 4, errors.New("native eof") }, func(c compio.Completion) { got = c })
	f.loop.Drain()
	if got.Class != compio.EOF || got.N != 4 {
		t.Fatalf("got %+v, want eof/4", got)
	}
}

// TestClassifierWithoutErrorIsSettled: a classifier that fails a call
// without an error still hands the continuation a non-nil one.
func TestClassifierWithoutErrorIsSettled(t *testing.T) {
	for _, class := range []compio.Class{compio.MoreData, compio.Cancelled, compio.Fatal} {
		t.Run(class.String(), func(t *testing.T) {
			f := newFixture(t, compio.WithClassifier(func(n int, _ error) compio.Completion {
				return compio.Completion{Class: class, N: n}
			}))
			op := f.b.NewOp(f.loop, compio.MachineGeneric)
			var got compio.Completion
			op.Start(func(*compio.Op) (int, error) { return 8, errors.New("native") }, func(c compio.Completion) { got = c })
			f.loop.Drain()
			if got.Class != class || got.Err == nil {
				t.Fatalf("got %+v, want %v with an error", got, class)
			}
			switch class {
			case compio.MoreData:
				var md *compio.MoreDataError
				if !errors.As(got.Err, &md) || md.Required != 8 {
					t.Fatalf("err = %v, want MoreDataError{8}", got.Err)
				}
			case compio.Cancelled:
				if !compio.IsCancelled(got.Err) {
					t.Fatalf("err = %v, want cancelled", got.Err)
				}
			case compio.Fatal:
				if !compio.IsFatal(got.Err) {
					t.Fatalf("err = %v, want fatal", got.Err)
				}
			}
		})
	}
}
