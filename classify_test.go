// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"code.hybscloud.com/compio"
	"code.hybscloud.com/iox"
)

func TestDefaultClassify(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		err   error
		class compio.Class
		wantN int
		more  bool
	}{
		{"nil", 12, nil, compio.Success, 12, false},
		{"more", 512, iox.ErrMore, compio.Success, 512, true},
		{"peer connected", 0, compio.ErrPeerConnected, compio.Success, 0, false},
		{"eof", 5, io.EOF, compio.EOF, 5, false},
		{"wrapped eof", 0, fmt.Errorf("read: %w", io.EOF), compio.EOF, 0, false},
		{"more data", 0, &compio.MoreDataError{Required: 4096, Tag: 9}, compio.MoreData, 4096, false},
		{"cancelled", 0, compio.ErrCancelled, compio.Cancelled, 0, false},
		{"os closed", 0, os.ErrClosed, compio.Cancelled, 0, false},
		{"net closed", 0, net.ErrClosed, compio.Cancelled, 0, false},
		{"context", 0, context.Canceled, compio.Cancelled, 0, false},
		{"fatal", 0, syscall.Errno(5), compio.Fatal, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := compio.DefaultClassify(tt.n, tt.err)
			if c.Class != tt.class {
				t.Fatalf("class = %v, want %v", c.Class, tt.class)
			}
			if c.N != tt.wantN {
				t.Fatalf("N = %d, want %d", c.N, tt.wantN)
			}
			if c.More != tt.more {
				t.Fatalf("More = %v, want %v", c.More, tt.more)
			}
			if c.OK() != (tt.class == compio.Success || tt.class == compio.EOF) {
				t.Fatalf("OK = %v for %v", c.OK(), c.Class)
			}
			if c.OK() == (c.Err != nil) {
				t.Fatalf("Err = %v for %v", c.Err, c.Class)
			}
		})
	}
}

func TestClassifyMoreDataTag(t *testing.T) {
	c := compio.DefaultClassify(0, &compio.MoreDataError{Required: 2048, Tag: 77})
	if c.Tag != 77 {
		t.Fatalf("Tag = %d, want 77", c.Tag)
	}
	var md *compio.MoreDataError
	if !errors.As(c.Err, &md) || md.Required != 2048 {
		t.Fatalf("Err = %v, want the MoreDataError", c.Err)
	}
}

func TestClassifyCancelledWraps(t *testing.T) {
	c := compio.DefaultClassify(0, os.ErrClosed)
	if !compio.IsCancelled(c.Err) || !errors.Is(c.Err, os.ErrClosed) {
		t.Fatalf("err = %v, want ErrCancelled wrapping os.ErrClosed", c.Err)
	}
	if compio.IsFatal(c.Err) {
		t.Fatal("cancellation classified fatal")
	}
}

func TestClassifyFatalPreservesCode(t *testing.T) {
	c := compio.DefaultClassify(0, fmt.Errorf("connect: %w", syscall.Errno(1450)))
	var fe *compio.FatalError
	if !errors.As(c.Err, &fe) {
		t.Fatalf("err = %T, want *FatalError", c.Err)
	}
	if fe.Code != 1450 {
		t.Fatalf("Code = %d, want 1450", fe.Code)
	}
	if !errors.Is(c.Err, syscall.Errno(1450)) {
		t.Fatal("native errno not preserved in chain")
	}
	if compio.IsCancelled(c.Err) {
		t.Fatal("fatal classified cancelled")
	}
}

func TestClassString(t *testing.T) {
	for c, want := range map[compio.Class]string{
		compio.Success:   "success",
		compio.MoreData:  "more-data",
		compio.EOF:       "eof",
		compio.Cancelled: "cancelled",
		compio.Fatal:     "fatal",
		compio.Class(99): "unknown",
	} {
		if got := c.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", c, got, want)
		}
	}
}
