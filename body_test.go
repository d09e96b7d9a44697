// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"code.hybscloud.com/compio"
	"code.hybscloud.com/compio/nativetest"
)

func TestReceiveBodyUntilEOF(t *testing.T) {
	skipRace(t)

	f := newFixture(t, compio.WithChunkSize(8))
	q := nativetest.NewQueue(f.native, nativetest.Pending)
	q.PushBody([]byte("hello, "), []byte("chunked world"))

	var buf compio.Buffer
	op := f.b.NewOp(f.loop, compio.MachineBody)
	total, done := 0, false
	var err error
	compio.ReceiveBody(op, q, 31, &buf, func(n int, e error) {
		total, err, done = n, e, true
	})
	drive(t, f.loop, func() bool { return done })

	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if got := string(buf.Bytes()); got != "hello, chunked world" || total != len(got) {
		t.Fatalf("body = %q, total = %d", got, total)
	}
	for _, tag := range q.Tags() {
		if tag != 31 {
			t.Fatalf("tags = %v, want all 31", q.Tags())
		}
	}
	if op.Step() != compio.Done {
		t.Fatalf("step = %v", op.Step())
	}
}

func TestReceiveBodyCancelled(t *testing.T) {
	f := newFixture(t)
	q := nativetest.NewQueue(f.native, nativetest.Hold)
	q.PushBody([]byte("never"))

	var buf compio.Buffer
	op := f.b.NewOp(f.loop, compio.MachineBody)
	calls := 0
	var err error
	compio.ReceiveBody(op, q, 1, &buf, func(_ int, e error) {
		calls++
		err = e
	})
	q.Close()
	f.loop.Drain()
	if calls != 1 || !compio.IsCancelled(err) {
		t.Fatalf("calls = %d, err = %v", calls, err)
	}
}

func TestReceiveMessageSpansReads(t *testing.T) {
	for _, mode := range []nativetest.Mode{nativetest.Now, nativetest.Race} {
		t.Run(mode.String(), func(t *testing.T) {
			f := newFixture(t, compio.WithChunkSize(4))
			msg1 := []byte("first message")
			msg2 := []byte("ok")
			r := nativetest.NewReader(f.native, mode, msg1, msg2)

			var buf compio.Buffer
			op := f.b.NewOp(f.loop, compio.MachineMessage)

			var ranges []compio.Range
			var errs []error
			next := func(rg compio.Range, err error) {
				ranges = append(ranges, rg)
				errs = append(errs, err)
			}
			compio.ReceiveMessage(op, r.Call, &buf, next)
			drive(t, f.loop, func() bool { return len(ranges) == 1 })
			compio.ReceiveMessage(op, r.Call, &buf, next)
			drive(t, f.loop, func() bool { return len(ranges) == 2 })
			compio.ReceiveMessage(op, r.Call, &buf, next)
			drive(t, f.loop, func() bool { return len(ranges) == 3 })

			for i, err := range errs {
				if err != nil {
					t.Fatalf("message %d: %v", i, err)
				}
			}
			data := buf.Bytes()
			if got := data[ranges[0].Off : ranges[0].Off+ranges[0].Len]; !bytes.Equal(got, msg1) {
				t.Fatalf("first = %q", got)
			}
			if got := data[ranges[1].Off : ranges[1].Off+ranges[1].Len]; !bytes.Equal(got, msg2) {
				t.Fatalf("second = %q", got)
			}
			// End of stream at a message boundary is an empty success.
			if ranges[2].Len != 0 {
				t.Fatalf("third = %+v, want empty", ranges[2])
			}
		})
	}
}

func TestReceiveMessageFatal(t *testing.T) {
	f := newFixture(t)
	op := f.b.NewOp(f.loop, compio.MachineMessage)
	boom := errors.New("pipe gone")

	var buf compio.Buffer
	var got error
	compio.ReceiveMessage(op, func([]byte) compio.NativeCall {
		return f.native.Call(nativetest.Outcome{Mode: nativetest.Now, Err: boom})
	}, &buf, func(_ compio.Range, err error) { got = err })
	f.loop.Drain()
	if !compio.IsFatal(got) || !errors.Is(got, boom) {
		t.Fatalf("err = %v, want fatal wrapping cause", got)
	}
	if errors.Is(got, io.EOF) {
		t.Fatal("unexpected eof")
	}
}

func TestReceiveBodyMoreDataIsFatal(t *testing.T) {
	f := newFixture(t)
	op := f.b.NewOp(f.loop, compio.MachineBody)
	rx := bodyFunc(func(op *compio.Op, _ uint64, _ []byte) (int, error) {
		return f.native.Do(op, nativetest.Outcome{Mode: nativetest.Now, Err: &compio.MoreDataError{Required: 64}})
	})

	var buf compio.Buffer
	calls := 0
	var err error
	compio.ReceiveBody(op, rx, 1, &buf, func(_ int, e error) {
		calls++
		err = e
	})
	f.loop.Drain()
	if calls != 1 || !compio.IsFatal(err) {
		t.Fatalf("calls = %d, err = %v, want one fatal completion", calls, err)
	}
	var md *compio.MoreDataError
	if !errors.As(err, &md) || md.Required != 64 {
		t.Fatalf("err = %v, want wrapped MoreDataError", err)
	}
	if op.Step() != compio.Error {
		t.Fatalf("step = %v, want error", op.Step())
	}
}

func TestReceiveMessageMoreDataIsFatal(t *testing.T) {
	f := newFixture(t)
	op := f.b.NewOp(f.loop, compio.MachineMessage)

	var buf compio.Buffer
	var got error
	compio.ReceiveMessage(op, func([]byte) compio.NativeCall {
		return f.native.Call(nativetest.Outcome{Mode: nativetest.Race, Err: &compio.MoreDataError{Required: 64}})
	}, &buf, func(_ compio.Range, err error) { got = err })
	f.loop.Drain()
	if !compio.IsFatal(got) {
		t.Fatalf("err = %v, want fatal", got)
	}
}

type bodyFunc func(op *compio.Op, tag uint64, p []byte) (int, error)

func (f bodyFunc) ReceiveBody(op *compio.Op, tag uint64, p []byte) (int, error) {
	return f(op, tag, p)
}
