// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nativetest

import (
	"io"
	"sync"

	"code.hybscloud.com/compio"
	"code.hybscloud.com/iox"
)

// Reader is a fake message-mode stream. Each message is delivered across
// as many reads as the prepared regions require; a read that leaves part
// of the message behind reports iox.ErrMore. After the last message reads
// report io.EOF.
type Reader struct {
	native *Native
	Mode   Mode

	mu       sync.Mutex
	messages [][]byte
}

// NewReader creates a reader of messages completing through n in mode.
func NewReader(n *Native, mode Mode, messages ...[]byte) *Reader {
	return &Reader{native: n, Mode: mode, messages: messages}
}

// Call binds a read into p; it is the call argument of compio.ReceiveMessage.
func (r *Reader) Call(p []byte) compio.NativeCall {
	return func(op *compio.Op) (int, error) {
		r.mu.Lock()
		if len(r.messages) == 0 {
			r.mu.Unlock()
			return r.native.Do(op, Outcome{Mode: r.Mode, Err: io.EOF})
		}
		msg := r.messages[0]
		n := copy(p, msg)
		var err error
		if n < len(msg) {
			r.messages[0] = msg[n:]
			err = iox.ErrMore
		} else {
			r.messages = r.messages[1:]
		}
		r.mu.Unlock()
		return r.native.Do(op, Outcome{Mode: r.Mode, N: n, Err: err})
	}
}
