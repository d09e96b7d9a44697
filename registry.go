// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import "sync"

// registry pins operations with an outstanding native call. The pin is
// the ownership handed to the native side: the Op stays reachable under
// its ID until the completion has been delivered on the owning context.
type registry struct {
	mu  sync.Mutex
	ops map[ID]*Op
}

func (r *registry) pin(op *Op) {
	r.mu.Lock()
	if r.ops == nil {
		r.ops = make(map[ID]*Op)
	}
	r.ops[op.id] = op
	r.mu.Unlock()
}

func (r *registry) unpin(id ID) {
	r.mu.Lock()
	delete(r.ops, id)
	r.mu.Unlock()
}

func (r *registry) lookup(id ID) (*Op, bool) {
	r.mu.Lock()
	op, ok := r.ops[id]
	r.mu.Unlock()
	return op, ok
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ops)
}
