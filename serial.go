// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import "code.hybscloud.com/atomix"

// ID identifies one operation context for the lifetime of the process.
// It is the value native layers carry across the async boundary in place
// of a pointer (completion key, overlapped record, vendor context word).
// Zero is never assigned.
type ID = uint64

// counter is the global monotonic counter for operation IDs.
var counter atomix.Uint64

// nextID returns the next monotonically increasing operation ID.
func nextID() ID {
	return counter.Add(1)
}
