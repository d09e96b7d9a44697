// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iocp

import (
	"errors"
	"fmt"
	"syscall"

	"code.hybscloud.com/compio"
)

// Native status codes recognised by Classify.
const (
	errHandleEOF        = syscall.Errno(38)
	errBrokenPipe       = syscall.Errno(109)
	errSemTimeout       = syscall.Errno(121)
	errPipeBusy         = syscall.Errno(231)
	errMoreData         = syscall.Errno(234)
	errPipeConnected    = syscall.Errno(535)
	errOperationAborted = syscall.Errno(995)
	errIOPending        = syscall.Errno(997)
	errWinHTTPCancelled = syscall.Errno(12017)
)

// Classify maps Windows completion codes onto the compio taxonomy and
// defers everything else to compio.DefaultClassify.
//
// ERROR_HANDLE_EOF and ERROR_BROKEN_PIPE end a stream. ERROR_PIPE_CONNECTED
// is a connect that needs no wait. An aborted or WinHTTP-cancelled call
// is a cancellation.
func Classify(n int, err error) compio.Completion {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return compio.DefaultClassify(n, err)
	}
	switch errno {
	case errHandleEOF, errBrokenPipe:
		return compio.Completion{Class: compio.EOF, N: n}
	case errPipeConnected:
		return compio.Completion{Class: compio.Success}
	case errOperationAborted, errWinHTTPCancelled:
		return compio.Completion{
			Class: compio.Cancelled,
			Err:   fmt.Errorf("%w: %w", compio.ErrCancelled, err),
		}
	}
	return compio.DefaultClassify(n, err)
}

// Options prepends WithClassifier(Classify) to opts.
func Options(opts ...compio.Option) []compio.Option {
	return append([]compio.Option{compio.WithClassifier(Classify)}, opts...)
}
