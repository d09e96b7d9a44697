// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package compio

import (
	"code.hybscloud.com/kont"
)

// Await is the effect operation for one bridged native call.
// Perform(Await{Step: s, Call: c}) moves the operation to s, issues c
// and resumes with its Completion.
type Await struct {
	kont.Phantom[Completion]
	Step Step
	Call NativeCall
}

// AwaitBind issues call in step and passes its completion to f.
// Fuses Perform(Await{...}) + Bind.
func AwaitBind[B any](step Step, call NativeCall, f func(Completion) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Await{Step: step, Call: call}), f)
}

// Repeat runs a recursive protocol.
// step returns Left(nextState) to continue or Right(result) to finish.
func Repeat[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if left, ok := e.GetLeft(); ok {
			return Repeat(left, step)
		}
		right, _ := e.GetRight()
		return kont.Pure(right)
	})
}

// Go runs protocol on op, one Await at a time, and calls done with the
// result on op's executor. Each suspension is advanced from the
// continuation of the native call it issued, so no goroutine waits on
// an outstanding call.
func Go[R any](op *Op, protocol kont.Eff[R], done func(R)) {
	result, susp := kont.StepExpr(kont.Reify(protocol))
	advance(op, result, susp, done)
}

func advance[R any](op *Op, result R, susp *kont.Suspension[R], done func(R)) {
	if susp == nil {
		done(result)
		return
	}
	aw, ok := susp.Op().(Await)
	if !ok {
		panic("compio: unhandled effect in Go")
	}
	op.SetStep(aw.Step)
	op.Start(aw.Call, func(c Completion) {
		result, next := susp.Resume(c)
		advance(op, result, next, done)
	})
}
