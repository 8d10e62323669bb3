// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"code.hybscloud.com/kont"
)

// Step evaluates a session protocol until the first effect suspension.
// Returns (result, nil) on completion, or (zero, suspension) if pending.
func Step[R any](protocol kont.Expr[R]) (R, *kont.Suspension[R]) {
	return kont.StepExpr(protocol)
}

// Advance dispatches the suspended session operation on the endpoint.
// DispatchSession is non-blocking here: it returns iox.ErrWouldBlock when
// the baton is not on this endpoint's phase.
//
// On success (nil error), the suspension is consumed and the protocol
// advances to the next effect or completion.
// On error, the suspension is unconsumed. After iox.ErrWouldBlock it may
// be retried once the peer makes progress; any other error is fatal to
// the session and the caller should Discard it.
func Advance[R any](ep *Endpoint, susp *kont.Suspension[R]) (R, *kont.Suspension[R], error) {
	sop, ok := susp.Op().(sessionDispatcher)
	if !ok {
		panic("shmsess: unhandled effect in Advance")
	}
	v, err := dispatchNonblocking(&ep.ctx, sop)
	if err != nil {
		var zero R
		return zero, susp, err
	}
	result, next := susp.Resume(v)
	return result, next, nil
}

// AdvanceWait is Advance with a kernel-blocking wait bounded by
// Config.Timeout. On ErrTimeout the suspension is unconsumed and the
// caller decides whether to wait again or abandon the session.
func AdvanceWait[R any](ep *Endpoint, susp *kont.Suspension[R]) (R, *kont.Suspension[R], error) {
	sop, ok := susp.Op().(sessionDispatcher)
	if !ok {
		panic("shmsess: unhandled effect in AdvanceWait")
	}
	v, err := dispatchBlocking(&ep.ctx, sop)
	if err != nil {
		var zero R
		return zero, susp, err
	}
	result, next := susp.Resume(v)
	return result, next, nil
}
