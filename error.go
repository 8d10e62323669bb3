// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"errors"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// errorDispatcher is the structural interface of kont error operations.
type errorDispatcher interface {
	DispatchError(ctx *kont.ErrorContext[error]) (kont.Resumed, bool)
}

// sessionErrorHandler handles both session and error effects.
// Session ops wait in the kernel; a failing session op aborts with Left
// just like a thrown error does.
// Value type: passed to evalFrames on the stack, avoiding heap allocation.
type sessionErrorHandler[A any] struct {
	ctx    *sessionContext
	errCtx *kont.ErrorContext[error]
}

// Dispatch implements kont.Handler for the composed Session+Error handler.
// Dispatch order: Session → Error.
func (h sessionErrorHandler[A]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	if sop, ok := op.(sessionDispatcher); ok {
		v, err := dispatchBlocking(h.ctx, sop)
		if err != nil {
			return kont.Left[error, A](err), false
		}
		return v, true
	}
	if eop, ok := op.(errorDispatcher); ok {
		v, _ := eop.DispatchError(h.errCtx)
		if h.errCtx.HasErr {
			return kont.Left[error, A](h.errCtx.Err), false
		}
		return v, true
	}
	panic("shmsess: unhandled effect in sessionErrorHandler")
}

// ExecError runs a session protocol with error handling on an open endpoint.
// Returns Right on success and Left on Throw or on the first failing
// session operation.
func ExecError[R any](ep *Endpoint, protocol kont.Eff[R]) kont.Either[error, R] {
	wrapped := kont.Map[kont.Resumed, R, kont.Either[error, R]](protocol, func(r R) kont.Either[error, R] {
		return kont.Right[error, R](r)
	})
	var errCtx kont.ErrorContext[error]
	h := sessionErrorHandler[R]{ctx: &ep.ctx, errCtx: &errCtx}
	return kont.Handle(wrapped, h)
}

// ExecErrorExpr runs an Expr session protocol with error handling on an
// open endpoint. Returns Right on success, Left on Throw or failure.
func ExecErrorExpr[R any](ep *Endpoint, protocol kont.Expr[R]) kont.Either[error, R] {
	wrapped := kont.ExprMap(protocol, func(r R) kont.Either[error, R] {
		return kont.Right[error, R](r)
	})
	var errCtx kont.ErrorContext[error]
	h := sessionErrorHandler[R]{ctx: &ep.ctx, errCtx: &errCtx}
	return kont.HandleExpr(wrapped, h)
}

// RunError opens both roles of cfg, runs both Cont-world protocols with
// error handling and returns both results as Either values. Interleaves
// execution on the calling goroutine using adaptive backoff (iox.Backoff).
func RunError[A, B any](cfg Config, requester kont.Eff[A], responder kont.Eff[B]) (kont.Either[error, A], kont.Either[error, B]) {
	return RunErrorExpr(cfg, Reify(requester), Reify(responder))
}

// RunErrorExpr is RunError for Expr-world protocols.
// When one side fails, the shared objects are removed so the other side
// ends with ErrOrphanedWait instead of waiting forever.
func RunErrorExpr[A, B any](cfg Config, requester kont.Expr[A], responder kont.Expr[B]) (kont.Either[error, A], kont.Either[error, B]) {
	epA, epB, err := openPair(cfg)
	if err != nil {
		return kont.Left[error, A](err), kont.Left[error, B](err)
	}
	resultA, suspA := StepError[A](requester)
	resultB, suspB := StepError[B](responder)
	var bo iox.Backoff
	aborted := false
	for suspA != nil || suspB != nil {
		progress := false
		if suspA != nil {
			var err error
			resultA, suspA, err = AdvanceError(epA, suspA)
			if err == nil {
				progress = true
			}
		}
		if suspB != nil {
			var err error
			resultB, suspB, err = AdvanceError(epB, suspB)
			if err == nil {
				progress = true
			}
		}
		if !aborted && ((suspA == nil && resultA.IsLeft()) || (suspB == nil && resultB.IsLeft())) {
			Remove(cfg)
			aborted = true
		}
		if !progress {
			bo.Wait()
		} else {
			bo.Reset()
		}
	}
	if err := closePair(epA, epB); err != nil {
		if resultA.IsRight() {
			resultA = kont.Left[error, A](err)
		}
		if resultB.IsRight() {
			resultB = kont.Left[error, B](err)
		}
	}
	return resultA, resultB
}

// StepError evaluates a session protocol with error support until the first
// effect suspension. Returns (Either[error, R], nil) on completion or error,
// or (zero, suspension) if pending.
func StepError[R any](protocol kont.Expr[R]) (kont.Either[error, R], *kont.Suspension[kont.Either[error, R]]) {
	wrapped := kont.ExprMap(protocol, func(r R) kont.Either[error, R] {
		return kont.Right[error, R](r)
	})
	return kont.StepExpr(wrapped)
}

// AdvanceError dispatches the suspended operation on the endpoint.
// Session ops are non-blocking: iox.ErrWouldBlock leaves the suspension
// unconsumed. Any other session failure, like Throw, discards the
// suspension and returns Left.
func AdvanceError[R any](ep *Endpoint, susp *kont.Suspension[kont.Either[error, R]]) (kont.Either[error, R], *kont.Suspension[kont.Either[error, R]], error) {
	// Session ops: non-blocking dispatch
	if sop, ok := susp.Op().(sessionDispatcher); ok {
		v, err := dispatchNonblocking(&ep.ctx, sop)
		if errors.Is(err, iox.ErrWouldBlock) {
			var zero kont.Either[error, R]
			return zero, susp, err
		}
		if err != nil {
			susp.Discard()
			return kont.Left[error, R](err), nil, nil
		}
		result, next := susp.Resume(v)
		return result, next, nil
	}
	// Error ops: eager dispatch
	if eop, ok := susp.Op().(errorDispatcher); ok {
		var ctx kont.ErrorContext[error]
		v, _ := eop.DispatchError(&ctx)
		if ctx.HasErr {
			susp.Discard()
			return kont.Left[error, R](ctx.Err), nil, nil
		}
		result, next := susp.Resume(v)
		return result, next, nil
	}
	panic("shmsess: unhandled effect in AdvanceError")
}
