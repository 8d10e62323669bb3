// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"strconv"

	"code.hybscloud.com/kont"
)

// Loop runs a recursive session protocol (Cont-world).
// step returns Left(nextState) to continue or Right(result) to finish.
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if left, ok := e.GetLeft(); ok {
			return Loop(left, step)
		}
		right, _ := e.GetRight()
		return kont.Pure(right)
	})
}

// ExprLoop runs a recursive session protocol (Expr-world).
// step returns Left(nextState) to continue or Right(result) to finish.
// Fuses ExprBind inline to avoid the type-erasing wrapper closure.
func ExprLoop[S, A any](initial S, step func(S) kont.Expr[kont.Either[S, A]]) kont.Expr[A] {
	m := step(initial)
	if _, ok := m.Frame.(kont.ReturnFrame); ok {
		if left, ok := m.Value.GetLeft(); ok {
			return ExprLoop(left, step)
		}
		right, _ := m.Value.GetRight()
		return kont.ExprReturn(right)
	}
	bf := kont.AcquireBindFrame()
	bf.F = func(a kont.Erased) kont.Expr[kont.Erased] {
		e := a.(kont.Either[S, A])
		if left, ok := e.GetLeft(); ok {
			result := ExprLoop(left, step)
			return kont.Expr[kont.Erased]{Value: kont.Erased(result.Value), Frame: result.Frame}
		}
		right, _ := e.GetRight()
		return kont.Expr[kont.Erased]{Value: kont.Erased(right), Frame: kont.ReturnFrame{}}
	}
	bf.Next = kont.ReturnFrame{}
	var zero A
	return kont.Expr[A]{
		Value: zero,
		Frame: kont.ChainFrames(m.Frame, bf),
	}
}

// Reify converts a Cont-world session protocol to Expr-world.
// The resulting Expr can be evaluated with ExecExpr, RunExpr,
// or stepped with Step and Advance.
func Reify[A any](m kont.Eff[A]) kont.Expr[A] {
	return kont.Reify(m)
}

// Reflect converts an Expr-world session protocol to Cont-world.
// The resulting Eff can be evaluated with Exec or Run.
func Reflect[A any](m kont.Expr[A]) kont.Eff[A] {
	return kont.Reflect(m)
}

// Request sends req and returns the response. Requester side.
func Request(req string) kont.Eff[string] {
	return SendThen(req, RecvBind(kont.Pure[string]))
}

// Hangup sends the sentinel and finishes the session. Requester side.
func Hangup(sentinel string) kont.Eff[struct{}] {
	return SendThen(sentinel, CloseDone(struct{}{}))
}

// Length is the responder rule of the original programs: the decimal byte
// length of the request.
func Length(req string) string {
	return strconv.Itoa(len(req))
}

// Requests is the requester loop. It sends every payload produced by next
// and hands each response to onReply, until next yields the sentinel or
// reports that it is exhausted, in which case the sentinel is sent in its
// place. A payload is compared by its [Text], so "exit\x00..." ends the
// session like "exit". Returns the number of completed exchanges.
//
// next is called for the first time when the protocol is built.
func Requests(sentinel string, next func() (string, bool), onReply func(req, resp string)) kont.Eff[int] {
	return Loop(0, func(n int) kont.Eff[kont.Either[int, int]] {
		req, ok := next()
		if !ok || Text(req) == sentinel {
			return SendThen(sentinel, CloseDone(kont.Right[int, int](n)))
		}
		return SendThen(req, RecvBind(func(resp string) kont.Eff[kont.Either[int, int]] {
			if onReply != nil {
				onReply(req, resp)
			}
			return kont.Pure(kont.Left[int, int](n + 1))
		}))
	})
}

// Serve is the responder loop. It answers every request with handle until
// the sentinel arrives. Returns the number of completed exchanges.
func Serve(sentinel string, handle func(string) string) kont.Eff[int] {
	return Loop(0, func(n int) kont.Eff[kont.Either[int, int]] {
		return RecvBind(func(req string) kont.Eff[kont.Either[int, int]] {
			if req == sentinel {
				return CloseDone(kont.Right[int, int](n))
			}
			return SendThen(handle(req), kont.Pure(kont.Left[int, int](n+1)))
		})
	})
}

// ExprRequests is the Expr-world form of Requests.
func ExprRequests(sentinel string, next func() (string, bool), onReply func(req, resp string)) kont.Expr[int] {
	return ExprLoop(0, func(n int) kont.Expr[kont.Either[int, int]] {
		req, ok := next()
		if !ok || Text(req) == sentinel {
			return ExprSendThen(sentinel, ExprCloseDone(kont.Right[int, int](n)))
		}
		return ExprSendThen(req, ExprRecvBind(func(resp string) kont.Expr[kont.Either[int, int]] {
			if onReply != nil {
				onReply(req, resp)
			}
			return kont.ExprReturn(kont.Left[int, int](n + 1))
		}))
	})
}

// ExprServe is the Expr-world form of Serve.
func ExprServe(sentinel string, handle func(string) string) kont.Expr[int] {
	return ExprLoop(0, func(n int) kont.Expr[kont.Either[int, int]] {
		return ExprRecvBind(func(req string) kont.Expr[kont.Either[int, int]] {
			if req == sentinel {
				return ExprCloseDone(kont.Right[int, int](n))
			}
			return ExprSendThen(handle(req), kont.ExprReturn(kont.Left[int, int](n+1)))
		})
	})
}
