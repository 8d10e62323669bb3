// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"errors"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"golang.org/x/sync/errgroup"
)

// openPair opens the requester first so it wins the creation race, then
// the responder.
func openPair(cfg Config) (*Endpoint, *Endpoint, error) {
	req, err := Open(cfg, RoleRequester)
	if err != nil {
		return nil, nil, err
	}
	resp, err := Open(cfg, RoleResponder)
	if err != nil {
		req.Close()
		Remove(cfg)
		return nil, nil, err
	}
	return req, resp, nil
}

// closePair closes both endpoints and reports the first failure.
func closePair(req, resp *Endpoint) error {
	err := req.Close()
	if err2 := resp.Close(); err == nil {
		err = err2
	}
	return err
}

// Run opens both roles of cfg in this process, runs both Cont-world
// protocols and returns both results. Interleaves execution of both sides
// on the calling goroutine using adaptive backoff (iox.Backoff) when
// neither side can make progress. Does not spawn goroutines.
func Run[A, B any](cfg Config, requester kont.Eff[A], responder kont.Eff[B]) (A, B, error) {
	return RunExpr(cfg, Reify(requester), Reify(responder))
}

// RunExpr is Run for Expr-world protocols. The first failure of either
// side ends both: the other suspension is discarded and the shared
// objects are removed.
func RunExpr[A, B any](cfg Config, requester kont.Expr[A], responder kont.Expr[B]) (A, B, error) {
	var (
		resultA A
		resultB B
	)
	epA, epB, err := openPair(cfg)
	if err != nil {
		return resultA, resultB, err
	}
	resultA, suspA := Step[A](requester)
	resultB, suspB := Step[B](responder)
	var bo iox.Backoff
	for suspA != nil || suspB != nil {
		progress := false
		if suspA != nil {
			resultA, suspA, err = Advance(epA, suspA)
			if err == nil {
				progress = true
			} else if !errors.Is(err, iox.ErrWouldBlock) {
				break
			}
		}
		if suspB != nil {
			resultB, suspB, err = Advance(epB, suspB)
			if err == nil {
				progress = true
			} else if !errors.Is(err, iox.ErrWouldBlock) {
				break
			}
		}
		err = nil
		if !progress {
			bo.Wait()
		} else {
			bo.Reset()
		}
	}
	if err != nil {
		if suspA != nil {
			suspA.Discard()
		}
		if suspB != nil {
			suspB.Discard()
		}
		var zeroA A
		var zeroB B
		closePair(epA, epB)
		Remove(cfg)
		return zeroA, zeroB, err
	}
	return resultA, resultB, closePair(epA, epB)
}

// RunConcurrent opens both roles of cfg and runs each protocol on its own
// goroutine with blocking Exec. A failing side removes the shared objects
// so that its peer wakes with ErrOrphanedWait; the first error is returned.
func RunConcurrent[A, B any](cfg Config, requester kont.Eff[A], responder kont.Eff[B]) (A, B, error) {
	var (
		resultA A
		resultB B
	)
	epA, epB, err := openPair(cfg)
	if err != nil {
		return resultA, resultB, err
	}
	var g errgroup.Group
	g.Go(func() error {
		r, err := Exec(epA, requester)
		if err != nil {
			Remove(cfg)
			return err
		}
		resultA = r
		return nil
	})
	g.Go(func() error {
		r, err := Exec(epB, responder)
		if err != nil {
			Remove(cfg)
			return err
		}
		resultB = r
		return nil
	})
	err = g.Wait()
	if err2 := closePair(epA, epB); err == nil {
		err = err2
	}
	return resultA, resultB, err
}
