// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"errors"
	"fmt"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/kont"
)

// sessionContext holds the shared-memory transport of one endpoint.
// The region is mapped at open time by the baton creator, and lazily by
// the other side after its first successful wait.
type sessionContext struct {
	cfg      Config
	role     Role
	state    State
	baton    *Baton
	region   *Region
	buf      *Buffer
	nonblock bool
	creator  bool
	owner    bool
	closed   atomix.Uint32
}

// sessionDispatcher is the structural interface for session operations.
// With ctx.nonblock set, DispatchSession returns iox.ErrWouldBlock when
// it is not this endpoint's turn; otherwise it waits in the kernel.
type sessionDispatcher interface {
	DispatchSession(ctx *sessionContext) (kont.Resumed, error)
}

// dispatchBlocking dispatches sop, waiting in the kernel for the turn.
func dispatchBlocking(ctx *sessionContext, sop sessionDispatcher) (kont.Resumed, error) {
	ctx.nonblock = false
	return sop.DispatchSession(ctx)
}

// dispatchNonblocking dispatches sop without waiting.
func dispatchNonblocking(ctx *sessionContext, sop sessionDispatcher) (kont.Resumed, error) {
	ctx.nonblock = true
	return sop.DispatchSession(ctx)
}

// Endpoint is one side of the shared-memory channel.
// It is constructed once by Open, driven by a single goroutine and
// released by Close on every exit path.
type Endpoint struct {
	ctx    sessionContext
	serial Serial
}

// Open joins the session described by cfg in the given role.
//
// The first endpoint to create the baton also creates, sizes and clears
// the region before placing the first token, so the peer never observes
// an unsized or stale region.
func Open(cfg Config, role Role) (*Endpoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ep := &Endpoint{serial: nextSerial()}
	ep.ctx.cfg = cfg
	ep.ctx.role = role
	b, creator, err := CreateExclusiveFunc(cfg.Key, ep.ctx.prepare)
	if err != nil {
		return nil, err
	}
	ep.ctx.baton = b
	ep.ctx.creator = creator
	return ep, nil
}

// prepare runs on the baton creator before the first token is placed.
func (c *sessionContext) prepare() error {
	r, err := CreateOrAttach(c.cfg.Name, c.cfg.Capacity)
	if err != nil {
		return err
	}
	buf, err := r.Map(MapReadWrite)
	if err != nil {
		r.Close()
		if r.Creator() {
			Destroy(c.cfg.Name)
		}
		return err
	}
	buf.Clear()
	c.region, c.buf = r, buf
	return nil
}

// ensureMapped attaches the region after the first acquired turn.
func (c *sessionContext) ensureMapped() error {
	if c.buf != nil {
		return nil
	}
	r, err := Attach(c.cfg.Name, c.cfg.Capacity)
	if err != nil {
		return err
	}
	buf, err := r.Map(MapReadWrite)
	if err != nil {
		r.Close()
		return err
	}
	c.region, c.buf = r, buf
	return nil
}

// acquire takes the turn for p and makes sure the region is mapped.
func (c *sessionContext) acquire(p Phase) error {
	var err error
	if c.nonblock {
		err = c.baton.TryWaitFor(p)
	} else {
		err = c.baton.WaitFor(p, c.cfg.Timeout)
	}
	if err != nil {
		return err
	}
	return c.ensureMapped()
}

// expect checks that op is legal in the current state.
func (c *sessionContext) expect(op string, states ...State) error {
	if c.closed.Load() != 0 || c.state == StateDone {
		return ErrClosed
	}
	for _, s := range states {
		if c.state == s {
			return nil
		}
	}
	return &OpError{Op: op, Name: c.cfg.Name, Kind: ErrIllegalTransition, Err: fmt.Errorf("%v in state %v", c.role, c.state)}
}

// sendRequest: AwaitingTurn → WritingRequest → AwaitingResponse.
// After the sentinel the requester is Done and awaits nothing.
func (c *sessionContext) sendRequest(v string) error {
	if err := c.expect("send", StateIdle, StateAwaitingTurn); err != nil {
		return err
	}
	c.state = StateAwaitingTurn
	if err := c.acquire(PhaseReadyForRequest); err != nil {
		return err
	}
	c.state = StateWritingRequest
	n, err := c.buf.WriteText(v)
	if err != nil {
		return err
	}
	if err := c.baton.AdvanceTo(PhaseRequestPending); err != nil {
		return err
	}
	if v[:n] == c.cfg.Sentinel {
		c.state = StateDone
		return nil
	}
	c.state = StateAwaitingResponse
	return nil
}

// recvResponse: AwaitingResponse → ReadingResponse → Idle.
func (c *sessionContext) recvResponse() (string, error) {
	if err := c.expect("recv", StateAwaitingResponse); err != nil {
		return "", err
	}
	if err := c.acquire(PhaseReadyForResponse); err != nil {
		return "", err
	}
	c.state = StateReadingResponse
	s, err := c.buf.ReadText()
	if err != nil {
		return "", err
	}
	if err := c.baton.AdvanceTo(PhaseReadyForRequest); err != nil {
		return "", err
	}
	c.state = StateIdle
	return s, nil
}

// recvRequest: Idle → ReadingRequest → Computing, or Terminating on the
// sentinel. Observing the sentinel makes this endpoint the teardown owner.
func (c *sessionContext) recvRequest() (string, error) {
	if err := c.expect("recv", StateIdle); err != nil {
		return "", err
	}
	if err := c.acquire(PhaseRequestPending); err != nil {
		return "", err
	}
	c.state = StateReadingRequest
	s, err := c.buf.ReadText()
	if err != nil {
		return "", err
	}
	if s == c.cfg.Sentinel {
		c.state = StateTerminating
		c.owner = true
		return s, nil
	}
	c.state = StateComputing
	return s, nil
}

// sendResponse: Computing → WritingResponse → Idle.
func (c *sessionContext) sendResponse(v string) error {
	if err := c.expect("send", StateComputing); err != nil {
		return err
	}
	c.state = StateWritingResponse
	if _, err := c.buf.WriteText(v); err != nil {
		return err
	}
	if err := c.baton.AdvanceTo(PhaseReadyForResponse); err != nil {
		return err
	}
	c.state = StateIdle
	return nil
}

// release unmaps and closes local handles. The teardown owner also
// removes the baton and the region; ErrNotFound is benign there.
func (c *sessionContext) release() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil && !errors.Is(err, ErrNotFound) {
			firstErr = err
		}
	}
	if c.buf != nil {
		keep(c.buf.Unmap())
	}
	if c.region != nil {
		keep(c.region.Close())
	}
	if c.owner {
		if c.baton != nil {
			keep(c.baton.Destroy())
		}
		keep(Destroy(c.cfg.Name))
	}
	return firstErr
}

// Close releases the endpoint. Only an endpoint that observed the
// sentinel destroys the shared objects; the other side just detaches.
// Calling Close again is a no-op.
func (ep *Endpoint) Close() error {
	if ep.ctx.closed.Add(1) != 1 {
		return nil
	}
	return ep.ctx.release()
}

// Serial returns the serial number assigned to this endpoint by Open.
func (ep *Endpoint) Serial() Serial {
	return ep.serial
}

// Role returns the side this endpoint plays.
func (ep *Endpoint) Role() Role {
	return ep.ctx.role
}

// State returns the endpoint's position in its role's state machine.
func (ep *Endpoint) State() State {
	return ep.ctx.state
}

// Config returns the session configuration.
func (ep *Endpoint) Config() Config {
	return ep.ctx.cfg
}

// Creator reports whether this endpoint won the creation race.
func (ep *Endpoint) Creator() bool {
	return ep.ctx.creator
}

// Owner reports whether this endpoint observed the sentinel and will
// destroy the shared objects on Close.
func (ep *Endpoint) Owner() bool {
	return ep.ctx.owner
}

// Phase returns a snapshot of the baton; see [Baton.Phase].
func (ep *Endpoint) Phase() (Phase, bool, error) {
	return ep.ctx.baton.Phase()
}

// Remove deletes the baton and region named by cfg, ignoring objects
// that do not exist. It recovers from a session whose owner never ran
// teardown, and must not be used while endpoints are active.
func Remove(cfg Config) error {
	var errs []error
	if err := DestroyBaton(cfg.Key); err != nil && !errors.Is(err, ErrNotFound) {
		errs = append(errs, err)
	}
	if err := Destroy(cfg.Name); err != nil && !errors.Is(err, ErrNotFound) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
