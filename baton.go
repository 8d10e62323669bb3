// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmsess

import (
	"fmt"
	"hash/fnv"
)

// Key identifies a baton in the kernel IPC namespace.
// Both endpoints must derive the same Key or they cannot synchronize.
type Key int32

// SeedKey derives a Key from a seed string and a project id, the way
// ftok combines a path and an id, but without requiring the seed to name
// an existing file. The result is never IPC_PRIVATE.
func SeedKey(seed string, id byte) Key {
	h := fnv.New32a()
	h.Write([]byte(seed))
	k := Key(int32(h.Sum32()&0x00ffffff | uint32(id)<<24))
	if k == 0 {
		k = 1
	}
	return k
}

func (k Key) String() string {
	return fmt.Sprintf("key 0x%08x", uint32(k))
}

// Baton is a handle on the phase semaphore set shared by both endpoints.
//
// The set holds one semaphore per posted phase and at most one token in
// total: the current phase is the slot that holds it. WaitFor takes the
// token, AdvanceTo hands it to the successor phase. A handle must be used
// by one goroutine at a time.
type Baton struct {
	key     Key
	id      int
	held    Phase
	holding bool
}

// Key returns the IPC key of the baton.
func (b *Baton) Key() Key {
	return b.key
}

// Held returns the phase whose token this handle currently holds.
func (b *Baton) Held() (Phase, bool) {
	return b.held, b.holding
}

func (b *Baton) illegal(op string, err error) error {
	return &OpError{Op: op, Name: b.key.String(), Kind: ErrIllegalTransition, Err: err}
}

// checkAdvance validates a hand-off against the phase enumeration.
func (b *Baton) checkAdvance(p Phase) error {
	if !p.posted() {
		return b.illegal("advance", fmt.Errorf("%v is never posted", p))
	}
	if !b.holding {
		return b.illegal("advance", fmt.Errorf("to %v without holding the baton", p))
	}
	if b.held.Next() != p {
		return b.illegal("advance", fmt.Errorf("%v -> %v", b.held, p))
	}
	return nil
}

// checkWait rejects waits that cannot be satisfied by the protocol.
func (b *Baton) checkWait(p Phase) error {
	if !p.posted() {
		return b.illegal("wait", fmt.Errorf("%v is never posted", p))
	}
	if b.holding {
		return b.illegal("wait", fmt.Errorf("for %v while holding %v", p, b.held))
	}
	return nil
}
