// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux && (amd64 || arm64)

package shmsess

import (
	"errors"
	"fmt"
	"os"
	"time"
	"unsafe"

	"code.hybscloud.com/iox"
	"golang.org/x/sys/unix"
)

// semctl commands not exported by x/sys/unix.
const (
	semGETALL = 13
	semSETVAL = 16
)

const batonPerm = 0o666

// sembuf mirrors struct sembuf: three shorts, no padding.
type sembuf struct {
	num uint16
	op  int16
	flg int16
}

func semget(key Key, nsems, flag int) (int, error) {
	id, _, e := unix.Syscall(unix.SYS_SEMGET, uintptr(key), uintptr(nsems), uintptr(flag))
	if e != 0 {
		return -1, e
	}
	return int(id), nil
}

func semctl(id, num, cmd int, arg uintptr) (int, error) {
	r, _, e := unix.Syscall6(unix.SYS_SEMCTL, uintptr(id), uintptr(num), uintptr(cmd), arg, 0, 0)
	if e != 0 {
		return -1, e
	}
	return int(r), nil
}

// semctlPtr passes arg as a pointer so the runtime keeps it valid.
func semctlPtr(id, num, cmd int, arg unsafe.Pointer) error {
	_, _, e := unix.Syscall6(unix.SYS_SEMCTL, uintptr(id), uintptr(num), uintptr(cmd), uintptr(arg), 0, 0)
	if e != 0 {
		return e
	}
	return nil
}

// semtimedop blocks in the kernel; a nil timeout waits forever.
func semtimedop(id int, ops []sembuf, timeout *unix.Timespec) error {
	_, _, e := unix.Syscall6(unix.SYS_SEMTIMEDOP, uintptr(id), uintptr(unsafe.Pointer(&ops[0])), uintptr(len(ops)), uintptr(unsafe.Pointer(timeout)), 0, 0)
	if e != 0 {
		return e
	}
	return nil
}

// CreateExclusive creates the baton for key, or attaches to it when it
// already exists. Only the creator initializes the set, placing the
// token on PhaseReadyForRequest.
func CreateExclusive(key Key) (*Baton, bool, error) {
	return CreateExclusiveFunc(key, nil)
}

// CreateExclusiveFunc is CreateExclusive with a hook the creator runs
// after winning the creation race and before placing the first token.
// Whatever prepare publishes therefore happens-before any peer's first
// successful wait. If prepare fails the set is removed again.
func CreateExclusiveFunc(key Key, prepare func() error) (*Baton, bool, error) {
	id, err := semget(key, phaseSlots, unix.IPC_CREAT|unix.IPC_EXCL|batonPerm)
	if err != nil {
		if !errors.Is(err, unix.EEXIST) {
			return nil, false, &OpError{Op: "semget", Name: key.String(), Err: err}
		}
		b, err := AttachBaton(key)
		return b, false, err
	}
	b := &Baton{key: key, id: id}
	if prepare != nil {
		if err := prepare(); err != nil {
			semctl(id, 0, unix.IPC_RMID, 0)
			return nil, false, err
		}
	}
	if _, err := semctl(id, int(PhaseReadyForRequest), semSETVAL, 1); err != nil {
		semctl(id, 0, unix.IPC_RMID, 0)
		return nil, false, &OpError{Op: "semctl", Name: key.String(), Err: err}
	}
	return b, true, nil
}

// AttachBaton opens an existing baton. A set created with a different
// number of phases fails with ErrNameConflict.
func AttachBaton(key Key) (*Baton, error) {
	id, err := semget(key, phaseSlots, batonPerm)
	if err != nil {
		switch {
		case errors.Is(err, unix.ENOENT):
			return nil, &OpError{Op: "semget", Name: key.String(), Kind: ErrNotFound, Err: err}
		case errors.Is(err, unix.EINVAL):
			return nil, &OpError{Op: "semget", Name: key.String(), Kind: ErrNameConflict, Err: err}
		}
		return nil, &OpError{Op: "semget", Name: key.String(), Err: err}
	}
	return &Baton{key: key, id: id}, nil
}

// WaitFor blocks in the kernel until p is current and takes its token in
// the same indivisible operation. A positive timeout bounds the wait and
// yields ErrTimeout; removal of the set during the wait yields
// ErrOrphanedWait.
func (b *Baton) WaitFor(p Phase, timeout time.Duration) error {
	if err := b.checkWait(p); err != nil {
		return err
	}
	ops := []sembuf{{num: uint16(p), op: -1}}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		var ts *unix.Timespec
		if timeout > 0 {
			left := time.Until(deadline)
			if left <= 0 {
				return &OpError{Op: "semtimedop", Name: b.key.String(), Kind: ErrTimeout, Err: os.ErrDeadlineExceeded}
			}
			t := unix.NsecToTimespec(left.Nanoseconds())
			ts = &t
		}
		err := semtimedop(b.id, ops, ts)
		if err == nil {
			b.held, b.holding = p, true
			return nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return b.waitError(err)
	}
}

// TryWaitFor takes the token of p if p is current, or returns
// iox.ErrWouldBlock without side effects.
func (b *Baton) TryWaitFor(p Phase) error {
	if err := b.checkWait(p); err != nil {
		return err
	}
	ops := []sembuf{{num: uint16(p), op: -1, flg: unix.IPC_NOWAIT}}
	for {
		err := semtimedop(b.id, ops, nil)
		if err == nil {
			b.held, b.holding = p, true
			return nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EAGAIN) {
			return iox.ErrWouldBlock
		}
		return b.waitError(err)
	}
}

func (b *Baton) waitError(err error) error {
	switch {
	case errors.Is(err, unix.EAGAIN):
		return &OpError{Op: "semtimedop", Name: b.key.String(), Kind: ErrTimeout, Err: err}
	case errors.Is(err, unix.EIDRM), errors.Is(err, unix.EINVAL):
		return &OpError{Op: "semtimedop", Name: b.key.String(), Kind: ErrOrphanedWait, Err: err}
	}
	return &OpError{Op: "semtimedop", Name: b.key.String(), Err: err}
}

// AdvanceTo hands the held token to p. Never blocks. The kernel applies
// the hand-off only if no slot holds a token, in the same operation that
// posts p, so two phases can never be current at once.
func (b *Baton) AdvanceTo(p Phase) error {
	if err := b.checkAdvance(p); err != nil {
		return err
	}
	var ops [phaseSlots + 1]sembuf
	for i := 0; i < phaseSlots; i++ {
		ops[i] = sembuf{num: uint16(i), op: 0, flg: unix.IPC_NOWAIT}
	}
	ops[phaseSlots] = sembuf{num: uint16(p), op: 1, flg: unix.IPC_NOWAIT}
	for {
		err := semtimedop(b.id, ops[:], nil)
		if err == nil {
			b.holding = false
			return nil
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return b.illegal("semop", fmt.Errorf("token already outstanding: %w", err))
		case errors.Is(err, unix.EIDRM), errors.Is(err, unix.EINVAL):
			return &OpError{Op: "semop", Name: b.key.String(), Kind: ErrNotFound, Err: err}
		}
		return &OpError{Op: "semop", Name: b.key.String(), Err: err}
	}
}

// Phase returns the current phase, or false while a party holds the
// token. The snapshot may be stale as soon as it is returned.
func (b *Baton) Phase() (Phase, bool, error) {
	var vals [phaseSlots]uint16
	if err := semctlPtr(b.id, 0, semGETALL, unsafe.Pointer(&vals[0])); err != nil {
		if errors.Is(err, unix.EIDRM) || errors.Is(err, unix.EINVAL) {
			return 0, false, &OpError{Op: "semctl", Name: b.key.String(), Kind: ErrNotFound, Err: err}
		}
		return 0, false, &OpError{Op: "semctl", Name: b.key.String(), Err: err}
	}
	cur, found := Phase(0), false
	for i, v := range vals {
		if v == 0 {
			continue
		}
		if found || v > 1 {
			return 0, false, b.illegal("phase", fmt.Errorf("token count %v", vals))
		}
		cur, found = Phase(i), true
	}
	return cur, found, nil
}

// Destroy removes the semaphore set. Any party blocked in WaitFor wakes
// with ErrOrphanedWait. A second call fails with ErrNotFound.
func (b *Baton) Destroy() error {
	if _, err := semctl(b.id, 0, unix.IPC_RMID, 0); err != nil {
		if errors.Is(err, unix.EIDRM) || errors.Is(err, unix.EINVAL) {
			return &OpError{Op: "semctl", Name: b.key.String(), Kind: ErrNotFound, Err: err}
		}
		return &OpError{Op: "semctl", Name: b.key.String(), Err: err}
	}
	b.holding = false
	return nil
}

// DestroyBaton removes the baton for key without holding a handle.
func DestroyBaton(key Key) error {
	b, err := AttachBaton(key)
	if err != nil {
		return err
	}
	return b.Destroy()
}

// Ftok derives a Key from an existing file and a project id with the
// classic System V formula, for interoperation with programs that call
// ftok(3) on an agreed path.
func Ftok(path string, id byte) (Key, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return 0, &OpError{Op: "ftok", Name: path, Kind: ErrNotFound, Err: err}
		}
		return 0, &OpError{Op: "ftok", Name: path, Err: err}
	}
	return Key(int32(uint32(st.Ino&0xffff) | uint32(st.Dev&0xff)<<16 | uint32(id)<<24)), nil
}
