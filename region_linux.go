// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux && (amd64 || arm64)

package shmsess

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// shmDir is where glibc's shm_open places named objects.
const shmDir = "/dev/shm"

const regionPerm = 0o666

func shmPath(name string) string {
	return shmDir + name
}

// CreateOrAttach opens the region called name, creating it when absent.
// The creator sets the size to exactly capacity before anyone can map it.
// An attacher never resizes; if the existing object already has a size
// that differs from capacity the call fails with ErrNameConflict.
func CreateOrAttach(name string, capacity int) (*Region, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if capacity < minCapacity {
		return nil, &OpError{Op: "create", Name: name, Kind: ErrInvalidConfig, Err: fmt.Errorf("capacity %d", capacity)}
	}
	path := shmPath(name)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_NOFOLLOW|unix.O_CLOEXEC, regionPerm)
	if err == nil {
		if err := unix.Ftruncate(fd, int64(capacity)); err != nil {
			unix.Close(fd)
			unix.Unlink(path)
			return nil, &OpError{Op: "ftruncate", Name: name, Kind: ErrMapFailure, Err: err}
		}
		return &Region{name: name, capacity: capacity, fd: fd, creator: true}, nil
	}
	if !errors.Is(err, unix.EEXIST) {
		return nil, &OpError{Op: "shm_open", Name: name, Err: err}
	}
	return Attach(name, capacity)
}

// Attach opens an existing region without creating or resizing it.
// A missing region yields ErrNotFound.
func Attach(name string, capacity int) (*Region, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	fd, err := unix.Open(shmPath(name), unix.O_RDWR|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil, &OpError{Op: "shm_open", Name: name, Kind: ErrNotFound, Err: err}
		}
		return nil, &OpError{Op: "shm_open", Name: name, Err: err}
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, &OpError{Op: "fstat", Name: name, Err: err}
	}
	if st.Size != 0 && st.Size != int64(capacity) {
		unix.Close(fd)
		return nil, &OpError{Op: "attach", Name: name, Kind: ErrNameConflict, Err: fmt.Errorf("size %d, want %d", st.Size, capacity)}
	}
	return &Region{name: name, capacity: capacity, fd: fd}, nil
}

// Map maps the full capacity of the region. It fails with ErrMapFailure
// while the creator has not sized the object yet.
func (r *Region) Map(mode MapMode) (*Buffer, error) {
	if r.fd < 0 {
		return nil, ErrClosed
	}
	var st unix.Stat_t
	if err := unix.Fstat(r.fd, &st); err != nil {
		return nil, &OpError{Op: "fstat", Name: r.name, Kind: ErrMapFailure, Err: err}
	}
	if st.Size == 0 {
		return nil, &OpError{Op: "mmap", Name: r.name, Kind: ErrMapFailure, Err: errors.New("region not sized")}
	}
	if st.Size != int64(r.capacity) {
		return nil, &OpError{Op: "mmap", Name: r.name, Kind: ErrNameConflict, Err: fmt.Errorf("size %d, want %d", st.Size, r.capacity)}
	}
	prot := unix.PROT_READ
	if mode == MapReadWrite {
		prot |= unix.PROT_WRITE
	}
	mem, err := unix.Mmap(r.fd, 0, r.capacity, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, &OpError{Op: "mmap", Name: r.name, Kind: ErrMapFailure, Err: err}
	}
	return &Buffer{mem: mem, mode: mode}, nil
}

// Close releases the descriptor. Existing mappings stay valid.
func (r *Region) Close() error {
	if r.fd < 0 {
		return nil
	}
	fd := r.fd
	r.fd = -1
	if err := unix.Close(fd); err != nil {
		return &OpError{Op: "close", Name: r.name, Err: err}
	}
	return nil
}

// Destroy removes the namespace entry of the region. Mappings held by
// either endpoint stay valid until unmapped. A second call fails with
// ErrNotFound, which is benign during shutdown.
func Destroy(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := unix.Unlink(shmPath(name)); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return &OpError{Op: "shm_unlink", Name: name, Kind: ErrNotFound, Err: err}
		}
		return &OpError{Op: "shm_unlink", Name: name, Err: err}
	}
	return nil
}

func unmapMemory(mem []byte) error {
	if err := unix.Munmap(mem); err != nil {
		return &OpError{Op: "munmap", Err: err}
	}
	return nil
}
